package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/worktally/worktally-backend/internal/domain/calendar"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

const calendarColumns = "id, project_id, user_id, title, description, start_at, end_at, all_day, source, external_id, created_at, updated_at"

type calendarRepositoryImpl struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) calendar.Repository {
	return &calendarRepositoryImpl{db: db}
}

func scanEntry(row rowScanner) (calendar.Entry, error) {
	var e calendar.Entry
	err := row.Scan(
		&e.ID, &e.ProjectID, &e.UserID, &e.Title, &e.Description, &e.StartAt, &e.EndAt,
		&e.AllDay, &e.Source, &e.ExternalID, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *calendarRepositoryImpl) Create(ctx context.Context, e calendar.Entry) (calendar.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO calendar_entries (project_id, user_id, title, description, start_at, end_at, all_day, source, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + calendarColumns

	source := e.Source
	if source == "" {
		source = calendar.SourceManual
	}
	created, err := scanEntry(q.QueryRow(ctx, query,
		e.ProjectID, e.UserID, e.Title, e.Description, e.StartAt, e.EndAt, e.AllDay, source, e.ExternalID,
	))
	if err != nil {
		return calendar.Entry{}, fmt.Errorf("failed to create calendar entry: %w", err)
	}
	return created, nil
}

func (r *calendarRepositoryImpl) GetByID(ctx context.Context, projectID, id string) (calendar.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + calendarColumns + ` FROM calendar_entries WHERE project_id = $1 AND id = $2`
	e, err := scanEntry(q.QueryRow(ctx, query, projectID, id))
	if err != nil {
		if isNoRows(err) {
			return calendar.Entry{}, calendar.ErrEntryNotFound
		}
		return calendar.Entry{}, fmt.Errorf("failed to get calendar entry: %w", err)
	}
	return e, nil
}

func (r *calendarRepositoryImpl) Update(ctx context.Context, e calendar.Entry) (calendar.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE calendar_entries
		SET title = $1, description = $2, start_at = $3, end_at = $4, all_day = $5, updated_at = NOW()
		WHERE project_id = $6 AND id = $7
		RETURNING ` + calendarColumns

	updated, err := scanEntry(q.QueryRow(ctx, query, e.Title, e.Description, e.StartAt, e.EndAt, e.AllDay, e.ProjectID, e.ID))
	if err != nil {
		if isNoRows(err) {
			return calendar.Entry{}, calendar.ErrEntryNotFound
		}
		return calendar.Entry{}, fmt.Errorf("failed to update calendar entry: %w", err)
	}
	return updated, nil
}

func (r *calendarRepositoryImpl) Delete(ctx context.Context, projectID, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM calendar_entries WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return calendar.ErrEntryNotFound
	}
	return nil
}

func (r *calendarRepositoryImpl) ListOverlapping(ctx context.Context, projectID, userID string, from, to time.Time) ([]calendar.Entry, error) {
	sql, args, err := psql.
		Select(calendarColumns).
		From("calendar_entries").
		Where(squirrel.Eq{"project_id": projectID, "user_id": userID}).
		Where(squirrel.Lt{"start_at": to}).
		Where(squirrel.Gt{"end_at": from}).
		OrderBy("start_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar query: %w", err)
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar entries: %w", err)
	}
	defer rows.Close()

	var out []calendar.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *calendarRepositoryImpl) UpsertExternal(ctx context.Context, entries []calendar.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	insert := psql.Insert("calendar_entries").
		Columns("project_id", "user_id", "title", "description", "start_at", "end_at", "all_day", "source", "external_id")
	for _, e := range entries {
		insert = insert.Values(e.ProjectID, e.UserID, e.Title, e.Description, e.StartAt, e.EndAt, e.AllDay, calendar.SourceExternal, e.ExternalID)
	}
	sql, args, err := insert.Suffix(`
		ON CONFLICT (user_id, source, external_id) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			all_day = EXCLUDED.all_day,
			updated_at = NOW()`).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build upsert: %w", err)
	}

	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to import calendar entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
