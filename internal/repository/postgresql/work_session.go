package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

var sessionColumns = []string{
	"id", "project_id", "user_id", "start_at", "end_at", "description", "is_manual", "created_at", "updated_at",
}

type workSessionRepositoryImpl struct {
	db *database.DB
}

func NewWorkSessionRepository(db *database.DB) worksession.Repository {
	return &workSessionRepositoryImpl{db: db}
}

func scanSession(row rowScanner) (worksession.WorkSession, error) {
	var s worksession.WorkSession
	err := row.Scan(&s.ID, &s.ProjectID, &s.UserID, &s.StartAt, &s.EndAt, &s.Description, &s.IsManual, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// query runs a session select and attaches breaks to every result.
func (r *workSessionRepositoryImpl) query(ctx context.Context, b squirrel.SelectBuilder) ([]worksession.WorkSession, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build session query: %w", err)
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work sessions: %w", err)
	}
	defer rows.Close()

	var sessions []worksession.WorkSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := r.attachBreaks(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *workSessionRepositoryImpl) attachBreaks(ctx context.Context, sessions []worksession.WorkSession) error {
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(sessions))
	index := make(map[string]int, len(sessions))
	for i, s := range sessions {
		ids = append(ids, s.ID)
		index[s.ID] = i
	}

	sql, args, err := psql.
		Select("id", "session_id", "start_at", "end_at").
		From("work_session_breaks").
		Where(squirrel.Eq{"session_id": ids}).
		OrderBy("start_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build break query: %w", err)
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to query breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b worksession.Break
		if err := rows.Scan(&b.ID, &b.SessionID, &b.StartAt, &b.EndAt); err != nil {
			return fmt.Errorf("failed to scan break: %w", err)
		}
		i := index[b.SessionID]
		sessions[i].Breaks = append(sessions[i].Breaks, b)
	}
	return rows.Err()
}

func (r *workSessionRepositoryImpl) one(ctx context.Context, b squirrel.SelectBuilder, notFound error) (worksession.WorkSession, error) {
	sessions, err := r.query(ctx, b.Limit(1))
	if err != nil {
		return worksession.WorkSession{}, err
	}
	if len(sessions) == 0 {
		return worksession.WorkSession{}, notFound
	}
	return sessions[0], nil
}

func (r *workSessionRepositoryImpl) Create(ctx context.Context, s worksession.WorkSession) (worksession.WorkSession, error) {
	q := GetQuerier(ctx, r.db)

	sql, args, err := psql.
		Insert("work_sessions").
		Columns("project_id", "user_id", "start_at", "end_at", "description", "is_manual").
		Values(s.ProjectID, s.UserID, s.StartAt, s.EndAt, s.Description, s.IsManual).
		Suffix("RETURNING id, project_id, user_id, start_at, end_at, description, is_manual, created_at, updated_at").
		ToSql()
	if err != nil {
		return worksession.WorkSession{}, fmt.Errorf("failed to build insert: %w", err)
	}

	created, err := scanSession(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return worksession.WorkSession{}, worksession.ErrSessionAlreadyOpen
		}
		return worksession.WorkSession{}, fmt.Errorf("failed to create work session: %w", err)
	}
	return created, nil
}

func (r *workSessionRepositoryImpl) GetByID(ctx context.Context, id string) (worksession.WorkSession, error) {
	return r.one(ctx,
		psql.Select(sessionColumns...).From("work_sessions").Where(squirrel.Eq{"id": id}),
		worksession.ErrSessionNotFound,
	)
}

func (r *workSessionRepositoryImpl) GetOpenByUser(ctx context.Context, userID string) (worksession.WorkSession, error) {
	return r.one(ctx, openSession(userID).Suffix("FOR UPDATE"), worksession.ErrNoOpenSession)
}

func (r *workSessionRepositoryImpl) FindOpenByUser(ctx context.Context, userID string) (worksession.WorkSession, error) {
	return r.one(ctx, openSession(userID), worksession.ErrNoOpenSession)
}

func openSession(userID string) squirrel.SelectBuilder {
	return psql.Select(sessionColumns...).From("work_sessions").
		Where(squirrel.Eq{"user_id": userID, "end_at": nil})
}

func (r *workSessionRepositoryImpl) Close(ctx context.Context, id string, endAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE work_sessions SET end_at = $1, updated_at = NOW() WHERE id = $2 AND end_at IS NULL`
	tag, err := q.Exec(ctx, query, endAt, id)
	if err != nil {
		return fmt.Errorf("failed to close work session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return worksession.ErrNoOpenSession
	}
	return nil
}

func (r *workSessionRepositoryImpl) UpdateTimes(ctx context.Context, id string, startAt, endAt time.Time, description *string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_sessions
		SET start_at = $1, end_at = $2, description = $3, updated_at = NOW()
		WHERE id = $4
	`
	tag, err := q.Exec(ctx, query, startAt, endAt, description, id)
	if err != nil {
		return fmt.Errorf("failed to update work session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return worksession.ErrSessionNotFound
	}
	return nil
}

func (r *workSessionRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM work_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return worksession.ErrSessionNotFound
	}
	return nil
}

func (r *workSessionRepositoryImpl) StartBreak(ctx context.Context, sessionID string, at time.Time) (worksession.Break, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO work_session_breaks (session_id, start_at)
		VALUES ($1, $2)
		RETURNING id, session_id, start_at, end_at
	`
	var b worksession.Break
	if err := q.QueryRow(ctx, query, sessionID, at).Scan(&b.ID, &b.SessionID, &b.StartAt, &b.EndAt); err != nil {
		if isUniqueViolation(err) {
			return worksession.Break{}, worksession.ErrBreakAlreadyOpen
		}
		return worksession.Break{}, fmt.Errorf("failed to start break: %w", err)
	}
	return b, nil
}

func (r *workSessionRepositoryImpl) EndOpenBreak(ctx context.Context, sessionID string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE work_session_breaks SET end_at = $1 WHERE session_id = $2 AND end_at IS NULL`
	tag, err := q.Exec(ctx, query, at, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end break: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return worksession.ErrNoOpenBreak
	}
	return nil
}

func (r *workSessionRepositoryImpl) ReplaceBreaks(ctx context.Context, sessionID string, breaks []worksession.Break) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM work_session_breaks WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear breaks: %w", err)
	}
	if len(breaks) == 0 {
		return nil
	}

	insert := psql.Insert("work_session_breaks").Columns("session_id", "start_at", "end_at")
	for _, b := range breaks {
		insert = insert.Values(sessionID, b.StartAt, b.EndAt)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build break insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert breaks: %w", err)
	}
	return nil
}

func (r *workSessionRepositoryImpl) ListByUserBetween(ctx context.Context, projectID, userID string, from, to time.Time) ([]worksession.WorkSession, error) {
	return r.query(ctx, psql.Select(sessionColumns...).From("work_sessions").
		Where(squirrel.Eq{"project_id": projectID, "user_id": userID}).
		Where(squirrel.GtOrEq{"start_at": from}).
		Where(squirrel.Lt{"start_at": to}).
		OrderBy("start_at"))
}

func (r *workSessionRepositoryImpl) List(ctx context.Context, projectID string, filter worksession.SessionFilter, loc *time.Location) ([]worksession.WorkSession, int64, error) {
	where := squirrel.And{squirrel.Eq{"project_id": projectID, "user_id": filter.UserID}}
	from, to := filter.Bounds(loc)
	if from != nil {
		where = append(where, squirrel.GtOrEq{"start_at": *from})
	}
	if to != nil {
		where = append(where, squirrel.Lt{"start_at": *to})
	}
	if filter.IsManual != nil {
		where = append(where, squirrel.Eq{"is_manual": *filter.IsManual})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("work_sessions").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count work sessions: %w", err)
	}

	sessions, err := r.query(ctx, psql.Select(sessionColumns...).From("work_sessions").
		Where(where).
		OrderBy("start_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page-1)*filter.Limit)))
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *workSessionRepositoryImpl) ListOpenStartedBefore(ctx context.Context, cutoff time.Time) ([]worksession.WorkSession, error) {
	return r.query(ctx, psql.Select(sessionColumns...).From("work_sessions").
		Where(squirrel.Eq{"end_at": nil}).
		Where(squirrel.Lt{"start_at": cutoff}).
		OrderBy("start_at"))
}
