package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/worktally/worktally-backend/internal/domain/task"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

var taskColumns = []string{
	"id", "project_id", "title", "description", "status", "deadline", "assignee_id",
	"created_by", "reminder_sent_at", "created_at", "updated_at",
}

const taskReturning = "RETURNING id, project_id, title, description, status, deadline, assignee_id, created_by, reminder_sent_at, created_at, updated_at"

type taskRepositoryImpl struct {
	db *database.DB
}

func NewTaskRepository(db *database.DB) task.Repository {
	return &taskRepositoryImpl{db: db}
}

func scanTask(row rowScanner) (task.Task, error) {
	var t task.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Deadline,
		&t.AssigneeID,
		&t.CreatedBy,
		&t.ReminderSentAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *taskRepositoryImpl) queryTasks(ctx context.Context, b squirrel.SelectBuilder) ([]task.Task, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build task query: %w", err)
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepositoryImpl) Create(ctx context.Context, t task.Task) (task.Task, error) {
	q := GetQuerier(ctx, r.db)

	sql, args, err := psql.
		Insert("tasks").
		Columns("project_id", "title", "description", "status", "deadline", "assignee_id", "created_by").
		Values(t.ProjectID, t.Title, t.Description, t.Status, t.Deadline, t.AssigneeID, t.CreatedBy).
		Suffix(taskReturning).
		ToSql()
	if err != nil {
		return task.Task{}, fmt.Errorf("failed to build insert: %w", err)
	}

	created, err := scanTask(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if isForeignKeyViolation(err) {
			return task.Task{}, task.ErrAssigneeNotMember
		}
		return task.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

func (r *taskRepositoryImpl) GetByID(ctx context.Context, projectID, id string) (task.Task, error) {
	tasks, err := r.queryTasks(ctx, psql.Select(taskColumns...).From("tasks").
		Where(squirrel.Eq{"project_id": projectID, "id": id}))
	if err != nil {
		return task.Task{}, err
	}
	if len(tasks) == 0 {
		return task.Task{}, task.ErrTaskNotFound
	}
	t := tasks[0]

	if t.Checklist, err = r.listChecklist(ctx, t.ID); err != nil {
		return task.Task{}, err
	}
	if t.Attachments, err = r.listAttachments(ctx, t.ID); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *taskRepositoryImpl) List(ctx context.Context, projectID string, filter task.TaskFilter, now time.Time) ([]task.Task, int64, error) {
	where := squirrel.And{squirrel.Eq{"project_id": projectID}}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": filter.Status})
	}
	if filter.AssigneeID != "" {
		where = append(where, squirrel.Eq{"assignee_id": filter.AssigneeID})
	}
	if due := filter.DueBeforeTime(); due != nil {
		where = append(where, squirrel.Lt{"deadline": *due})
	}
	if filter.Overdue {
		where = append(where,
			squirrel.Lt{"deadline": now},
			squirrel.NotEq{"status": task.StatusDone},
		)
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("tasks").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	tasks, err := r.queryTasks(ctx, psql.Select(taskColumns...).From("tasks").
		Where(where).
		OrderBy("deadline ASC NULLS LAST", "created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset())))
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachChecklists(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// attachChecklists loads checklist items for a page of tasks so list responses can report progress.
func (r *taskRepositoryImpl) attachChecklists(ctx context.Context, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		ids = append(ids, t.ID)
		index[t.ID] = i
	}

	items, err := r.queryChecklist(ctx, squirrel.Eq{"task_id": ids})
	if err != nil {
		return err
	}
	for _, item := range items {
		i := index[item.TaskID]
		tasks[i].Checklist = append(tasks[i].Checklist, item)
	}
	return nil
}

func (r *taskRepositoryImpl) Update(ctx context.Context, t task.Task) (task.Task, error) {
	q := GetQuerier(ctx, r.db)

	sql, args, err := psql.
		Update("tasks").
		Set("title", t.Title).
		Set("description", t.Description).
		Set("status", t.Status).
		Set("deadline", t.Deadline).
		Set("assignee_id", t.AssigneeID).
		Set("reminder_sent_at", t.ReminderSentAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"project_id": t.ProjectID, "id": t.ID}).
		Suffix(taskReturning).
		ToSql()
	if err != nil {
		return task.Task{}, fmt.Errorf("failed to build update: %w", err)
	}

	updated, err := scanTask(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return task.Task{}, task.ErrTaskNotFound
		}
		if isForeignKeyViolation(err) {
			return task.Task{}, task.ErrAssigneeNotMember
		}
		return task.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

func (r *taskRepositoryImpl) Delete(ctx context.Context, projectID, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepositoryImpl) ListDueWithin(ctx context.Context, from, to time.Time) ([]task.Task, error) {
	return r.queryTasks(ctx, psql.Select(taskColumns...).From("tasks").
		Where(squirrel.NotEq{"assignee_id": nil}).
		Where(squirrel.NotEq{"status": task.StatusDone}).
		Where(squirrel.Eq{"reminder_sent_at": nil}).
		Where(squirrel.GtOrEq{"deadline": from}).
		Where(squirrel.Lt{"deadline": to}).
		OrderBy("deadline"))
}

func (r *taskRepositoryImpl) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE tasks SET reminder_sent_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

const checklistReturning = "RETURNING id, task_id, title, is_done, position, created_at, updated_at"

func scanChecklistItem(row rowScanner) (task.ChecklistItem, error) {
	var i task.ChecklistItem
	err := row.Scan(&i.ID, &i.TaskID, &i.Title, &i.IsDone, &i.Position, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (r *taskRepositoryImpl) queryChecklist(ctx context.Context, where squirrel.Sqlizer) ([]task.ChecklistItem, error) {
	sql, args, err := psql.
		Select("id", "task_id", "title", "is_done", "position", "created_at", "updated_at").
		From("task_checklist_items").
		Where(where).
		OrderBy("position", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build checklist query: %w", err)
	}

	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklist: %w", err)
	}
	defer rows.Close()

	var items []task.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *taskRepositoryImpl) listChecklist(ctx context.Context, taskID string) ([]task.ChecklistItem, error) {
	return r.queryChecklist(ctx, squirrel.Eq{"task_id": taskID})
}

func (r *taskRepositoryImpl) AddChecklistItem(ctx context.Context, item task.ChecklistItem) (task.ChecklistItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO task_checklist_items (task_id, title, is_done, position)
		VALUES ($1, $2, $3, $4)
		` + checklistReturning

	created, err := scanChecklistItem(q.QueryRow(ctx, query, item.TaskID, item.Title, item.IsDone, item.Position))
	if err != nil {
		return task.ChecklistItem{}, fmt.Errorf("failed to add checklist item: %w", err)
	}
	return created, nil
}

func (r *taskRepositoryImpl) GetChecklistItem(ctx context.Context, taskID, itemID string) (task.ChecklistItem, error) {
	items, err := r.queryChecklist(ctx, squirrel.Eq{"task_id": taskID, "id": itemID})
	if err != nil {
		return task.ChecklistItem{}, err
	}
	if len(items) == 0 {
		return task.ChecklistItem{}, task.ErrChecklistItemNotFound
	}
	return items[0], nil
}

func (r *taskRepositoryImpl) UpdateChecklistItem(ctx context.Context, item task.ChecklistItem) (task.ChecklistItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE task_checklist_items
		SET title = $1, is_done = $2, position = $3, updated_at = NOW()
		WHERE task_id = $4 AND id = $5
		` + checklistReturning

	updated, err := scanChecklistItem(q.QueryRow(ctx, query, item.Title, item.IsDone, item.Position, item.TaskID, item.ID))
	if err != nil {
		if isNoRows(err) {
			return task.ChecklistItem{}, task.ErrChecklistItemNotFound
		}
		return task.ChecklistItem{}, fmt.Errorf("failed to update checklist item: %w", err)
	}
	return updated, nil
}

func (r *taskRepositoryImpl) DeleteChecklistItem(ctx context.Context, taskID, itemID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM task_checklist_items WHERE task_id = $1 AND id = $2`, taskID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete checklist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrChecklistItemNotFound
	}
	return nil
}

const attachmentColumns = "id, task_id, file_path, file_name, content_type, size_bytes, uploaded_by, created_at"

func scanAttachment(row rowScanner) (task.Attachment, error) {
	var a task.Attachment
	err := row.Scan(&a.ID, &a.TaskID, &a.FilePath, &a.FileName, &a.ContentType, &a.Size, &a.UploadedBy, &a.CreatedAt)
	return a, err
}

func (r *taskRepositoryImpl) listAttachments(ctx context.Context, taskID string) ([]task.Attachment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+attachmentColumns+` FROM task_attachments WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var out []task.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *taskRepositoryImpl) AddAttachment(ctx context.Context, a task.Attachment) (task.Attachment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO task_attachments (task_id, file_path, file_name, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + attachmentColumns

	created, err := scanAttachment(q.QueryRow(ctx, query, a.TaskID, a.FilePath, a.FileName, a.ContentType, a.Size, a.UploadedBy))
	if err != nil {
		return task.Attachment{}, fmt.Errorf("failed to add attachment: %w", err)
	}
	return created, nil
}

func (r *taskRepositoryImpl) GetAttachment(ctx context.Context, taskID, attachmentID string) (task.Attachment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attachmentColumns + ` FROM task_attachments WHERE task_id = $1 AND id = $2`
	a, err := scanAttachment(q.QueryRow(ctx, query, taskID, attachmentID))
	if err != nil {
		if isNoRows(err) {
			return task.Attachment{}, task.ErrAttachmentNotFound
		}
		return task.Attachment{}, fmt.Errorf("failed to get attachment: %w", err)
	}
	return a, nil
}

func (r *taskRepositoryImpl) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM task_attachments WHERE task_id = $1 AND id = $2`, taskID, attachmentID)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrAttachmentNotFound
	}
	return nil
}
