package task

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, t Task) (Task, error)
	// GetByID loads the task with its checklist and attachments.
	GetByID(ctx context.Context, projectID, id string) (Task, error)
	List(ctx context.Context, projectID string, filter TaskFilter, now time.Time) ([]Task, int64, error)
	Update(ctx context.Context, t Task) (Task, error)
	Delete(ctx context.Context, projectID, id string) error

	// ListDueWithin returns unfinished, assigned tasks due in [from, to) that have not been reminded yet.
	ListDueWithin(ctx context.Context, from, to time.Time) ([]Task, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	AddChecklistItem(ctx context.Context, item ChecklistItem) (ChecklistItem, error)
	GetChecklistItem(ctx context.Context, taskID, itemID string) (ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item ChecklistItem) (ChecklistItem, error)
	DeleteChecklistItem(ctx context.Context, taskID, itemID string) error

	AddAttachment(ctx context.Context, a Attachment) (Attachment, error)
	GetAttachment(ctx context.Context, taskID, attachmentID string) (Attachment, error)
	DeleteAttachment(ctx context.Context, taskID, attachmentID string) error
}
