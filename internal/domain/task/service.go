package task

import (
	"context"
	"io"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/project"
)

type Service interface {
	Create(ctx context.Context, actor project.Actor, req CreateTaskRequest) (TaskResponse, error)
	Get(ctx context.Context, actor project.Actor, id string) (TaskResponse, error)
	List(ctx context.Context, actor project.Actor, filter TaskFilter) (ListTasksResponse, error)
	Update(ctx context.Context, actor project.Actor, id string, req UpdateTaskRequest) (TaskResponse, error)
	Delete(ctx context.Context, actor project.Actor, id string) error

	AddChecklistItem(ctx context.Context, actor project.Actor, taskID string, req ChecklistItemRequest) (ChecklistItemResponse, error)
	UpdateChecklistItem(ctx context.Context, actor project.Actor, taskID, itemID string, req UpdateChecklistItemRequest) (ChecklistItemResponse, error)
	DeleteChecklistItem(ctx context.Context, actor project.Actor, taskID, itemID string) error

	UploadAttachment(ctx context.Context, actor project.Actor, taskID string, r io.Reader, filename string) (AttachmentResponse, error)
	DeleteAttachment(ctx context.Context, actor project.Actor, taskID, attachmentID string) error

	// SendDeadlineReminders notifies assignees of tasks due within window, once per task.
	SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error)
}
