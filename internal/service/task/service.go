package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/task"
	"github.com/worktally/worktally-backend/internal/pkg/database"
	"github.com/worktally/worktally-backend/internal/service/file"
)

// AttachmentStore is the part of the file service tasks need.
type AttachmentStore interface {
	UploadTaskAttachment(ctx context.Context, projectID, taskID string, r io.Reader, filename string) (file.StoredFile, error)
	DeleteFile(ctx context.Context, path string) error
	URL(path string) string
}

type Notifier interface {
	QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error
}

type TaskServiceImpl struct {
	tx       database.Transactor
	repo     task.Repository
	members  project.MemberRepository
	files    AttachmentStore
	notifier Notifier
	now      func() time.Time
}

func NewTaskService(
	tx database.Transactor,
	repo task.Repository,
	members project.MemberRepository,
	files AttachmentStore,
	notifier Notifier,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		tx:       tx,
		repo:     repo,
		members:  members,
		files:    files,
		notifier: notifier,
		now:      time.Now,
	}
}

func requireTaskAccess(actor project.Actor) error {
	if actor.ProjectID == "" {
		return project.ErrProjectRequired
	}
	if !actor.Can(project.PermissionTaskViewAll) {
		return project.ErrInsufficientRole
	}
	return nil
}

// canModify allows task managers plus the task's creator and assignee.
func canModify(actor project.Actor, t task.Task) bool {
	if actor.Can(project.PermissionTaskManage) || t.CreatedBy == actor.UserID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == actor.UserID
}

func (s *TaskServiceImpl) Create(ctx context.Context, actor project.Actor, req task.CreateTaskRequest) (task.TaskResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.TaskResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return task.TaskResponse{}, err
	}
	if err := s.checkAssignee(ctx, actor, req.AssigneeID); err != nil {
		return task.TaskResponse{}, err
	}

	var created task.Task
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, task.Task{
			ProjectID:   actor.ProjectID,
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			Deadline:    req.DeadlineTime(),
			AssigneeID:  req.AssigneeID,
			CreatedBy:   actor.UserID,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		for i, title := range req.Checklist {
			item, err := s.repo.AddChecklistItem(txCtx, task.ChecklistItem{TaskID: created.ID, Title: title, Position: i})
			if err != nil {
				return fmt.Errorf("failed to add checklist item: %w", err)
			}
			created.Checklist = append(created.Checklist, item)
		}
		return nil
	})
	if err != nil {
		return task.TaskResponse{}, err
	}

	slog.Info("task created", "task_id", created.ID, "project_id", actor.ProjectID, "created_by", actor.UserID)
	if created.AssigneeID != nil && *created.AssigneeID != actor.UserID {
		s.notifyAssigned(ctx, actor, created)
	}
	return s.toResponse(created), nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, actor project.Actor, id string) (task.TaskResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.TaskResponse{}, err
	}
	t, err := s.repo.GetByID(ctx, actor.ProjectID, id)
	if err != nil {
		return task.TaskResponse{}, err
	}
	return s.toResponse(t), nil
}

func (s *TaskServiceImpl) List(ctx context.Context, actor project.Actor, filter task.TaskFilter) (task.ListTasksResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.ListTasksResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return task.ListTasksResponse{}, err
	}
	if filter.AssigneeID == "me" {
		filter.AssigneeID = actor.UserID
	}

	now := s.now()
	tasks, total, err := s.repo.List(ctx, actor.ProjectID, filter, now)
	if err != nil {
		return task.ListTasksResponse{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	responses := make([]task.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, task.NewTaskResponse(t, now, s.files.URL))
	}

	return task.ListTasksResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Tasks:      responses,
	}, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, actor project.Actor, id string, req task.UpdateTaskRequest) (task.TaskResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.TaskResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return task.TaskResponse{}, err
	}

	existing, err := s.loadModifiable(ctx, actor, id)
	if err != nil {
		return task.TaskResponse{}, err
	}

	next := existing
	req.Apply(&next)

	assigneeChanged := !sameID(existing.AssigneeID, next.AssigneeID)
	if assigneeChanged && next.AssigneeID != nil {
		if err := s.checkAssignee(ctx, actor, next.AssigneeID); err != nil {
			return task.TaskResponse{}, err
		}
	}
	// a new assignee has not seen the reminder yet
	if assigneeChanged {
		next.ReminderSentAt = nil
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return task.TaskResponse{}, fmt.Errorf("failed to update task: %w", err)
	}
	updated.Checklist, updated.Attachments = existing.Checklist, existing.Attachments

	if assigneeChanged && updated.AssigneeID != nil && *updated.AssigneeID != actor.UserID {
		s.notifyAssigned(ctx, actor, updated)
	}
	if existing.Status != task.StatusDone && updated.Status == task.StatusDone && updated.CreatedBy != actor.UserID {
		s.notify(ctx, notification.CreateNotificationRequest{
			ProjectID:   actor.ProjectID,
			RecipientID: updated.CreatedBy,
			SenderID:    &actor.UserID,
			Type:        notification.TypeTaskCompleted,
			Title:       "Task completed",
			Message:     fmt.Sprintf("%s completed \"%s\"", actor.Email, updated.Title),
			Data:        map[string]interface{}{"task_id": updated.ID},
		})
	}

	return s.toResponse(updated), nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, actor project.Actor, id string) error {
	if err := requireTaskAccess(actor); err != nil {
		return err
	}
	t, err := s.repo.GetByID(ctx, actor.ProjectID, id)
	if err != nil {
		return err
	}
	if !actor.Can(project.PermissionTaskManage) && t.CreatedBy != actor.UserID {
		return task.ErrTaskAccessDenied
	}

	if err := s.repo.Delete(ctx, actor.ProjectID, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	for _, a := range t.Attachments {
		if err := s.files.DeleteFile(ctx, a.FilePath); err != nil {
			slog.Warn("failed to delete attachment file", "path", a.FilePath, "error", err)
		}
	}

	slog.Info("task deleted", "task_id", id, "deleted_by", actor.UserID)
	return nil
}

func (s *TaskServiceImpl) AddChecklistItem(ctx context.Context, actor project.Actor, taskID string, req task.ChecklistItemRequest) (task.ChecklistItemResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.ChecklistItemResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return task.ChecklistItemResponse{}, err
	}
	t, err := s.loadModifiable(ctx, actor, taskID)
	if err != nil {
		return task.ChecklistItemResponse{}, err
	}

	position := len(t.Checklist)
	if req.Position != nil {
		position = *req.Position
	}
	item, err := s.repo.AddChecklistItem(ctx, task.ChecklistItem{TaskID: t.ID, Title: req.Title, Position: position})
	if err != nil {
		return task.ChecklistItemResponse{}, fmt.Errorf("failed to add checklist item: %w", err)
	}
	return task.NewChecklistItemResponse(item), nil
}

func (s *TaskServiceImpl) UpdateChecklistItem(ctx context.Context, actor project.Actor, taskID, itemID string, req task.UpdateChecklistItemRequest) (task.ChecklistItemResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.ChecklistItemResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return task.ChecklistItemResponse{}, err
	}
	if _, err := s.loadModifiable(ctx, actor, taskID); err != nil {
		return task.ChecklistItemResponse{}, err
	}

	item, err := s.repo.GetChecklistItem(ctx, taskID, itemID)
	if err != nil {
		return task.ChecklistItemResponse{}, err
	}
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.IsDone != nil {
		item.IsDone = *req.IsDone
	}
	if req.Position != nil {
		item.Position = *req.Position
	}

	item, err = s.repo.UpdateChecklistItem(ctx, item)
	if err != nil {
		return task.ChecklistItemResponse{}, fmt.Errorf("failed to update checklist item: %w", err)
	}
	return task.NewChecklistItemResponse(item), nil
}

func (s *TaskServiceImpl) DeleteChecklistItem(ctx context.Context, actor project.Actor, taskID, itemID string) error {
	if err := requireTaskAccess(actor); err != nil {
		return err
	}
	if _, err := s.loadModifiable(ctx, actor, taskID); err != nil {
		return err
	}
	return s.repo.DeleteChecklistItem(ctx, taskID, itemID)
}

func (s *TaskServiceImpl) UploadAttachment(ctx context.Context, actor project.Actor, taskID string, r io.Reader, filename string) (task.AttachmentResponse, error) {
	if err := requireTaskAccess(actor); err != nil {
		return task.AttachmentResponse{}, err
	}
	t, err := s.loadModifiable(ctx, actor, taskID)
	if err != nil {
		return task.AttachmentResponse{}, err
	}

	stored, err := s.files.UploadTaskAttachment(ctx, actor.ProjectID, t.ID, r, filename)
	if err != nil {
		return task.AttachmentResponse{}, err
	}

	a, err := s.repo.AddAttachment(ctx, task.Attachment{
		TaskID:      t.ID,
		FilePath:    stored.Path,
		FileName:    stored.FileName,
		ContentType: stored.ContentType,
		Size:        stored.Size,
		UploadedBy:  actor.UserID,
	})
	if err != nil {
		if delErr := s.files.DeleteFile(ctx, stored.Path); delErr != nil {
			slog.Warn("failed to clean up attachment file", "path", stored.Path, "error", delErr)
		}
		return task.AttachmentResponse{}, fmt.Errorf("failed to save attachment: %w", err)
	}

	slog.Info("attachment uploaded", "task_id", t.ID, "attachment_id", a.ID, "size", a.Size)
	return task.NewAttachmentResponse(a, s.files.URL(a.FilePath)), nil
}

func (s *TaskServiceImpl) DeleteAttachment(ctx context.Context, actor project.Actor, taskID, attachmentID string) error {
	if err := requireTaskAccess(actor); err != nil {
		return err
	}
	if _, err := s.loadModifiable(ctx, actor, taskID); err != nil {
		return err
	}

	a, err := s.repo.GetAttachment(ctx, taskID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAttachment(ctx, taskID, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if err := s.files.DeleteFile(ctx, a.FilePath); err != nil {
		slog.Warn("failed to delete attachment file", "path", a.FilePath, "error", err)
	}
	return nil
}

func (s *TaskServiceImpl) SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	due, err := s.repo.ListDueWithin(ctx, now, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("failed to list due tasks: %w", err)
	}

	sent := 0
	for _, t := range due {
		if t.AssigneeID == nil {
			continue
		}
		s.notify(ctx, notification.CreateNotificationRequest{
			ProjectID:   t.ProjectID,
			RecipientID: *t.AssigneeID,
			Type:        notification.TypeTaskDeadline,
			Title:       "Task due soon",
			Message:     fmt.Sprintf("\"%s\" is due %s", t.Title, t.Deadline.Format(time.RFC3339)),
			Data:        map[string]interface{}{"task_id": t.ID},
		})
		if err := s.repo.MarkReminderSent(ctx, t.ID, now); err != nil {
			slog.Error("failed to mark reminder sent", "task_id", t.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *TaskServiceImpl) loadModifiable(ctx context.Context, actor project.Actor, id string) (task.Task, error) {
	t, err := s.repo.GetByID(ctx, actor.ProjectID, id)
	if err != nil {
		return task.Task{}, err
	}
	if !canModify(actor, t) {
		return task.Task{}, task.ErrTaskAccessDenied
	}
	return t, nil
}

// checkAssignee requires the assignee to be a project member. Only task managers may assign others.
func (s *TaskServiceImpl) checkAssignee(ctx context.Context, actor project.Actor, assigneeID *string) error {
	if assigneeID == nil {
		return nil
	}
	if *assigneeID != actor.UserID && !actor.Can(project.PermissionTaskManage) {
		return project.ErrInsufficientRole
	}
	if _, err := s.members.Get(ctx, actor.ProjectID, *assigneeID); err != nil {
		if errors.Is(err, project.ErrMemberNotFound) {
			return task.ErrAssigneeNotMember
		}
		return fmt.Errorf("failed to check assignee: %w", err)
	}
	return nil
}

func (s *TaskServiceImpl) toResponse(t task.Task) task.TaskResponse {
	return task.NewTaskResponse(t, s.now(), s.files.URL)
}

func (s *TaskServiceImpl) notifyAssigned(ctx context.Context, actor project.Actor, t task.Task) {
	s.notify(ctx, notification.CreateNotificationRequest{
		ProjectID:   actor.ProjectID,
		RecipientID: *t.AssigneeID,
		SenderID:    &actor.UserID,
		Type:        notification.TypeTaskAssigned,
		Title:       "New task assigned",
		Message:     fmt.Sprintf("%s assigned you \"%s\"", actor.Email, t.Title),
		Data:        map[string]interface{}{"task_id": t.ID},
	})
}

func (s *TaskServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		slog.Error("queue notification failed", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
