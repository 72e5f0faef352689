package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

const maxChecklistItems = 100

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Deadline    *string  `json:"deadline,omitempty"`
	AssigneeID  *string  `json:"assignee_id,omitempty"`
	Checklist   []string `json:"checklist,omitempty"`

	deadline *time.Time
}

func (r *CreateTaskRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Title = strings.TrimSpace(r.Title)
	validateTitle(&errs, "title", r.Title)
	validateDescription(&errs, r.Description)

	if r.Status == "" {
		r.Status = StatusTodo
	} else if !r.Status.IsValid() {
		errs.Add("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}
	if r.Deadline != nil {
		if d, ok := validator.IsValidDateTime(*r.Deadline); ok {
			r.deadline = &d
		} else {
			errs.Add("deadline", "deadline must be an RFC 3339 timestamp")
		}
	}
	if r.AssigneeID != nil && !validator.IsValidUUID(*r.AssigneeID) {
		errs.Add("assignee_id", "assignee_id must be a valid UUID")
	}
	if len(r.Checklist) > maxChecklistItems {
		errs.Add("checklist", "a task may have at most 100 checklist items")
	}
	for _, item := range r.Checklist {
		if validator.IsEmpty(item) || len(item) > 255 {
			errs.Add("checklist", "checklist items must be 1-255 characters")
			break
		}
	}

	return errs.Err()
}

// DeadlineTime returns the parsed deadline. Call Validate first.
func (r *CreateTaskRequest) DeadlineTime() *time.Time {
	return r.deadline
}

// UpdateTaskRequest patches a task. An empty deadline or assignee_id clears the field.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`

	deadline *time.Time
}

func (r *UpdateTaskRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
		validateTitle(&errs, "title", *r.Title)
	}
	validateDescription(&errs, r.Description)
	if r.Status != nil && !r.Status.IsValid() {
		errs.Add("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}
	if r.Deadline != nil && *r.Deadline != "" {
		if d, ok := validator.IsValidDateTime(*r.Deadline); ok {
			r.deadline = &d
		} else {
			errs.Add("deadline", "deadline must be an RFC 3339 timestamp")
		}
	}
	if r.AssigneeID != nil && *r.AssigneeID != "" && !validator.IsValidUUID(*r.AssigneeID) {
		errs.Add("assignee_id", "assignee_id must be a valid UUID")
	}

	return errs.Err()
}

// Apply copies the patch onto t. Call Validate first.
func (r *UpdateTaskRequest) Apply(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.Deadline != nil {
		t.Deadline = r.deadline
		t.ReminderSentAt = nil
	}
	if r.AssigneeID != nil {
		if *r.AssigneeID == "" {
			t.AssigneeID = nil
		} else {
			id := *r.AssigneeID
			t.AssigneeID = &id
		}
	}
}

type ChecklistItemRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position,omitempty"`
}

func (r *ChecklistItemRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Title = strings.TrimSpace(r.Title)
	validateTitle(&errs, "title", r.Title)
	if r.Position != nil && *r.Position < 0 {
		errs.Add("position", "position must not be negative")
	}
	return errs.Err()
}

type UpdateChecklistItemRequest struct {
	Title    *string `json:"title,omitempty"`
	IsDone   *bool   `json:"is_done,omitempty"`
	Position *int    `json:"position,omitempty"`
}

func (r *UpdateChecklistItemRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
		validateTitle(&errs, "title", *r.Title)
	}
	if r.Position != nil && *r.Position < 0 {
		errs.Add("position", "position must not be negative")
	}
	return errs.Err()
}

type TaskFilter struct {
	Status     string `json:"status"`
	AssigneeID string `json:"assignee_id"`
	DueBefore  string `json:"due_before"`
	Overdue    bool   `json:"overdue"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`

	dueBefore *time.Time
}

func (f *TaskFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != "" && !Status(f.Status).IsValid() {
		errs.Add("status", "status must be one of TODO, IN_PROGRESS, DONE")
	}
	if f.AssigneeID != "" && f.AssigneeID != "me" && !validator.IsValidUUID(f.AssigneeID) {
		errs.Add("assignee_id", "assignee_id must be a valid UUID or \"me\"")
	}
	if f.DueBefore != "" {
		if d, ok := validator.IsValidDateTime(f.DueBefore); ok {
			f.dueBefore = &d
		} else if d, ok := validator.IsValidDate(f.DueBefore); ok {
			f.dueBefore = &d
		} else {
			errs.Add("due_before", "due_before must be a date or RFC 3339 timestamp")
		}
	}

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page > validator.MaxPage {
		errs.Add("page", fmt.Sprintf("page must not exceed %d", validator.MaxPage))
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	return errs.Err()
}

// DueBeforeTime returns the parsed due_before bound. Call Validate first.
func (f *TaskFilter) DueBeforeTime() *time.Time {
	return f.dueBefore
}

func (f *TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ChecklistItemResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	IsDone   bool   `json:"is_done"`
	Position int    `json:"position"`
}

func NewChecklistItemResponse(i ChecklistItem) ChecklistItemResponse {
	return ChecklistItemResponse{ID: i.ID, Title: i.Title, IsDone: i.IsDone, Position: i.Position}
}

type AttachmentResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	UploadedBy  string `json:"uploaded_by"`
	CreatedAt   string `json:"created_at"`
}

func NewAttachmentResponse(a Attachment, url string) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		URL:         url,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

type ChecklistProgress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

type TaskResponse struct {
	ID          string                  `json:"id"`
	ProjectID   string                  `json:"project_id"`
	Title       string                  `json:"title"`
	Description *string                 `json:"description,omitempty"`
	Status      Status                  `json:"status"`
	Deadline    *string                 `json:"deadline"`
	IsOverdue   bool                    `json:"is_overdue"`
	AssigneeID  *string                 `json:"assignee_id"`
	CreatedBy   string                  `json:"created_by"`
	Progress    ChecklistProgress       `json:"checklist_progress"`
	Checklist   []ChecklistItemResponse `json:"checklist"`
	Attachments []AttachmentResponse    `json:"attachments"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

// NewTaskResponse renders t; urlFor maps a stored attachment path to a public URL.
func NewTaskResponse(t Task, now time.Time, urlFor func(path string) string) TaskResponse {
	checklist := make([]ChecklistItemResponse, 0, len(t.Checklist))
	progress := ChecklistProgress{Total: len(t.Checklist)}
	for _, item := range t.Checklist {
		checklist = append(checklist, NewChecklistItemResponse(item))
		if item.IsDone {
			progress.Done++
		}
	}

	attachments := make([]AttachmentResponse, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		attachments = append(attachments, NewAttachmentResponse(a, urlFor(a.FilePath)))
	}

	var deadline *string
	if t.Deadline != nil {
		s := t.Deadline.Format(time.RFC3339)
		deadline = &s
	}

	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Deadline:    deadline,
		IsOverdue:   t.IsOverdue(now),
		AssigneeID:  t.AssigneeID,
		CreatedBy:   t.CreatedBy,
		Progress:    progress,
		Checklist:   checklist,
		Attachments: attachments,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

type ListTasksResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Tasks      []TaskResponse `json:"tasks"`
}

func validateTitle(errs *validator.ValidationErrors, field, title string) {
	if title == "" {
		errs.Add(field, field+" is required")
	} else if len(title) > 255 {
		errs.Add(field, field+" must not exceed 255 characters")
	}
}

func validateDescription(errs *validator.ValidationErrors, description *string) {
	if description != nil && len(*description) > 5000 {
		errs.Add("description", "description must not exceed 5000 characters")
	}
}
