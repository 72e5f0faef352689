package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/internal/domain/task"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
	"github.com/worktally/worktally-backend/internal/service/file"
)

type TaskHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	AddChecklistItem(w http.ResponseWriter, r *http.Request)
	UpdateChecklistItem(w http.ResponseWriter, r *http.Request)
	DeleteChecklistItem(w http.ResponseWriter, r *http.Request)

	UploadAttachment(w http.ResponseWriter, r *http.Request)
	DeleteAttachment(w http.ResponseWriter, r *http.Request)
}

type taskHandlerImpl struct {
	taskService task.Service
}

func NewTaskHandler(taskService task.Service) TaskHandler {
	return &taskHandlerImpl{taskService: taskService}
}

// POST /api/v1/tasks
func (h *taskHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req task.CreateTaskRequest
	if !decodeJSON(w, r, &req, "CreateTask") {
		return
	}
	created, err := h.taskService.Create(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Task created", created)
}

// GET /api/v1/tasks/{id}
func (h *taskHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	t, err := h.taskService.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, t)
}

// GET /api/v1/tasks?status=&assignee_id=&due_before=&overdue=&page=&limit=
func (h *taskHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := task.TaskFilter{
		Status:     q.Get("status"),
		AssigneeID: q.Get("assignee_id"),
		DueBefore:  q.Get("due_before"),
		Overdue:    getBoolQueryParam(r, "overdue", false),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
	tasks, err := h.taskService.List(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, tasks)
}

// PATCH /api/v1/tasks/{id}
func (h *taskHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req task.UpdateTaskRequest
	if !decodeJSON(w, r, &req, "UpdateTask") {
		return
	}
	updated, err := h.taskService.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Task updated", updated)
}

// DELETE /api/v1/tasks/{id}
func (h *taskHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.taskService.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Task deleted", nil)
}

// POST /api/v1/tasks/{id}/checklist
func (h *taskHandlerImpl) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req task.ChecklistItemRequest
	if !decodeJSON(w, r, &req, "AddChecklistItem") {
		return
	}
	item, err := h.taskService.AddChecklistItem(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Checklist item added", item)
}

// PATCH /api/v1/tasks/{id}/checklist/{itemID}
func (h *taskHandlerImpl) UpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req task.UpdateChecklistItemRequest
	if !decodeJSON(w, r, &req, "UpdateChecklistItem") {
		return
	}
	item, err := h.taskService.UpdateChecklistItem(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Checklist item updated", item)
}

// DELETE /api/v1/tasks/{id}/checklist/{itemID}
func (h *taskHandlerImpl) DeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.taskService.DeleteChecklistItem(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "itemID")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Checklist item deleted", nil)
}

// UploadAttachment stores the "file" form field on the task
// POST /api/v1/tasks/{id}/attachments
func (h *taskHandlerImpl) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, file.MaxAttachmentSize+(1<<20))
	if err := r.ParseMultipartForm(file.MaxAttachmentSize); err != nil {
		slog.Error("UploadAttachment parse error", "error", err)
		response.BadRequest(w, "Invalid multipart form", nil)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required", nil)
		return
	}
	defer f.Close()

	attachment, err := h.taskService.UploadAttachment(r.Context(), actor, chi.URLParam(r, "id"), f, header.Filename)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Attachment uploaded", attachment)
}

// DELETE /api/v1/tasks/{id}/attachments/{attachmentID}
func (h *taskHandlerImpl) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.taskService.DeleteAttachment(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Attachment deleted", nil)
}
