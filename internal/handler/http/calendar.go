package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/internal/domain/calendar"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

type CalendarHandler interface {
	View(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Import(w http.ResponseWriter, r *http.Request)
}

type calendarHandlerImpl struct {
	calendarService calendar.Service
}

func NewCalendarHandler(calendarService calendar.Service) CalendarHandler {
	return &calendarHandlerImpl{calendarService: calendarService}
}

// GET /api/v1/calendar?user_id=&start_date=&end_date=
func (h *calendarHandlerImpl) View(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	view, err := h.calendarService.View(r.Context(), actor, calendar.ViewFilter{
		UserID:    q.Get("user_id"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, view)
}

// POST /api/v1/calendar/entries
func (h *calendarHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req calendar.EntryRequest
	if !decodeJSON(w, r, &req, "CreateCalendarEntry") {
		return
	}
	entry, err := h.calendarService.Create(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Calendar entry created", entry)
}

// PUT /api/v1/calendar/entries/{id}
func (h *calendarHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req calendar.EntryRequest
	if !decodeJSON(w, r, &req, "UpdateCalendarEntry") {
		return
	}
	entry, err := h.calendarService.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Calendar entry updated", entry)
}

// DELETE /api/v1/calendar/entries/{id}
func (h *calendarHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.calendarService.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Calendar entry deleted", nil)
}

// Import upserts events from an external calendar feed
// POST /api/v1/calendar/external/import
func (h *calendarHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req calendar.ImportRequest
	if !decodeJSON(w, r, &req, "ImportCalendar") {
		return
	}
	result, err := h.calendarService.ImportExternal(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Calendar imported", result)
}
