package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

type WorkSessionHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)

	CreateManual(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type workSessionHandlerImpl struct {
	sessionService worksession.Service
}

func NewWorkSessionHandler(sessionService worksession.Service) WorkSessionHandler {
	return &workSessionHandlerImpl{sessionService: sessionService}
}

// POST /api/v1/work-sessions/clock-in
func (h *workSessionHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req worksession.ClockInRequest
	if !decodeOptionalJSON(w, r, &req, "ClockIn") {
		return
	}
	session, err := h.sessionService.ClockIn(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Clocked in", session)
}

// POST /api/v1/work-sessions/clock-out
func (h *workSessionHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	session, err := h.sessionService.ClockOut(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Clocked out", session)
}

// POST /api/v1/work-sessions/breaks/start
func (h *workSessionHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	session, err := h.sessionService.StartBreak(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Break started", session)
}

// POST /api/v1/work-sessions/breaks/end
func (h *workSessionHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	session, err := h.sessionService.EndBreak(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Break ended", session)
}

// GET /api/v1/work-sessions/status
func (h *workSessionHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	status, err := h.sessionService.Status(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, status)
}

// POST /api/v1/work-sessions
func (h *workSessionHandlerImpl) CreateManual(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req worksession.SessionRequest
	if !decodeJSON(w, r, &req, "CreateManualSession") {
		return
	}
	session, err := h.sessionService.CreateManual(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Session created", session)
}

// GET /api/v1/work-sessions?user_id=&start_date=&end_date=&is_manual=&page=&limit=
func (h *workSessionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := worksession.SessionFilter{
		UserID:    q.Get("user_id"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		IsManual:  getOptionalBoolQueryParam(r, "is_manual"),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
	}
	sessions, err := h.sessionService.List(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, sessions)
}

// PUT /api/v1/work-sessions/{id}
func (h *workSessionHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req worksession.SessionRequest
	if !decodeJSON(w, r, &req, "UpdateSession") {
		return
	}
	session, err := h.sessionService.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Session updated", session)
}

// DELETE /api/v1/work-sessions/{id}
func (h *workSessionHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.sessionService.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Session deleted", nil)
}
