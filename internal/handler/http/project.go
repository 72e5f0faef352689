package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

type ProjectHandler interface {
	ListMine(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	GetCurrent(w http.ResponseWriter, r *http.Request)
	UpdateCurrent(w http.ResponseWriter, r *http.Request)
	DeleteCurrent(w http.ResponseWriter, r *http.Request)

	ListMembers(w http.ResponseWriter, r *http.Request)
	AddMember(w http.ResponseWriter, r *http.Request)
	UpdateMemberRole(w http.ResponseWriter, r *http.Request)
	RemoveMember(w http.ResponseWriter, r *http.Request)

	AssignManager(w http.ResponseWriter, r *http.Request)
	ListReports(w http.ResponseWriter, r *http.Request)
	GetChain(w http.ResponseWriter, r *http.Request)
}

type projectHandlerImpl struct {
	projectService project.ProjectService
}

func NewProjectHandler(projectService project.ProjectService) ProjectHandler {
	return &projectHandlerImpl{projectService: projectService}
}

// GET /api/v1/projects
func (h *projectHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	projects, err := h.projectService.ListMine(r.Context(), actor.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, projects)
}

// POST /api/v1/projects
func (h *projectHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req project.CreateProjectRequest
	if !decodeJSON(w, r, &req, "CreateProject") {
		return
	}
	created, err := h.projectService.Create(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Project created", created)
}

// GET /api/v1/projects/current
func (h *projectHandlerImpl) GetCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	p, err := h.projectService.GetCurrent(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, p)
}

// PUT /api/v1/projects/current
func (h *projectHandlerImpl) UpdateCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req project.UpdateProjectRequest
	if !decodeJSON(w, r, &req, "UpdateProject") {
		return
	}
	p, err := h.projectService.UpdateCurrent(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Project updated", p)
}

// DELETE /api/v1/projects/current
func (h *projectHandlerImpl) DeleteCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.projectService.DeleteCurrent(r.Context(), actor); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Project deleted", nil)
}

// GET /api/v1/projects/current/members
func (h *projectHandlerImpl) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	members, err := h.projectService.ListMembers(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, members)
}

// POST /api/v1/projects/current/members
func (h *projectHandlerImpl) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req project.AddMemberRequest
	if !decodeJSON(w, r, &req, "AddMember") {
		return
	}
	member, err := h.projectService.AddMember(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Member added", member)
}

// PUT /api/v1/members/{userID}/role
func (h *projectHandlerImpl) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req project.UpdateMemberRoleRequest
	if !decodeJSON(w, r, &req, "UpdateMemberRole") {
		return
	}
	member, err := h.projectService.UpdateMemberRole(r.Context(), actor, chi.URLParam(r, "userID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Role updated", member)
}

// DELETE /api/v1/members/{userID}
func (h *projectHandlerImpl) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.projectService.RemoveMember(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Member removed", nil)
}

// PUT /api/v1/members/{userID}/manager
func (h *projectHandlerImpl) AssignManager(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req project.AssignManagerRequest
	if !decodeJSON(w, r, &req, "AssignManager") {
		return
	}
	member, err := h.projectService.AssignManager(r.Context(), actor, chi.URLParam(r, "userID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Manager updated", member)
}

// GET /api/v1/members/{userID}/reports
func (h *projectHandlerImpl) ListReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	reports, err := h.projectService.ListReports(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, reports)
}

// GET /api/v1/members/{userID}/chain
func (h *projectHandlerImpl) GetChain(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	chain, err := h.projectService.GetChain(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, chain)
}
