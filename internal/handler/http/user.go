package http

import (
	"log/slog"
	"net/http"

	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
	"github.com/worktally/worktally-backend/internal/service/file"
)

type UserHandler interface {
	GetProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	UpdateSchedule(w http.ResponseWriter, r *http.Request)
	UploadAvatar(w http.ResponseWriter, r *http.Request)
}

type userHandlerImpl struct {
	userService user.UserService
}

func NewUserHandler(userService user.UserService) UserHandler {
	return &userHandlerImpl{userService: userService}
}

// GetProfile returns the authenticated user
// GET /api/v1/users/me
func (h *userHandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), actor.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, profile)
}

// UpdateProfile changes name and timezone
// PUT /api/v1/users/me
func (h *userHandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !decodeJSON(w, r, &req, "UpdateProfile") {
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Profile updated", profile)
}

// UpdateSchedule changes the daily target and work days
// PUT /api/v1/users/me/schedule
func (h *userHandlerImpl) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req user.UpdateScheduleRequest
	if !decodeJSON(w, r, &req, "UpdateSchedule") {
		return
	}

	profile, err := h.userService.UpdateSchedule(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Schedule updated", profile)
}

// UploadAvatar stores a new avatar from the "avatar" form field
// POST /api/v1/users/me/avatar
func (h *userHandlerImpl) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, file.MaxAvatarSize+(1<<20))
	if err := r.ParseMultipartForm(file.MaxAvatarSize); err != nil {
		slog.Error("UploadAvatar parse error", "error", err)
		response.BadRequest(w, "Invalid multipart form", nil)
		return
	}

	f, header, err := r.FormFile("avatar")
	if err != nil {
		response.BadRequest(w, "avatar file is required", nil)
		return
	}
	defer f.Close()

	profile, err := h.userService.UploadAvatar(r.Context(), actor.UserID, f, header)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Avatar updated", profile)
}
