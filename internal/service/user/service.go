package user

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/service/file"
)

const avatarDir = "avatars"

type UserServiceImpl struct {
	users user.UserRepository
	files file.FileService
}

func NewUserService(users user.UserRepository, files file.FileService) *UserServiceImpl {
	return &UserServiceImpl{users: users, files: files}
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID string) (user.UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.NewUserResponse(u), nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID string, req user.UpdateProfileRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.users.UpdateProfile(ctx, userID, req)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.NewUserResponse(u), nil
}

// UpdateSchedule replaces the daily target and work days used for balance targets.
func (s *UserServiceImpl) UpdateSchedule(ctx context.Context, userID string, req user.UpdateScheduleRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.users.UpdateSchedule(ctx, userID, req.ToScheduleConfig())
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.NewUserResponse(u), nil
}

func (s *UserServiceImpl) UploadAvatar(ctx context.Context, userID string, f multipart.File, header *multipart.FileHeader) (user.UserResponse, error) {
	if header.Size > file.MaxAvatarSize {
		return user.UserResponse{}, user.ErrAvatarTooLarge
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.UserResponse{}, err
	}

	stored, err := s.files.UploadAvatar(ctx, userID, f, header.Filename)
	if err != nil {
		return user.UserResponse{}, err
	}

	url := s.files.URL(stored)
	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		_ = s.files.DeleteFile(ctx, stored)
		return user.UserResponse{}, fmt.Errorf("update avatar: %w", err)
	}

	if current.AvatarURL != nil {
		s.deletePreviousAvatar(ctx, *current.AvatarURL)
	}

	current.AvatarURL = &url
	return user.NewUserResponse(current), nil
}

// deletePreviousAvatar removes an avatar we stored ourselves. External URLs (Google pictures) are left alone.
func (s *UserServiceImpl) deletePreviousAvatar(ctx context.Context, previousURL string) {
	base := strings.TrimSuffix(s.files.URL(avatarDir), avatarDir)
	key, ok := strings.CutPrefix(previousURL, base)
	if !ok || !strings.HasPrefix(key, avatarDir+"/") {
		return
	}
	if err := s.files.DeleteFile(ctx, key); err != nil {
		slog.Warn("delete previous avatar failed", "url", previousURL, "error", err)
	}
}
