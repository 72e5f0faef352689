package user

import (
	"context"
	"mime/multipart"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (UserResponse, error)
	UpdateSchedule(ctx context.Context, userID string, req UpdateScheduleRequest) (UserResponse, error)
	UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (UserResponse, error)
}
