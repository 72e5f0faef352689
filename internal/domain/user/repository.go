package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByOAuth(ctx context.Context, provider, providerID string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	LinkGoogleAccount(ctx context.Context, userID, googleID string) error
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (User, error)
	UpdateSchedule(ctx context.Context, userID string, schedule ScheduleConfig) (User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	UpdateLastProject(ctx context.Context, userID, projectID string) error
}
