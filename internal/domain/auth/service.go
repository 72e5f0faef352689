package auth

import (
	"context"
)

type AuthService interface {
	// Register creates the user, their first project (as ADMIN) and its free subscription atomically.
	Register(ctx context.Context, req RegisterRequest, session SessionTrackingRequest) (TokenResponse, error)
	Login(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	GoogleRedirect() (GoogleRedirectResponse, error)
	GoogleCallback(ctx context.Context, req GoogleCallbackRequest, session SessionTrackingRequest) (TokenResponse, error)
	// RefreshToken issues a new access token. The refresh token itself is not rotated.
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (TokenResponse, error)
	// Logout revokes the refresh token and blacklists the access token until it expires.
	Logout(ctx context.Context, refreshToken, accessToken string, accessExpiresAt int64) error
	SwitchProject(ctx context.Context, userID string, req SwitchProjectRequest) (TokenResponse, error)
}
