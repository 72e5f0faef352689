package auth

import "context"

// RefreshTokenRepository persists hashed refresh tokens so they can be revoked before expiry.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt int64, session SessionTrackingRequest) error
	// IsRevoked also reports unknown and expired tokens as revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
