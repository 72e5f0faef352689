package subscription

import (
	"context"

	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
)

type Service interface {
	ListPlans() []PlanResponse
	GetCurrent(ctx context.Context, projectID string) (SubscriptionResponse, error)
	ChangeTier(ctx context.Context, actor project.Actor, req ChangeTierRequest) (SubscriptionResponse, error)

	HasFeature(ctx context.Context, projectID, featureCode string) (bool, error)
	CanAddMember(ctx context.Context, projectID string) (bool, error)
	// TokenClaims returns the claims embedded in access tokens for the project.
	TokenClaims(ctx context.Context, projectID string) (*jwt.SubscriptionClaims, error)

	// ExpireLapsed downgrades lapsed paid subscriptions to the free tier.
	ExpireLapsed(ctx context.Context) (int, error)
}
