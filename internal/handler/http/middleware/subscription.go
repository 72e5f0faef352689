package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/worktally/worktally-backend/internal/domain/auth"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

// FeatureChecker is the part of the subscription service the middleware needs.
type FeatureChecker interface {
	HasFeature(ctx context.Context, projectID, featureCode string) (bool, error)
}

// SubscriptionMiddleware gates route groups on the project's plan.
type SubscriptionMiddleware struct {
	features FeatureChecker
	now      func() time.Time
}

func NewSubscriptionMiddleware(features FeatureChecker) *SubscriptionMiddleware {
	return &SubscriptionMiddleware{features: features, now: time.Now}
}

// RequireFeature passes when the token's features claim lists featureCode and the
// subscription period it was issued for has not ended. Otherwise the database decides.
func (m *SubscriptionMiddleware) RequireFeature(featureCode string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			if actor.ProjectID == "" {
				response.Forbidden(w, "no project selected")
				return
			}

			_, claims, _ := jwtauth.FromContext(r.Context())
			if m.claimsGrant(claims, featureCode) {
				next.ServeHTTP(w, r)
				return
			}

			hasFeature, err := m.features.HasFeature(r.Context(), actor.ProjectID, featureCode)
			if err != nil {
				slog.Error("feature check failed", "project_id", actor.ProjectID, "feature", featureCode, "error", err)
				response.InternalServerError(w, "failed to check feature access")
				return
			}
			if !hasFeature {
				response.HandleError(w, subscription.ErrFeatureNotAvailable)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *SubscriptionMiddleware) claimsGrant(claims map[string]interface{}, featureCode string) bool {
	if claims == nil {
		return false
	}
	if exp, ok := claims["subscription_expires_at"].(float64); ok {
		if !m.now().Before(time.Unix(int64(exp), 0)) {
			return false
		}
	}

	features, ok := claims["features"].([]interface{})
	if !ok {
		return false
	}
	for _, f := range features {
		if code, ok := f.(string); ok && code == featureCode {
			return true
		}
	}
	return false
}
