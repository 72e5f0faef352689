package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/worktally/worktally-backend/internal/domain/auth"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
)

type actorKey struct{}

// RevocationChecker reports access tokens blacklisted at logout.
type RevocationChecker interface {
	IsTokenRevoked(token string) bool
}

// AuthRequired accepts only unrevoked access tokens and stores the caller's Actor in the context.
// It must run after jwtauth.Verifier.
func AuthRequired(revoked RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != jwt.TokenTypeAccess {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if raw := jwtauth.TokenFromHeader(r); raw != "" && revoked.IsTokenRevoked(raw) {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			actor, ok := actorFromClaims(claims)
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		}
		return http.HandlerFunc(hfn)
	}
}

func actorFromClaims(claims map[string]interface{}) (project.Actor, bool) {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return project.Actor{}, false
	}
	email, _ := claims["email"].(string)
	projectID, _ := claims["project_id"].(string)
	role, _ := claims["role"].(string)

	return project.Actor{
		UserID:    userID,
		Email:     email,
		ProjectID: projectID,
		Role:      project.Role(role),
	}, true
}

func WithActor(ctx context.Context, actor project.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the Actor stored by AuthRequired.
func ActorFromContext(ctx context.Context) (project.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(project.Actor)
	return actor, ok
}
