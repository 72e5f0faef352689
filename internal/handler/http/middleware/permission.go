package middleware

import (
	"net/http"

	"github.com/worktally/worktally-backend/internal/domain/auth"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

// RequireProject rejects tokens issued without an active project.
func RequireProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}
		if actor.ProjectID == "" {
			response.HandleError(w, project.ErrProjectRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks the actor's project role against the permission table.
func RequirePermission(permission project.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			if !actor.Can(permission) {
				response.Forbidden(w, "Insufficient permissions: required '"+string(permission)+"'")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
