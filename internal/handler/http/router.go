package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/handler/http/middleware"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
)

// RouterConfig carries the settings the router needs from the app config
type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

// Handlers groups every HTTP handler mounted by the router
type Handlers struct {
	Auth         AuthHandler
	User         UserHandler
	Project      ProjectHandler
	WorkSession  WorkSessionHandler
	Balance      BalanceHandler
	Task         TaskHandler
	Calendar     CalendarHandler
	Notification NotificationHandler
	Subscription SubscriptionHandler
	File         FileHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, features middleware.FeatureChecker, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Get("/uploads/*", h.File.Serve)

	subscriptionMW := middleware.NewSubscriptionMiddleware(features)
	requireFeature := subscriptionMW.RequireFeature

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)
			r.Route("/oauth/callback", func(r chi.Router) {
				r.Get("/google", h.Auth.OAuthCallbackGoogle)
			})

			r.Route("/login", func(r chi.Router) {
				r.Post("/", h.Auth.Login)
				r.Route("/oauth", func(r chi.Router) {
					r.Get("/google", h.Auth.LoginWithGoogle)
				})
			})
		})

		r.Get("/subscription/plans", h.Subscription.GetPlans)

		// EventSource authenticates with the SSE token query parameter
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Post("/auth/switch-project", h.Auth.SwitchProject)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", h.User.GetProfile)
				r.Put("/", h.User.UpdateProfile)
				r.Put("/schedule", h.User.UpdateSchedule)
				r.Post("/avatar", h.User.UploadAvatar)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Delete("/{id}", h.Notification.Delete)
				r.Get("/preferences", h.Notification.GetPreferences)
				r.Put("/preferences", h.Notification.UpdatePreference)
				r.Get("/sse-token", h.Notification.GetSSEToken)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.Project.ListMine)
				r.Post("/", h.Project.Create)

				r.Route("/current", func(r chi.Router) {
					r.Use(middleware.RequireProject)
					r.Get("/", h.Project.GetCurrent)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(project.PermissionProjectManage))
						r.Put("/", h.Project.UpdateCurrent)
						r.Delete("/", h.Project.DeleteCurrent)
					})

					r.Route("/members", func(r chi.Router) {
						r.With(middleware.RequirePermission(project.PermissionMemberView)).Get("/", h.Project.ListMembers)
						r.With(middleware.RequirePermission(project.PermissionMemberManage)).Post("/", h.Project.AddMember)
					})
				})
			})

			// Everything below acts on the active project
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireProject)

				r.Route("/members/{userID}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(project.PermissionMemberManage))
						r.Put("/role", h.Project.UpdateMemberRole)
						r.Delete("/", h.Project.RemoveMember)
					})

					r.Group(func(r chi.Router) {
						r.Use(requireFeature(subscription.FeatureHierarchy))
						r.With(middleware.RequirePermission(project.PermissionHierarchyEdit)).Put("/manager", h.Project.AssignManager)
						r.With(middleware.RequirePermission(project.PermissionMemberView)).Get("/reports", h.Project.ListReports)
						r.With(middleware.RequirePermission(project.PermissionMemberView)).Get("/chain", h.Project.GetChain)
					})
				})

				r.Route("/subscription", func(r chi.Router) {
					r.Get("/", h.Subscription.GetCurrent)
					r.With(middleware.RequirePermission(project.PermissionSubscriptionManage)).Put("/tier", h.Subscription.ChangeTier)
				})

				r.Route("/work-sessions", func(r chi.Router) {
					r.Use(requireFeature(subscription.FeatureAttendance))
					r.Use(middleware.RequirePermission(project.PermissionAttendanceTrackOwn))

					r.Post("/clock-in", h.WorkSession.ClockIn)
					r.Post("/clock-out", h.WorkSession.ClockOut)
					r.Post("/breaks/start", h.WorkSession.StartBreak)
					r.Post("/breaks/end", h.WorkSession.EndBreak)
					r.Get("/status", h.WorkSession.Status)

					r.Get("/", h.WorkSession.List)
					r.Post("/", h.WorkSession.CreateManual)
					r.Put("/{id}", h.WorkSession.Update)
					r.Delete("/{id}", h.WorkSession.Delete)
				})

				r.Route("/balance", balanceRoutes(h.Balance, requireFeature))

				r.Route("/tasks", func(r chi.Router) {
					r.Use(requireFeature(subscription.FeatureTasks))

					r.Get("/", h.Task.List)
					r.Post("/", h.Task.Create)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.Task.Get)
						r.Patch("/", h.Task.Update)
						r.Delete("/", h.Task.Delete)

						r.Post("/checklist", h.Task.AddChecklistItem)
						r.Patch("/checklist/{itemID}", h.Task.UpdateChecklistItem)
						r.Delete("/checklist/{itemID}", h.Task.DeleteChecklistItem)

						r.Post("/attachments", h.Task.UploadAttachment)
						r.Delete("/attachments/{attachmentID}", h.Task.DeleteAttachment)
					})
				})

				r.Route("/calendar", func(r chi.Router) {
					r.Use(requireFeature(subscription.FeatureCalendar))

					r.Get("/", h.Calendar.View)
					r.Post("/entries", h.Calendar.Create)
					r.Put("/entries/{id}", h.Calendar.Update)
					r.Delete("/entries/{id}", h.Calendar.Delete)
					r.Post("/external/import", h.Calendar.Import)
				})
			})
		})
	})
	return r
}

// balanceRoutes needs the attendance feature; reports additionally need the reports feature.
func balanceRoutes(h BalanceHandler, requireFeature func(featureCode string) func(http.Handler) http.Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Use(requireFeature(subscription.FeatureAttendance))
		r.Get("/today", h.Today)
		r.With(requireFeature(subscription.FeatureReports)).Get("/report", h.Report)
	}
}
