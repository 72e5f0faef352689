package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/worktally/worktally-backend/internal/config"
	appHTTP "github.com/worktally/worktally-backend/internal/handler/http"
	"github.com/worktally/worktally-backend/internal/pkg/cron"
	"github.com/worktally/worktally-backend/internal/pkg/database"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
	"github.com/worktally/worktally-backend/internal/pkg/oauth"
	"github.com/worktally/worktally-backend/internal/pkg/sse"
	"github.com/worktally/worktally-backend/internal/pkg/storage"
	"github.com/worktally/worktally-backend/internal/repository/postgresql"
	serviceAuth "github.com/worktally/worktally-backend/internal/service/auth"
	balanceService "github.com/worktally/worktally-backend/internal/service/balance"
	calendarService "github.com/worktally/worktally-backend/internal/service/calendar"
	"github.com/worktally/worktally-backend/internal/service/file"
	notificationService "github.com/worktally/worktally-backend/internal/service/notification"
	projectService "github.com/worktally/worktally-backend/internal/service/project"
	subscriptionService "github.com/worktally/worktally-backend/internal/service/subscription"
	taskService "github.com/worktally/worktally-backend/internal/service/task"
	userService "github.com/worktally/worktally-backend/internal/service/user"
	workSessionService "github.com/worktally/worktally-backend/internal/service/worksession"
)

const (
	appName    = "worktally"
	appVersion = "v1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", appName),
		slog.String("env", cfg.App.Env),
	))

	dsn := cfg.DatabaseURL()
	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(dsn); err != nil {
			return err
		}
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	accessTTL, _ := time.ParseDuration(cfg.JWT.AccessExpiration)
	refreshTTL, _ := time.ParseDuration(cfg.JWT.RefreshExpiration)
	secureCookie := cfg.App.Env == "production"

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
		if err != nil {
			return fmt.Errorf("initialize local storage: %w", err)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	// Repositories
	tx := postgresql.NewTransactor(db)
	userRepo := postgresql.NewUserRepository(db)
	projectRepo := postgresql.NewProjectRepository(db)
	memberRepo := postgresql.NewMemberRepository(db)
	refreshTokenRepo := postgresql.NewRefreshTokenRepository(db)
	sessionRepo := postgresql.NewWorkSessionRepository(db)
	taskRepo := postgresql.NewTaskRepository(db)
	calendarRepo := postgresql.NewCalendarRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	subscriptionRepo := postgresql.NewSubscriptionRepository(db)

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, accessTTL, refreshTTL, secureCookie)
	googleService := oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)
	fileSvc := file.NewFileService(fileStorage)

	hub := sse.NewHub()
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})

	subscriptionSvc := subscriptionService.NewSubscriptionService(subscriptionRepo, memberRepo, notifSvc)
	authSvc := serviceAuth.NewAuthService(tx, userRepo, projectRepo, memberRepo, subscriptionRepo, subscriptionSvc, refreshTokenRepo, JWTService, googleService)
	userSvc := userService.NewUserService(userRepo, fileSvc)
	projectSvc := projectService.NewProjectService(tx, projectRepo, memberRepo, userRepo, subscriptionRepo, subscriptionSvc, notifSvc)
	sessionSvc := workSessionService.NewWorkSessionService(tx, sessionRepo, userRepo, memberRepo, projectSvc, notifSvc)
	balanceSvc := balanceService.NewBalanceService(userRepo, sessionRepo, projectSvc)
	calendarSvc := calendarService.NewCalendarService(calendarRepo, userRepo, projectSvc, balanceSvc)
	taskSvc := taskService.NewTaskService(tx, taskRepo, memberRepo, fileSvc, notifSvc)

	// Background jobs
	scheduler := cron.NewScheduler()
	cron.NewJobs(subscriptionSvc, sessionSvc, taskSvc).RegisterJobs(scheduler)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AppName:        appName,
			Version:        appVersion,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		JWTService,
		subscriptionSvc,
		appHTTP.Handlers{
			Auth:         appHTTP.NewAuthHandler(JWTService, authSvc, cfg.App.FrontendURL, secureCookie),
			User:         appHTTP.NewUserHandler(userSvc),
			Project:      appHTTP.NewProjectHandler(projectSvc),
			WorkSession:  appHTTP.NewWorkSessionHandler(sessionSvc),
			Balance:      appHTTP.NewBalanceHandler(balanceSvc),
			Task:         appHTTP.NewTaskHandler(taskSvc),
			Calendar:     appHTTP.NewCalendarHandler(calendarSvc),
			Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService),
			Subscription: appHTTP.NewSubscriptionHandler(subscriptionSvc),
			File:         appHTTP.NewFileHandler(fileSvc),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	// SSE streams hold connections open; closing the hub ends them so Shutdown can drain.
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	scheduler.Stop()
	notifSvc.Stop()

	slog.Info("Server stopped")
	return nil
}
