package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/campusdesk/issue-tracker/internal/api/http"
	"github.com/campusdesk/issue-tracker/internal/api/http/handlers"
	"github.com/campusdesk/issue-tracker/internal/auth"
	"github.com/campusdesk/issue-tracker/internal/events"
	"github.com/campusdesk/issue-tracker/internal/observability"
	"github.com/campusdesk/issue-tracker/internal/persistence"
	"github.com/campusdesk/issue-tracker/internal/seed"
	"github.com/campusdesk/issue-tracker/internal/service"
	"github.com/campusdesk/issue-tracker/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	logger := rt.logger
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, rt, rt.cfg.Postgres.RunMigrations)
	if err != nil {
		return err
	}
	defer st.Close()

	redis := persistence.NewRedis(rt.cfg.Redis, logger)
	defer redis.Close()

	notifier, closeNotifier := newNotifier(rt, redis)
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Warn("closing notifier", zap.Error(err))
		}
	}()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, notifier, logger, rt.cfg.Notification))

	authService := service.NewAuthService(rt.cfg.Auth, service.AuthDependencies{UserRepo: st.users})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:  st.issues,
		UserRepo:   st.users,
		Dispatcher: dispatcher,
		Location:   rt.cfg.App.Location(),
		Logger:     rt.logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), st.users)

	if st.inMemory {
		if _, err := seed.Users(ctx, authService, seed.DefaultAccounts, logger); err != nil {
			return err
		}
	}

	var checks []handlers.HealthCheck
	if st.postgres.Enabled() {
		checks = append(checks, handlers.HealthCheck{Name: "postgres", Pinger: st.postgres})
	}
	if redis.Enabled() {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Pinger: redis})
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               rt.cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:              rt.cfg.App.RequestTimeout(),
		ExposeInternalErrors: !rt.cfg.App.IsProduction(),
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(rt.cfg.App.Name, rt.cfg.App.Version, metrics, checks...),
		Auth:           handlers.NewAuthHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		AuthMiddleware: authMiddleware,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", rt.cfg.App.Addr()))
		errCh <- app.Listen(rt.cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	return app.ShutdownWithTimeout(shutdownTimeout)
}
