package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/notify"
	"github.com/campusdesk/issue-tracker/internal/observability"
	"github.com/campusdesk/issue-tracker/internal/persistence"
	"github.com/campusdesk/issue-tracker/internal/repository"
	"github.com/campusdesk/issue-tracker/internal/repository/memory"
)

// appContext holds process-wide dependencies built once per command.
type appContext struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return &appContext{cfg: cfg, logger: logger}, nil
}

// stores bundles the repositories and their backing connections.
type stores struct {
	postgres *persistence.Postgres
	users    repository.UserRepository
	issues   repository.IssueRepository
	inMemory bool
}

func (s *stores) Close() {
	s.postgres.Close()
}

// openStores connects to Postgres, or falls back to the in-memory store when no DSN is set.
func openStores(ctx context.Context, rt *appContext, migrate bool) (*stores, error) {
	pg, err := persistence.NewPostgres(ctx, rt.cfg.Postgres, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	if !pg.Enabled() {
		rt.logger.Warn("running on the in-memory store; data is lost on exit")
		mem := memory.NewStore()
		return &stores{postgres: pg, users: mem.Users(), issues: mem.Issues(), inMemory: true}, nil
	}

	if migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), rt.logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool := pg.PoolHandle()
	return &stores{
		postgres: pg,
		users:    repository.NewUserRepository(pool),
		issues:   repository.NewIssueRepository(pool),
	}, nil
}

// newNotifier picks the transport assignment notifications are handed to.
func newNotifier(rt *appContext, redis *persistence.Redis) (notify.Notifier, func() error) {
	cfg := rt.cfg
	switch cfg.Notification.Transport {
	case config.TransportRedis:
		return notify.NewRedisQueue(redis.Client, cfg.Notification.RedisQueue, rt.logger), func() error { return nil }
	case config.TransportKafka:
		producer := notify.NewKafkaProducer(cfg.Kafka, rt.logger)
		return producer, producer.Close
	default:
		return notify.NewLogNotifier(rt.logger), func() error { return nil }
	}
}
