package persistence

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFS embed.FS

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	logger *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(format, v...)
}

func prepareGoose(logger *zap.Logger) error {
	goose.SetBaseFS(migrationFS)
	goose.SetTableName("schema_migrations")
	goose.SetLogger(gooseLogger{logger: logger.Sugar()})
	return goose.SetDialect("postgres")
}

// RunMigrations applies every pending migration embedded in the binary.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}
	if err := prepareGoose(logger); err != nil {
		return fmt.Errorf("goose setup: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
	return nil
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		return fmt.Errorf("rollback requires POSTGRES_DSN")
	}
	if err := prepareGoose(logger); err != nil {
		return fmt.Errorf("goose setup: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	logger.Info("rolled back latest migration")
	return nil
}
