package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/campusdesk/issue-tracker/internal/persistence"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateDown, "down", "d", false, "roll back the latest migration")
}

func runMigrate(_ *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, rt.cfg.Postgres, rt.logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	if !pg.Enabled() {
		return errors.New("migrate requires POSTGRES_DSN")
	}

	if migrateDown {
		return persistence.RollbackMigration(ctx, pg.PoolHandle(), rt.logger)
	}
	return persistence.RunMigrations(ctx, pg.PoolHandle(), rt.logger)
}
