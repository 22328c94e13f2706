package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/seed"
	"github.com/campusdesk/issue-tracker/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default operator and faculty accounts",
	RunE:  runSeed,
}

func runSeed(_ *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync() //nolint:errcheck

	ctx := context.Background()
	st, err := openStores(ctx, rt, true)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.inMemory {
		return errors.New("seed requires POSTGRES_DSN")
	}

	authService := service.NewAuthService(rt.cfg.Auth, service.AuthDependencies{UserRepo: st.users})
	res, err := seed.Users(ctx, authService, seed.DefaultAccounts, rt.logger)
	if err != nil {
		return err
	}
	rt.logger.Info("seed complete", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return nil
}
