package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/service"
	"github.com/langchou/wattgazer/internal/simulator"
)

func newSeedCmd(newLogger func() *zap.Logger) *cobra.Command {
	var email, password, name, profilesPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user with devices and a week of sample readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if profilesPath == "" {
				profilesPath = cfg.SimulatorProfiles
			}
			// seed 总是生成演示数据
			cfg.SeedDemoDevices = true

			logger := newLogger()
			defer logger.Sync()

			ctx := cmd.Context()
			db, err := repository.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			profiles, err := simulator.LoadProfiles(profilesPath)
			if err != nil {
				return err
			}

			auth := service.NewAuthService(cfg, logger,
				repository.NewUserRepository(db),
				repository.NewSessionRepository(db),
				repository.NewDeviceRepository(db),
				repository.NewReadingRepository(db),
				profiles,
			)

			user, err := auth.Register(ctx, email, password, name)
			if errors.Is(err, service.ErrEmailTaken) {
				fmt.Fprintf(cmd.OutOrStdout(), "User %s already exists, nothing to do\n", email)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created demo user %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "demo@example.com", "Demo user email")
	cmd.Flags().StringVar(&password, "password", "demo123", "Demo user password")
	cmd.Flags().StringVar(&name, "name", "Demo User", "Demo user name")
	cmd.Flags().StringVar(&profilesPath, "profiles", "", "TOML load profiles (defaults to SIMULATOR_PROFILES)")

	return cmd
}
