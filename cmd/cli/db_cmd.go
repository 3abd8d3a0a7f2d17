package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/wardenlink/internal/repository"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
	"github.com/aryan0dhankhar/wardenlink/pkg/config"
	"github.com/aryan0dhankhar/wardenlink/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			log := logger.NewLogger(cfg.LogLevel)
			if status {
				pool, err := database.NewConnectionPool(cmd.Context(), &database.Config{URL: cfg.DatabaseURL}, log)
				if err != nil {
					return err
				}
				defer pool.Close()
				return database.MigrationStatus(cmd.Context(), pool.GetDB())
			}
			pool, err := database.Connect(cmd.Context(), cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer pool.Close()
			_, _ = fmt.Fprintln(os.Stdout, "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Print migration status instead of applying")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the roles and the SEED_ADMIN_* super admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			log := logger.NewLogger(cfg.LogLevel)
			pool, err := database.Connect(cmd.Context(), cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			repos := repository.NewPostgresSet(pool.GetDB(), log)
			seeder := service.NewSeeder(repos.Roles, repos.Users, auth.NewHasher(auth.DefaultCost), log)
			if err := seeder.SeedRoles(cmd.Context()); err != nil {
				return err
			}
			if cfg.SeedAdmin.Email == "" && cfg.SeedAdmin.ServiceID == "" {
				_, _ = fmt.Fprintln(os.Stdout, "roles seeded; set SEED_ADMIN_EMAIL or SEED_ADMIN_SERVICE_ID to create a super admin")
				return nil
			}
			user, created, err := seeder.SeedSuperAdmin(cmd.Context(), cfg.SeedAdmin)
			if err != nil {
				return err
			}
			if created {
				_, _ = fmt.Fprintf(os.Stdout, "super admin created: %s\n", user.ID)
			} else {
				_, _ = fmt.Fprintf(os.Stdout, "super admin already exists: %s\n", user.ID)
			}
			return nil
		},
	}
}
