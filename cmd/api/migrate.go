package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/config"
	"github.com/servicedesk/ticket-service/internal/observability"
	"github.com/servicedesk/ticket-service/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply or inspect the embedded PostgreSQL migrations. Requires POSTGRES_DSN.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPostgres(cmd.Context(), func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
					return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPostgres(cmd.Context(), func(ctx context.Context, pg *persistence.Postgres, _ *zap.Logger) error {
					return persistence.MigrationStatus(ctx, pg.PoolHandle())
				})
			},
		},
	)

	return cmd
}

func withPostgres(ctx context.Context, fn func(context.Context, *persistence.Postgres, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for migrations")
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	return fn(ctx, pg, logger)
}
