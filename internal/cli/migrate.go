package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/config"
	"quiz-hosting-service/internal/infra/postgres"
	pgmigrations "quiz-hosting-service/internal/infra/postgres/migrations"
	"quiz-hosting-service/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.File)
	defer log.Sync()
	return runMigrationsWithConfig(ctx, cfg, log)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db := postgres.Open(cfg.Postgres.URL)
	defer db.Close()
	return migrateDB(ctx, db, log)
}

func migrateDB(ctx context.Context, db *bun.DB, log *zap.Logger) error {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.Info("migrations applied", zap.String("group", group.String()))
	return nil
}
