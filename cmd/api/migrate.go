package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/mybucks/internal/config"
	"github.com/redmonkez12/mybucks/internal/database"
	"github.com/redmonkez12/mybucks/internal/logging"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Backend != config.StorageBackendPostgres {
		return fmt.Errorf("migrate requires STORAGE_BACKEND=%s", config.StorageBackendPostgres)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if status {
		return database.MigrationStatus(ctx, db.DB)
	}

	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}
	logger.Info("migrations applied", "database", cfg.Database.DBName)
	return nil
}
