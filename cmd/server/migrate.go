// File: cmd/server/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clinic_backend/internal/config"
	"clinic_backend/internal/platform/database"
	"clinic_backend/internal/platform/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run schema auto-migration and data migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer database.CloseGORMDB(db)

	if err := database.AutoMigrate(db, appLogger); err != nil {
		appLogger.Error("Schema migration failed", zap.Error(err))
		return err
	}
	if err := database.MigrateLegacyHistoryDIUTypes(db, appLogger); err != nil {
		appLogger.Error("Legacy DIU type data migration failed", zap.Error(err))
		return err
	}

	appLogger.Info("Migrations completed successfully")
	return nil
}
