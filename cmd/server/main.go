// Package main implements the entry point for the triage API server,
// which keeps a single user's task list sorted across three fixed
// prioritization matrices and consults an LLM for quadrant placement.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/phrazzld/triage-api/internal/config"
	"github.com/phrazzld/triage-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a database migration command (up, down, reset, status, version) and exit")
	restoreFragment := flag.String("restore", "",
		"boot from a shared task-list fragment instead of the stored snapshot")
	flag.Parse()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			appLogger.Error("Migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()

	db, err := setupAppDatabase(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		appLogger.Error("Failed to initialize application", "error", err)
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("Error closing database connection", "error", closeErr)
		}
		os.Exit(1)
	}

	// Restore persisted state before serving traffic. A fragment passed on
	// the command line wins over the stored snapshot slot.
	app.session.Load(ctx, *restoreFragment)

	if err := app.Run(ctx); err != nil {
		appLogger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// initializeApp loads configuration and sets up structured logging.
// Returns the loaded config and logger, or an initialization error.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"debounce_millis", cfg.Pipeline.DebounceMillis)

	return cfg, appLogger, nil
}
