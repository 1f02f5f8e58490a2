package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/triage-api/internal/config"
	"github.com/phrazzld/triage-api/internal/platform/sqlite"
)

// setupAppDatabase establishes a connection to the configured database and
// configures connection pools. Postgres gets a small pool; SQLite is opened
// through the sqlite package, which serializes on a single connection and
// creates the snapshot schema on first use.
func setupAppDatabase(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "pgx":
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("Error closing database connection", "error", closeErr)
			}
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		logger.Info("Database connection established", "driver", "pgx")
		return db, nil

	case "sqlite3":
		db, err := sqlite.Open(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		logger.Info("Database connection established",
			"driver", "sqlite3",
			"path", cfg.Database.URL)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
}
