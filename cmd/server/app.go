package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/triage-api/internal/config"
	"github.com/phrazzld/triage-api/internal/platform/gemini"
	"github.com/phrazzld/triage-api/internal/platform/postgres"
	"github.com/phrazzld/triage-api/internal/platform/sqlite"
	"github.com/phrazzld/triage-api/internal/session"
	"github.com/phrazzld/triage-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Snapshot persistence (driver selected by config)
	snapshots store.SnapshotStore

	// LLM gateway serving classification, decomposition, and suggestions
	gateway *gemini.Gateway

	// The single triage session all handlers operate on
	session *session.Session
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize the snapshot store for the configured driver
	switch cfg.Database.Driver {
	case "pgx":
		app.snapshots = postgres.NewPostgresSnapshotStore(db, logger)
	case "sqlite3":
		app.snapshots = sqlite.NewSQLiteSnapshotStore(db, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
	logger.Info("Snapshot store initialized", "driver", cfg.Database.Driver)

	// Create the LLM gateway
	var err error
	app.gateway, err = gemini.NewGateway(
		ctx,
		logger.With("component", "llm_gateway"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM gateway: %w", err)
	}
	logger.Info("LLM gateway initialized successfully", "model", cfg.LLM.ModelName)

	// Create the triage session
	app.session, err = session.New(session.Config{
		Classifier:     app.gateway,
		Decomposer:     app.gateway,
		Suggester:      app.gateway,
		Snapshots:      app.snapshots,
		Logger:         logger.With("component", "session"),
		DebounceWindow: time.Duration(cfg.Pipeline.DebounceMillis) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Close the session first so any pending batch work stops emitting
	if app.session != nil {
		app.session.Close()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
