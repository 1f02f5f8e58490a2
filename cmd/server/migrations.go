package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/triage-api/internal/config"
	"github.com/phrazzld/triage-api/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

// migrationTableName is the table goose uses to track applied migrations.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

// Printf forwards goose progress messages to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf forwards goose error messages to slog.Error. Unlike the standard
// Fatalf behavior, this does NOT call os.Exit: the error is returned to
// main, which handles the exit consistently.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations executes the requested goose command against the configured
// Postgres database using the embedded migration files. Migrations only
// apply to the pgx driver; the sqlite backend creates its schema on open.
func runMigrations(cfg *config.Config, command string) error {
	// A correlation ID ties together all logs from one migration run
	correlationID := uuid.New().String()
	migrationLogger := slog.Default().With(
		"correlation_id", correlationID,
		"component", "migrations",
		"command", command,
	)

	if cfg.Database.Driver != "pgx" {
		return fmt.Errorf(
			"migrations require the pgx driver (configured driver is %q); the sqlite3 backend manages its own schema",
			cfg.Database.Driver,
		)
	}

	dbURL := cfg.Database.URL
	if dbURL == "" {
		migrationLogger.Error("Database URL is empty",
			"resolution", "check TRIAGE_DATABASE_URL or the config file")
		return fmt.Errorf("database URL is empty: check your configuration")
	}

	startTime := time.Now()
	migrationLogger.Info("Starting migration operation",
		"operation", fmt.Sprintf("goose %s", command),
		"url", maskDatabaseURL(dbURL))

	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(postgres.Migrations)
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		migrationLogger.Error("Failed to open database connection", "error", err)
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			migrationLogger.Error("Error closing database connection", "error", closeErr)
		}
		migrationLogger.Info("Migration operation completed",
			"operation", fmt.Sprintf("goose %s", command),
			"duration_ms", time.Since(startTime).Milliseconds())
	}()

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		migrationLogger.Error("Database ping failed", "error", err)
		return fmt.Errorf("failed to ping database: %w", err)
	}

	switch command {
	case "up":
		migrationLogger.Info("Applying pending migrations")
		err = goose.Up(db, postgres.MigrationsDir)
	case "down":
		migrationLogger.Info("Rolling back one migration version")
		err = goose.Down(db, postgres.MigrationsDir)
	case "reset":
		migrationLogger.Info("Resetting all migrations (roll back to zero)")
		err = goose.Reset(db, postgres.MigrationsDir)
	case "status":
		migrationLogger.Info("Checking migration status")
		err = goose.Status(db, postgres.MigrationsDir)
	case "version":
		migrationLogger.Info("Retrieving current migration version")
		err = goose.Version(db, postgres.MigrationsDir)
	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status, or version)",
			command,
		)
	}
	if err != nil {
		migrationLogger.Error("Migration command failed", "error", err)
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	return nil
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsedURL.User != nil {
		parsedURL.User = url.UserPassword(parsedURL.User.Username(), "****")
	}
	return parsedURL.String()
}
