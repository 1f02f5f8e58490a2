package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/triage-api/internal/store"
)

// PostgreSQL error codes
const (
	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"

	// invalidTextRepresentationCode is the PostgreSQL error code raised when
	// input cannot be parsed for the target column type, e.g. bytes that are
	// not valid JSON for a jsonb column.
	invalidTextRepresentationCode = "22P02"
)

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context and provide better debugging information.
// This function should be used in all database operations to ensure consistent error handling.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	// Handle common SQL errors
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	// Handle PostgreSQL-specific errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentationCode:
			return fmt.Errorf("%w: %v", store.ErrInvalidSnapshot, err)
		case notNullViolationCode:
			return fmt.Errorf(
				"%w: not null violation (%s): %v",
				store.ErrInvalidSnapshot,
				pgErr.ColumnName,
				err,
			)
		}
	}

	// Return the original error for errors that don't have specific mappings
	return err
}

// IsInvalidSnapshotError checks if the given error indicates the backend
// rejected the snapshot payload itself rather than failing transiently.
func IsInvalidSnapshotError(err error) bool {
	return errors.Is(err, store.ErrInvalidSnapshot)
}

// IsNotFoundError checks if the given error represents a "not found" scenario.
// This handles both sql.ErrNoRows and errors that are or wrap store.ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound)
}
