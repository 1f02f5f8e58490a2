package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/triage-api/internal/platform/logger"
	"github.com/phrazzld/triage-api/internal/store"
)

// PostgresSnapshotStore implements the store.SnapshotStore interface
// using a PostgreSQL database as the storage backend. Each slot maps to
// a single row in the snapshots table; Save performs an upsert so writes
// are idempotent.
type PostgresSnapshotStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSnapshotStore creates a new PostgreSQL implementation of the SnapshotStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSnapshotStore(db store.DBTX, logger *slog.Logger) *PostgresSnapshotStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSnapshotStore{
		db:     db,
		logger: logger.With(slog.String("component", "snapshot_store")),
	}
}

// Ensure PostgresSnapshotStore implements store.SnapshotStore interface
var _ store.SnapshotStore = (*PostgresSnapshotStore)(nil)

// Save implements store.SnapshotStore.Save
// It writes the serialized snapshot for the given slot, replacing any
// previous contents. Saving the same bytes twice is a no-op at the
// application level, which keeps persistence idempotent.
func (s *PostgresSnapshotStore) Save(ctx context.Context, slot string, data []byte) error {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	if slot == "" {
		log.Warn("snapshot save rejected: empty slot name")
		return store.NewStoreError("snapshot", "save", "slot name cannot be empty", nil)
	}

	query := `
		INSERT INTO snapshots (slot, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query, slot, string(data))
	if err != nil {
		log.Error("failed to save snapshot",
			slog.String("error", err.Error()),
			slog.String("slot", slot),
			slog.Int("bytes", len(data)))
		return fmt.Errorf("failed to save snapshot: %w", MapError(err))
	}

	log.Debug("snapshot saved",
		slog.String("slot", slot),
		slog.Int("bytes", len(data)))
	return nil
}

// Load implements store.SnapshotStore.Load
// It returns the most recently saved bytes for the given slot.
// Returns store.ErrSlotNotFound if the slot has never been written,
// which callers treat as an empty starting state rather than a failure.
func (s *PostgresSnapshotStore) Load(ctx context.Context, slot string) ([]byte, error) {
	// Get the logger from context or use default
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("loading snapshot", slog.String("slot", slot))

	query := `
		SELECT data
		FROM snapshots
		WHERE slot = $1
	`
	var data []byte
	err := s.db.QueryRowContext(ctx, query, slot).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("snapshot slot not found", slog.String("slot", slot))
			return nil, store.ErrSlotNotFound
		}
		log.Error("failed to load snapshot",
			slog.String("error", err.Error()),
			slog.String("slot", slot))
		return nil, fmt.Errorf("failed to load snapshot: %w", MapError(err))
	}

	log.Debug("snapshot loaded",
		slog.String("slot", slot),
		slog.Int("bytes", len(data)))
	return data, nil
}

// WithTx returns a new SnapshotStore that uses the provided transaction.
// This allows multiple slots to be written atomically as part of a single
// transaction managed by the caller.
func (s *PostgresSnapshotStore) WithTx(tx *sql.Tx) store.SnapshotStore {
	return &PostgresSnapshotStore{
		db:     tx,
		logger: s.logger,
	}
}
