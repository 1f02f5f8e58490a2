package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/triage-api/internal/platform/logger"
	"github.com/phrazzld/triage-api/internal/store"
)

// SQLiteSnapshotStore implements the store.SnapshotStore interface using a
// SQLite database as the storage backend. It is the zero-infrastructure
// alternative to the PostgreSQL store and shares its slot semantics: one row
// per slot, last write wins.
type SQLiteSnapshotStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteSnapshotStore creates a new SQLite implementation of the SnapshotStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewSQLiteSnapshotStore(db store.DBTX, logger *slog.Logger) *SQLiteSnapshotStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteSnapshotStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_snapshot_store")),
	}
}

// Ensure SQLiteSnapshotStore implements store.SnapshotStore interface
var _ store.SnapshotStore = (*SQLiteSnapshotStore)(nil)

// Save implements store.SnapshotStore.Save
// It upserts the serialized snapshot for the given slot.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, slot string, data []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if slot == "" {
		log.Warn("snapshot save rejected: empty slot name")
		return store.NewStoreError("snapshot", "save", "slot name cannot be empty", nil)
	}

	query := `
		INSERT INTO snapshots (slot, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET data=excluded.data, updated_at=CURRENT_TIMESTAMP;
	`
	_, err := s.db.ExecContext(ctx, query, slot, string(data))
	if err != nil {
		log.Error("failed to save snapshot",
			slog.String("error", err.Error()),
			slog.String("slot", slot),
			slog.Int("bytes", len(data)))
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.Debug("snapshot saved",
		slog.String("slot", slot),
		slog.Int("bytes", len(data)))
	return nil
}

// Load implements store.SnapshotStore.Load
// Returns store.ErrSlotNotFound if the slot has never been written.
func (s *SQLiteSnapshotStore) Load(ctx context.Context, slot string) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("loading snapshot", slog.String("slot", slot))

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE slot = ?`, slot).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("snapshot slot not found", slog.String("slot", slot))
			return nil, store.ErrSlotNotFound
		}
		log.Error("failed to load snapshot",
			slog.String("error", err.Error()),
			slog.String("slot", slot))
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	log.Debug("snapshot loaded",
		slog.String("slot", slot),
		slog.Int("bytes", len(data)))
	return data, nil
}

// WithTx returns a new SnapshotStore that uses the provided transaction.
func (s *SQLiteSnapshotStore) WithTx(tx *sql.Tx) store.SnapshotStore {
	return &SQLiteSnapshotStore{
		db:     tx,
		logger: s.logger,
	}
}
