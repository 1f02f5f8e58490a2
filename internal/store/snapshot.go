package store

import "context"

// Snapshot slot keys. The task list and the classification cache are
// mirrored to durable storage independently, each under its own slot.
const (
	// TaskSnapshotSlot holds the serialized task list.
	TaskSnapshotSlot = "triMatrixTasks"

	// CacheSnapshotSlot holds the serialized classification cache.
	CacheSnapshotSlot = "triMatrixTaskCache"
)

// SnapshotStore defines the interface for snapshot persistence.
// Version: 1.0
type SnapshotStore interface {
	// Save writes the full serialized snapshot for the given slot,
	// replacing any previous contents. Saves are idempotent: repeating
	// a write causes no corruption.
	Save(ctx context.Context, slot string, data []byte) error

	// Load returns the last saved snapshot for the given slot.
	// Returns ErrSlotNotFound if the slot has never been written.
	Load(ctx context.Context, slot string) ([]byte, error)
}
