// Package store defines the persistence boundary for session snapshots:
// the SnapshotStore interface, the two well-known slot keys, and the
// shared error vocabulary and transaction helper its implementations use.
// The session layer depends only on this package, so swapping the backing
// database is a wiring decision, not a code change.
package store
