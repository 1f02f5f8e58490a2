// Package sqlite provides the SQLite-backed implementation of the snapshot
// storage interface defined in the internal/store package. It owns database
// opening, pragma configuration, and schema creation, so a caller only needs
// a filesystem path (or ":memory:" in tests) to get a working store.
package sqlite
