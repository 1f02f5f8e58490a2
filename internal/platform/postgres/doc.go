// Package postgres provides the PostgreSQL-specific implementation of the
// snapshot storage interface defined in the internal/store package. It
// handles the details of query execution, upsert semantics for snapshot
// slots, and mapping database errors to store errors.
package postgres
