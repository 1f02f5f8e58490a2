package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql methods the snapshot stores execute
// queries through. Both *sql.DB and *sql.Tx satisfy it, so the same store
// code serves direct writes and the atomic two-slot writes that run inside
// RunInTransaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}
