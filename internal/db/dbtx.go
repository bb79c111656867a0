package db

import (
	"context"
	"database/sql"
)

// DBTX is the common interface satisfied by *sql.DB, *sql.Tx and *Handle.
// Repositories depend on it so the same repository type serves pooled reads
// and transactional mutations.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Pinger checks store health, reconnecting when the connection went stale.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Compile-time verification that the store types satisfy DBTX.
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*Handle)(nil)
)
