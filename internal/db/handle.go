package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

// Handle owns the shared store connection pool. It satisfies DBTX, UnitOfWork
// and Pinger, and replaces the pool when a health check finds it unusable.
type Handle struct {
	path   string
	audit  *slog.Logger
	opener func(path string) (*sql.DB, error)

	mu sync.RWMutex
	db *sql.DB
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithAuditLogger logs every INSERT, UPDATE and DELETE issued through the
// handle, including those inside transactions.
func WithAuditLogger(logger *slog.Logger) HandleOption {
	return func(h *Handle) {
		h.audit = logger
	}
}

// OpenHandle opens (and migrates) the database at path.
func OpenHandle(path string, opts ...HandleOption) (*Handle, error) {
	h := &Handle{path: path, opener: OpenDB}
	for _, opt := range opts {
		opt(h)
	}
	database, err := h.opener(path)
	if err != nil {
		return nil, err
	}
	h.db = database
	return h, nil
}

// DB returns the current pool.
func (h *Handle) DB() *sql.DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.db
}

// Path returns the database location the handle was opened with.
func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) conn() DBTX {
	return h.wrap(h.DB())
}

func (h *Handle) wrap(conn DBTX) DBTX {
	if h.audit == nil {
		return conn
	}
	return NewAuditDBTX(conn, h.audit)
}

func (h *Handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return h.conn().ExecContext(ctx, query, args...)
}

func (h *Handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return h.conn().QueryContext(ctx, query, args...)
}

func (h *Handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return h.conn().QueryRowContext(ctx, query, args...)
}

// WithinTx runs fn in a transaction on the current pool.
func (h *Handle) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	uow := &SQLiteUnitOfWork{db: h.DB(), wrap: h.wrap}
	return uow.WithinTx(ctx, fn)
}

// Ping checks the pool and reopens it once if the check fails. In-memory
// databases are never reopened since a fresh one would be empty.
func (h *Handle) Ping(ctx context.Context) error {
	current := h.DB()
	err := current.PingContext(ctx)
	if err == nil {
		return nil
	}
	if h.path == MemoryPath {
		return fmt.Errorf("pinging database: %w", err)
	}
	return h.reopen(current, err)
}

func (h *Handle) reopen(stale *sql.DB, cause error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != stale {
		// Another caller already replaced the pool.
		return nil
	}
	fresh, err := h.opener(h.path)
	if err != nil {
		return fmt.Errorf("reconnecting after ping failure (%v): %w", cause, err)
	}
	_ = stale.Close()
	h.db = fresh
	return nil
}

// Close closes the current pool.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db.Close()
}
