package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/opstree/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestHandle creates a managed in-memory handle, closed when the test
// completes.
func NewTestHandle(t *testing.T, opts ...db.HandleOption) *db.Handle {
	t.Helper()
	h, err := db.OpenHandle(db.MemoryPath, opts...)
	if err != nil {
		t.Fatalf("failed to open test handle: %v", err)
	}
	t.Cleanup(func() {
		h.Close()
	})
	return h
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
