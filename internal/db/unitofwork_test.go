package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditedUoW(database *sql.DB, buf *bytes.Buffer) *SQLiteUnitOfWork {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return &SQLiteUnitOfWork{db: database, wrap: func(conn DBTX) DBTX {
		return NewAuditDBTX(conn, logger)
	}}
}

func countUsers(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	return n
}

func TestWithinTx_WrapDecoratesTransaction(t *testing.T) {
	database := openTestDB(t)
	var buf bytes.Buffer
	uow := auditedUoW(database, &buf)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		audited, ok := tx.(*AuditDBTX)
		require.True(t, ok, "callback should receive the wrapped connection")
		_, isTx := audited.DBTX.(*sql.Tx)
		assert.True(t, isTx, "the decorator should wrap the transaction, not the pool")

		_, err := tx.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, "ann")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countUsers(t, database))
	assert.Contains(t, buf.String(), "action=INSERT")
	assert.Contains(t, buf.String(), "table=users")
}

func TestWithinTx_WithoutWrapPassesRawTx(t *testing.T) {
	uow := NewSQLiteUnitOfWork(openTestDB(t))

	err := uow.WithinTx(context.Background(), func(_ context.Context, tx DBTX) error {
		_, ok := tx.(*sql.Tx)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestWithinTx_ErrorRollsBackAuditedWrites(t *testing.T) {
	database := openTestDB(t)
	var buf bytes.Buffer
	uow := auditedUoW(database, &buf)
	boom := errors.New("boom")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, "bob"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, countUsers(t, database), "the audited insert is rolled back with the transaction")
	assert.Contains(t, buf.String(), "action=INSERT", "the statement is still logged when it ran")
}

func TestWithinTx_PanicRollsBackAndRepanics(t *testing.T) {
	database := openTestDB(t)
	var buf bytes.Buffer
	uow := auditedUoW(database, &buf)

	assert.PanicsWithValue(t, "boom", func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, "cy")
			panic("boom")
		})
	})

	assert.Equal(t, 0, countUsers(t, database))
}

func TestFold_RegisteredOnConnections(t *testing.T) {
	database := openTestDB(t)

	var folded string
	require.NoError(t, database.QueryRow(`SELECT fold(?)`, "Überprüfung ÉMILE").Scan(&folded))
	assert.Equal(t, "überprüfung émile", folded)
	assert.Equal(t, Fold("Überprüfung ÉMILE"), folded)

	var null sql.NullString
	require.NoError(t, database.QueryRow(`SELECT fold(NULL)`).Scan(&null))
	assert.False(t, null.Valid)
}
