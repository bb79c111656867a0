package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DefaultStatuses are seeded on first migration, in id order. The first one
// is the default for tasks created without a status.
var DefaultStatuses = []struct {
	Name  string
	Color string
}{
	{"open", "#fca5a5"},
	{"in_progress", "#fde68a"},
	{"done", "#86efac"},
	{"closed", "#9ca3af"},
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := seedStatuses(db); err != nil {
		return fmt.Errorf("seeding statuses: %w", err)
	}
	if err := migrateLegacyTaskStatus(db); err != nil {
		return fmt.Errorf("migrating legacy task status labels: %w", err)
	}
	for i, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS statuses (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT NOT NULL UNIQUE COLLATE NOCASE,
		color TEXT NOT NULL DEFAULT '#9ca3af'
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		name       TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id  INTEGER NOT NULL,
		title       TEXT NOT NULL,
		status_id   INTEGER,
		assignee_id INTEGER,
		created_by  TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS task_steps (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL,
		content     TEXT NOT NULL,
		status_id   INTEGER,
		assignee_id INTEGER,
		created_by  TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	// Added after the first release; older databases gain it on upgrade.
	`ALTER TABLE projects ADD COLUMN owner_id TEXT NOT NULL DEFAULT ''`,
}

// indexes run after legacy tables have been rebuilt into the current shape.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_products_project ON products(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_product ON tasks(product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_steps_task ON task_steps(task_id)`,
}

func seedStatuses(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM statuses`).Scan(&count); err != nil {
		return fmt.Errorf("counting statuses: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, s := range DefaultStatuses {
		if _, err := db.Exec(`INSERT OR IGNORE INTO statuses (name, color) VALUES (?, ?)`, s.Name, s.Color); err != nil {
			return fmt.Errorf("inserting status %s: %w", s.Name, err)
		}
	}
	return nil
}

// migrateLegacyTaskStatus rebuilds a tasks table that still stores its
// status as a free-text current_status label. Labels differing only in case
// become one statuses row, each task is pointed at its row, and numeric legacy
// assignee ids are carried into assignee_id. Idempotent: does nothing once
// the legacy column is gone.
func migrateLegacyTaskStatus(db *sql.DB) error {
	ctx := context.Background()

	hasLegacy, err := hasColumn(ctx, db, "tasks", "current_status")
	if err != nil {
		return err
	}
	if !hasLegacy {
		return nil
	}
	hasLegacyAssignee, err := hasColumn(ctx, db, "tasks", "assignee_user_id")
	if err != nil {
		return err
	}
	assigneeExpr := "NULL"
	if hasLegacyAssignee {
		assigneeExpr = `CASE WHEN TRIM(COALESCE(t.assignee_user_id, '')) GLOB '[0-9]*'
			AND TRIM(t.assignee_user_id) NOT GLOB '*[^0-9]*'
			THEN CAST(TRIM(t.assignee_user_id) AS INTEGER) END`
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting status migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `INSERT INTO statuses (name)
		SELECT l.label FROM (
			SELECT MIN(TRIM(current_status)) AS label FROM tasks
			WHERE TRIM(COALESCE(current_status, '')) != ''
			GROUP BY fold(TRIM(current_status))
		) l
		WHERE NOT EXISTS (SELECT 1 FROM statuses s WHERE fold(s.name) = fold(l.label))`); err != nil {
		return fmt.Errorf("creating statuses from legacy labels: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS tasks_new`); err != nil {
		return fmt.Errorf("dropping stale tasks_new: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE TABLE tasks_new (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id  INTEGER NOT NULL,
		title       TEXT NOT NULL,
		status_id   INTEGER,
		assignee_id INTEGER,
		created_by  TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating tasks_new: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO tasks_new (
		id, product_id, title, status_id, assignee_id, created_by, created_at, updated_at
	) SELECT
		t.id, t.product_id, t.title,
		(SELECT s.id FROM statuses s WHERE fold(s.name) = fold(TRIM(t.current_status)) ORDER BY s.id LIMIT 1),
		`+assigneeExpr+`,
		COALESCE(t.created_by, ''), t.created_at, COALESCE(t.updated_at, t.created_at)
	FROM tasks t`); err != nil {
		return fmt.Errorf("copying tasks data: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE tasks`); err != nil {
		return fmt.Errorf("dropping old tasks: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `ALTER TABLE tasks_new RENAME TO tasks`); err != nil {
		return fmt.Errorf("renaming tasks_new: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status migration: %w", err)
	}
	committed = true
	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("reading %s columns: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scanning %s column: %w", table, err)
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}
