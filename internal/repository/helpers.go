package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
)

// timeLayout is fixed-width so that lexical ORDER BY on the stored text
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// formatTime converts t to its stored UTC text form.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp. Rows written before the fixed-width
// layout was introduced use plain RFC3339.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// nowUTC returns the current UTC time truncated to the stored precision.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// stampCreate fills zero creation timestamps with now.
func stampCreate(createdAt, updatedAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = nowUTC()
	}
	if updatedAt != nil && updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

// nullableInt64ToValue converts a *int64 to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableInt64ToValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullInt64ToPtr converts a scanned nullable integer to a pointer.
func nullInt64ToPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// likePattern builds a folded substring pattern for
// "fold(col) LIKE ? ESCAPE '\'".
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(db.Fold(keyword)) + "%"
}

// inClause returns "?, ?, ?" for n placeholders.
func inClause(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids into query arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// requireAffected maps a zero-row update or delete to domain.ErrNotFound.
func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows for %s: %w", entity, err)
	}
	if n == 0 {
		return domain.NotFoundError(entity, id)
	}
	return nil
}

// scanIDs collects a single integer column.
func scanIDs(rows *sql.Rows, what string) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s id: %w", what, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s ids: %w", what, err)
	}
	return ids, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type timeField struct {
	name string
	raw  string
	dst  *time.Time
}

// parseTimes parses several stored timestamps, naming the first that fails.
func parseTimes(fields ...timeField) error {
	for _, f := range fields {
		t, err := parseTime(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.name, err)
		}
		*f.dst = t
	}
	return nil
}
