package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
)

// SQLiteStatusRepo implements StatusRepo using a SQLite database.
// Status names are unique case-insensitively.
type SQLiteStatusRepo struct {
	db db.DBTX
}

// NewSQLiteStatusRepo creates a new SQLiteStatusRepo.
func NewSQLiteStatusRepo(conn db.DBTX) *SQLiteStatusRepo {
	return &SQLiteStatusRepo{db: conn}
}

func (r *SQLiteStatusRepo) Create(ctx context.Context, s *domain.Status) error {
	_, exists, err := r.findByName(ctx, s.Name)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewValidationError("name", fmt.Sprintf("status %q already exists", s.Name))
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO statuses (name, color) VALUES (?, ?)`, s.Name, s.Color)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.NewValidationError("name", fmt.Sprintf("status %q already exists", s.Name))
		}
		return fmt.Errorf("inserting status: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading status id: %w", err)
	}
	return nil
}

func (r *SQLiteStatusRepo) GetByID(ctx context.Context, id int64) (*domain.Status, error) {
	var s domain.Status
	err := r.db.QueryRowContext(ctx, `SELECT id, name, color FROM statuses WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("status", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	return &s, nil
}

func (r *SQLiteStatusRepo) List(ctx context.Context) ([]domain.Status, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.Status
	for rows.Next() {
		var s domain.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Color); err != nil {
			return nil, fmt.Errorf("scanning status row: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}
	return statuses, nil
}

// FindIDsByNames resolves display names to ids, ignoring case. Unknown
// names are dropped.
func (r *SQLiteStatusRepo) FindIDsByNames(ctx context.Context, names []string) ([]int64, error) {
	return findIDsByNames(ctx, r.db, "statuses", names)
}

// FindOrCreate returns the id of the named status, matched ignoring case,
// inserting it with the default color when it does not exist yet.
func (r *SQLiteStatusRepo) FindOrCreate(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("status", "is required")
	}
	id, found, err := r.findByName(ctx, name)
	if err != nil || found {
		return id, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO statuses (name, color) VALUES (?, ?)`,
		name, domain.DefaultStatusColor)
	if err != nil {
		return 0, fmt.Errorf("creating status %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading status id: %w", err)
	}
	return id, nil
}

// findByName returns the oldest status whose folded name equals name.
func (r *SQLiteStatusRepo) findByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM statuses WHERE fold(name) = ? ORDER BY id LIMIT 1`,
		db.Fold(strings.TrimSpace(name))).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up status %q: %w", name, err)
	}
	return id, true, nil
}

// DefaultID returns the status given to tasks created without one: the
// seeded first status if present, otherwise the oldest row.
func (r *SQLiteStatusRepo) DefaultID(ctx context.Context) (int64, error) {
	name := db.DefaultStatuses[0].Name
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM statuses
		ORDER BY CASE WHEN name = ? THEN 0 ELSE 1 END, id LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindOrCreate(ctx, name)
	}
	if err != nil {
		return 0, fmt.Errorf("reading default status: %w", err)
	}
	return id, nil
}

// findIDsByNames matches names against table.name after Unicode case
// folding on both sides.
func findIDsByNames(ctx context.Context, conn db.DBTX, table string, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = db.Fold(strings.TrimSpace(n))
	}
	query := `SELECT id FROM ` + table + ` WHERE fold(name) IN (` + inClause(len(names)) + `) ORDER BY id`
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolving %s names: %w", table, err)
	}
	return scanIDs(rows, table)
}
