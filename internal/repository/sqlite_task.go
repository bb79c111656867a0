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

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

// taskColumnsAliased selects task columns plus the joined status name,
// for queries where tasks is aliased as t and statuses as s.
const taskColumnsAliased = `t.id, t.product_id, t.title, t.status_id, COALESCE(s.name, ''), t.assignee_id,
	t.created_by, t.created_at, t.updated_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	stampCreate(&t.CreatedAt, &t.UpdatedAt)
	query := `INSERT INTO tasks (product_id, title, status_id, assignee_id, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		t.ProductID,
		t.Title,
		nullableInt64ToValue(t.StatusID),
		nullableInt64ToValue(t.AssigneeID),
		t.CreatedBy,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading task id: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumnsAliased + `
		FROM tasks t
		LEFT JOIN statuses s ON s.id = t.status_id
		WHERE t.id = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("task", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLiteTaskRepo) ListIDsByProducts(ctx context.Context, productIDs []int64) ([]int64, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id FROM tasks WHERE product_id IN (` + inClause(len(productIDs)) + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, int64Args(productIDs)...)
	if err != nil {
		return nil, fmt.Errorf("listing task ids: %w", err)
	}
	return scanIDs(rows, "task")
}

// UpdateFields writes only the supplied fields. An empty update still
// reports domain.ErrNotFound for a missing task.
func (r *SQLiteTaskRepo) UpdateFields(ctx context.Context, id int64, fields TaskFields) error {
	if fields.Empty() {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError("task", id)
		}
		if err != nil {
			return fmt.Errorf("checking task: %w", err)
		}
		return nil
	}

	var sets []string
	var args []any
	if fields.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, fields.Title.Value)
	}
	if fields.StatusID.Set {
		sets = append(sets, "status_id = ?")
		args = append(args, nullableInt64ToValue(fields.StatusID.Value))
	}
	if fields.Assignee.Set {
		sets = append(sets, "assignee_id = ?")
		args = append(args, nullableInt64ToValue(fields.Assignee.Value))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(nowUTC()), id)

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireAffected(res, "task", id)
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireAffected(res, "task", id)
}

func (r *SQLiteTaskRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM tasks WHERE id IN (` + inClause(len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, query, int64Args(ids)...); err != nil {
		return fmt.Errorf("deleting tasks: %w", err)
	}
	return nil
}

// ListWithParents runs the joined four-level view. The keyword is OR'd
// across project, product, task, status and assignee names, so a hit on an
// ancestor pulls in every task under it; status and assignee filters are
// AND'd on top.
func (r *SQLiteTaskRepo) ListWithParents(ctx context.Context, q TaskQuery) ([]domain.TaskRecord, error) {
	if (q.StatusIDs != nil && len(q.StatusIDs) == 0) || (q.AssigneeIDs != nil && len(q.AssigneeIDs) == 0) {
		return nil, nil
	}

	query := `SELECT ` + taskColumnsAliased + `,
			pr.id, pr.project_id, pr.name, pr.created_by, pr.created_at, pr.updated_at,
			p.id, p.name, p.owner_id, p.created_at, p.updated_at
		FROM tasks t
		JOIN products pr ON pr.id = t.product_id
		JOIN projects p ON p.id = pr.project_id
		LEFT JOIN statuses s ON s.id = t.status_id
		LEFT JOIN users u ON u.id = t.assignee_id`

	var where []string
	var args []any
	if len(q.StatusIDs) > 0 {
		where = append(where, `t.status_id IN (`+inClause(len(q.StatusIDs))+`)`)
		args = append(args, int64Args(q.StatusIDs)...)
	}
	if len(q.AssigneeIDs) > 0 {
		where = append(where, `t.assignee_id IN (`+inClause(len(q.AssigneeIDs))+`)`)
		args = append(args, int64Args(q.AssigneeIDs)...)
	}
	if q.Keyword != "" {
		pattern := likePattern(q.Keyword)
		where = append(where, `(fold(p.name) LIKE ? ESCAPE '\'
			OR fold(pr.name) LIKE ? ESCAPE '\'
			OR fold(t.title) LIKE ? ESCAPE '\'
			OR fold(s.name) LIKE ? ESCAPE '\'
			OR fold(u.name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY p.created_at, p.id, pr.created_at, pr.id, t.created_at, t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks with parents: %w", err)
	}
	defer rows.Close()

	var records []domain.TaskRecord
	for rows.Next() {
		var rec domain.TaskRecord
		var statusID, assigneeID sql.NullInt64
		var tCreated, tUpdated, prCreated, prUpdated, pCreated, pUpdated string
		err := rows.Scan(
			&rec.Task.ID, &rec.Task.ProductID, &rec.Task.Title, &statusID, &rec.Task.StatusName, &assigneeID,
			&rec.Task.CreatedBy, &tCreated, &tUpdated,
			&rec.Product.ID, &rec.Product.ProjectID, &rec.Product.Name, &rec.Product.CreatedBy, &prCreated, &prUpdated,
			&rec.Project.ID, &rec.Project.Name, &rec.Project.OwnerID, &pCreated, &pUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task record: %w", err)
		}
		rec.Task.StatusID = nullInt64ToPtr(statusID)
		rec.Task.AssigneeID = nullInt64ToPtr(assigneeID)
		if err := parseTimes(
			timeField{"task created_at", tCreated, &rec.Task.CreatedAt},
			timeField{"task updated_at", tUpdated, &rec.Task.UpdatedAt},
			timeField{"product created_at", prCreated, &rec.Product.CreatedAt},
			timeField{"product updated_at", prUpdated, &rec.Product.UpdatedAt},
			timeField{"project created_at", pCreated, &rec.Project.CreatedAt},
			timeField{"project updated_at", pUpdated, &rec.Project.UpdatedAt},
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task records: %w", err)
	}
	return records, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var statusID, assigneeID sql.NullInt64
	var createdAtStr, updatedAtStr string
	err := row.Scan(
		&t.ID, &t.ProductID, &t.Title, &statusID, &t.StatusName, &assigneeID,
		&t.CreatedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.StatusID = nullInt64ToPtr(statusID)
	t.AssigneeID = nullInt64ToPtr(assigneeID)
	if err := parseTimes(
		timeField{"task created_at", createdAtStr, &t.CreatedAt},
		timeField{"task updated_at", updatedAtStr, &t.UpdatedAt},
	); err != nil {
		return nil, err
	}
	return &t, nil
}
