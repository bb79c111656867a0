package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
)

// SQLiteTaskStepRepo implements TaskStepRepo using a SQLite database.
type SQLiteTaskStepRepo struct {
	db db.DBTX
}

// NewSQLiteTaskStepRepo creates a new SQLiteTaskStepRepo.
func NewSQLiteTaskStepRepo(conn db.DBTX) *SQLiteTaskStepRepo {
	return &SQLiteTaskStepRepo{db: conn}
}

func (r *SQLiteTaskStepRepo) Create(ctx context.Context, s *domain.TaskStep) error {
	stampCreate(&s.CreatedAt, nil)
	query := `INSERT INTO task_steps (task_id, content, status_id, assignee_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		s.TaskID,
		s.Content,
		nullableInt64ToValue(s.StatusID),
		nullableInt64ToValue(s.AssigneeID),
		s.CreatedBy,
		formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task step: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading task step id: %w", err)
	}
	return nil
}

// ListByTask returns a task's steps in creation order.
func (r *SQLiteTaskStepRepo) ListByTask(ctx context.Context, taskID int64) ([]domain.TaskStep, error) {
	query := `SELECT ts.id, ts.task_id, ts.content, ts.status_id, COALESCE(s.name, ''), ts.assignee_id,
			ts.created_by, ts.created_at
		FROM task_steps ts
		LEFT JOIN statuses s ON s.id = ts.status_id
		WHERE ts.task_id = ?
		ORDER BY ts.created_at, ts.id`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing task steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.TaskStep
	for rows.Next() {
		var s domain.TaskStep
		var statusID, assigneeID sql.NullInt64
		var createdAtStr string
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Content, &statusID, &s.StatusName, &assigneeID,
			&s.CreatedBy, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning task step: %w", err)
		}
		s.StatusID = nullInt64ToPtr(statusID)
		s.AssigneeID = nullInt64ToPtr(assigneeID)
		if s.CreatedAt, err = parseTime(createdAtStr); err != nil {
			return nil, fmt.Errorf("parsing task step created_at: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task steps: %w", err)
	}
	return steps, nil
}

func (r *SQLiteTaskStepRepo) UpdateStatus(ctx context.Context, id int64, statusID *int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE task_steps SET status_id = ? WHERE id = ?`,
		nullableInt64ToValue(statusID), id)
	if err != nil {
		return fmt.Errorf("updating task step status: %w", err)
	}
	return requireAffected(res, "task step", id)
}

func (r *SQLiteTaskStepRepo) DeleteByTaskIDs(ctx context.Context, taskIDs []int64) error {
	if len(taskIDs) == 0 {
		return nil
	}
	query := `DELETE FROM task_steps WHERE task_id IN (` + inClause(len(taskIDs)) + `)`
	if _, err := r.db.ExecContext(ctx, query, int64Args(taskIDs)...); err != nil {
		return fmt.Errorf("deleting task steps: %w", err)
	}
	return nil
}
