package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
)

// SQLiteProductRepo implements ProductRepo using a SQLite database.
type SQLiteProductRepo struct {
	db db.DBTX
}

// NewSQLiteProductRepo creates a new SQLiteProductRepo.
func NewSQLiteProductRepo(conn db.DBTX) *SQLiteProductRepo {
	return &SQLiteProductRepo{db: conn}
}

const productColumns = `id, project_id, name, created_by, created_at, updated_at`

func (r *SQLiteProductRepo) Create(ctx context.Context, p *domain.Product) error {
	stampCreate(&p.CreatedAt, &p.UpdatedAt)
	query := `INSERT INTO products (project_id, name, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.ProjectID,
		p.Name,
		p.CreatedBy,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading product id: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("product", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteProductRepo) List(ctx context.Context, keyword string) ([]domain.ProductWithProject, error) {
	query := `SELECT pr.id, pr.project_id, pr.name, pr.created_by, pr.created_at, pr.updated_at,
			p.id, p.name, p.owner_id, p.created_at, p.updated_at
		FROM products pr
		JOIN projects p ON p.id = pr.project_id`
	var args []any
	if keyword != "" {
		pattern := likePattern(keyword)
		query += ` WHERE fold(pr.name) LIKE ? ESCAPE '\' OR fold(p.name) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY p.created_at, p.id, pr.created_at, pr.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductWithProject
	for rows.Next() {
		var pr domain.Product
		var p domain.Project
		var prCreated, prUpdated, pCreated, pUpdated string
		if err := rows.Scan(
			&pr.ID, &pr.ProjectID, &pr.Name, &pr.CreatedBy, &prCreated, &prUpdated,
			&p.ID, &p.Name, &p.OwnerID, &pCreated, &pUpdated,
		); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		if err := parseTimes(
			timeField{"product created_at", prCreated, &pr.CreatedAt},
			timeField{"product updated_at", prUpdated, &pr.UpdatedAt},
			timeField{"project created_at", pCreated, &p.CreatedAt},
			timeField{"project updated_at", pUpdated, &p.UpdatedAt},
		); err != nil {
			return nil, err
		}
		out = append(out, domain.ProductWithProject{Product: pr, Project: p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return out, nil
}

func (r *SQLiteProductRepo) ListIDsByProject(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM products WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing product ids: %w", err)
	}
	return scanIDs(rows, "product")
}

func (r *SQLiteProductRepo) Rename(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET name = ?, updated_at = ? WHERE id = ?`,
		name, formatTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("renaming product: %w", err)
	}
	return requireAffected(res, "product", id)
}

func (r *SQLiteProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return requireAffected(res, "product", id)
}

func (r *SQLiteProductRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM products WHERE id IN (` + inClause(len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, query, int64Args(ids)...); err != nil {
		return fmt.Errorf("deleting products: %w", err)
	}
	return nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var createdAtStr, updatedAtStr string
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.CreatedBy, &createdAtStr, &updatedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	if err := parseTimes(
		timeField{"product created_at", createdAtStr, &p.CreatedAt},
		timeField{"product updated_at", updatedAtStr, &p.UpdatedAt},
	); err != nil {
		return nil, err
	}
	return &p, nil
}
