package repository

import (
	"context"

	"github.com/alexanderramin/opstree/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	// List returns projects in creation order. A non-empty keyword keeps
	// projects whose name contains it, case-insensitively.
	List(ctx context.Context, keyword string) ([]domain.Project, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type ProductRepo interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// List returns products joined with their project, ordered by project
	// then product creation. A non-empty keyword matches the product name or
	// the project name.
	List(ctx context.Context, keyword string) ([]domain.ProductWithProject, error)
	ListIDsByProject(ctx context.Context, projectID int64) ([]int64, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// TaskFields is a resolved partial task update. Status already carries a
// status row id.
type TaskFields struct {
	Title    domain.Optional[string]
	StatusID domain.Optional[*int64]
	Assignee domain.Optional[*int64]
}

// Empty reports whether no field is supplied.
func (f TaskFields) Empty() bool {
	return !f.Title.Set && !f.StatusID.Set && !f.Assignee.Set
}

// TaskQuery is the resolved predicate of a tree read. Nil id slices mean
// "no filter"; an empty non-nil slice matches nothing.
type TaskQuery struct {
	Keyword     string
	StatusIDs   []int64
	AssigneeIDs []int64
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	ListIDsByProducts(ctx context.Context, productIDs []int64) ([]int64, error)
	UpdateFields(ctx context.Context, id int64, fields TaskFields) error
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) error
	// ListWithParents returns qualifying tasks with their product and project,
	// ordered by project, product and task creation.
	ListWithParents(ctx context.Context, q TaskQuery) ([]domain.TaskRecord, error)
}

type TaskStepRepo interface {
	Create(ctx context.Context, s *domain.TaskStep) error
	ListByTask(ctx context.Context, taskID int64) ([]domain.TaskStep, error)
	UpdateStatus(ctx context.Context, id int64, statusID *int64) error
	DeleteByTaskIDs(ctx context.Context, taskIDs []int64) error
}

type StatusRepo interface {
	Create(ctx context.Context, s *domain.Status) error
	GetByID(ctx context.Context, id int64) (*domain.Status, error)
	List(ctx context.Context) ([]domain.Status, error)
	FindIDsByNames(ctx context.Context, names []string) ([]int64, error)
	FindOrCreate(ctx context.Context, name string) (int64, error)
	DefaultID(ctx context.Context) (int64, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	FindIDsByNames(ctx context.Context, names []string) ([]int64, error)
}
