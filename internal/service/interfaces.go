package service

import (
	"context"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/importer"
)

// TreeService is the single entry point for tree reads and structural
// mutations. Every call returns the refreshed tree for the caller's query.
type TreeService interface {
	GetTree(ctx context.Context, q domain.TreeQuery) (*domain.TreeResult, error)
	CreateProject(ctx context.Context, in CreateProjectInput) (*domain.TreeResult, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (*domain.TreeResult, error)
	CreateTask(ctx context.Context, in CreateTaskInput) (*domain.TreeResult, error)
	UpdateRow(ctx context.Context, in UpdateRowInput) (*domain.TreeResult, error)
	DeleteRow(ctx context.Context, in DeleteRowInput) (*domain.TreeResult, error)
}

type TaskStepService interface {
	ListByTask(ctx context.Context, taskID int64) ([]domain.TaskStep, error)
	Add(ctx context.Context, in AddTaskStepInput) (*domain.TaskStep, error)
	UpdateStatus(ctx context.Context, stepID int64, status domain.StatusRef) error
}

type StatusService interface {
	List(ctx context.Context) ([]domain.Status, error)
	Create(ctx context.Context, name, color string) (*domain.Status, error)
}

type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, name, email string) (*domain.User, error)
}

type CreateProjectInput struct {
	Name    string
	OwnerID string
	Query   domain.TreeQuery
}

type CreateProductInput struct {
	ProjectID int64
	Name      string
	CreatedBy string
	Query     domain.TreeQuery
}

type CreateTaskInput struct {
	ProductID  int64
	Title      string
	Status     domain.StatusRef // zero value means the default status
	CreatedBy  string
	AssigneeID *int64
	Query      domain.TreeQuery
}

// UpdateRowInput renames a project or product, or patches a task. Name is
// the task title for task rows. Status and Assignee apply to tasks only.
type UpdateRowInput struct {
	RowType  domain.RowType
	ID       int64
	Name     domain.Optional[string]
	Status   domain.Optional[domain.StatusRef]
	Assignee domain.Optional[*int64]
	Query    domain.TreeQuery
}

type DeleteRowInput struct {
	RowType domain.RowType
	ID      int64
	Query   domain.TreeQuery
}

type AddTaskStepInput struct {
	TaskID     int64
	Content    string
	Status     domain.StatusRef
	CreatedBy  string
	AssigneeID *int64
}

// ImportService creates whole subtrees from an import document.
type ImportService interface {
	Import(ctx context.Context, schema *importer.Schema, opts ImportOptions) (*ImportResult, error)
}

type ImportOptions struct {
	// DefaultOwner fills owner_id and created_by when the document omits them.
	DefaultOwner string
	// DryRun validates and counts without writing.
	DryRun bool
}

type ImportResult struct {
	Counts     importer.Counts
	ProjectIDs []int64
}
