package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
	"github.com/alexanderramin/opstree/internal/tree"
)

// TreeDeps wires the facade to the store. Conn serves reads outside a
// transaction, UoW scopes mutations, and Pinger (optional) is checked before
// each call so a stale connection is replaced first.
type TreeDeps struct {
	Conn   db.DBTX
	UoW    db.UnitOfWork
	Pinger db.Pinger
}

type treeService struct {
	projects repository.ProjectRepo
	products repository.ProductRepo
	resolver *Resolver
	mutator  *mutator
	pinger   db.Pinger
	observer UseCaseObserver
}

func NewTreeService(deps TreeDeps, observers ...UseCaseObserver) TreeService {
	return &treeService{
		projects: repository.NewSQLiteProjectRepo(deps.Conn),
		products: repository.NewSQLiteProductRepo(deps.Conn),
		resolver: NewResolver(
			repository.NewSQLiteTaskRepo(deps.Conn),
			repository.NewSQLiteStatusRepo(deps.Conn),
			repository.NewSQLiteUserRepo(deps.Conn),
		),
		mutator:  &mutator{uow: deps.UoW},
		pinger:   deps.Pinger,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *treeService) GetTree(ctx context.Context, q domain.TreeQuery) (res *domain.TreeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() { observe(ctx, s.observer, "tree.get", startedAt, fields, err) }()

	if err = s.ping(ctx); err != nil {
		return nil, err
	}
	return s.read(ctx, q, fields)
}

func (s *treeService) CreateProject(ctx context.Context, in CreateProjectInput) (res *domain.TreeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"row_type": string(domain.RowProject)}
	defer func() { observe(ctx, s.observer, "tree.create_project", startedAt, fields, err) }()

	name, err := domain.ValidateName("name", in.Name)
	if err != nil {
		return nil, err
	}
	if err = s.ping(ctx); err != nil {
		return nil, err
	}
	p := &domain.Project{Name: name, OwnerID: in.OwnerID}
	if err = s.mutator.createProject(ctx, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	fields["row_id"] = p.ID
	return s.read(ctx, in.Query, fields)
}

func (s *treeService) CreateProduct(ctx context.Context, in CreateProductInput) (res *domain.TreeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"row_type": string(domain.RowProduct), "parent_id": in.ProjectID}
	defer func() { observe(ctx, s.observer, "tree.create_product", startedAt, fields, err) }()

	if err = requireID("projectId", in.ProjectID); err != nil {
		return nil, err
	}
	name, err := domain.ValidateName("name", in.Name)
	if err != nil {
		return nil, err
	}
	if err = s.ping(ctx); err != nil {
		return nil, err
	}
	p := &domain.Product{ProjectID: in.ProjectID, Name: name, CreatedBy: in.CreatedBy}
	if err = s.mutator.createProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	fields["row_id"] = p.ID
	return s.read(ctx, in.Query, fields)
}

func (s *treeService) CreateTask(ctx context.Context, in CreateTaskInput) (res *domain.TreeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"row_type": string(domain.RowTask), "parent_id": in.ProductID}
	defer func() { observe(ctx, s.observer, "tree.create_task", startedAt, fields, err) }()

	if err = requireID("productId", in.ProductID); err != nil {
		return nil, err
	}
	title, err := domain.ValidateName("title", in.Title)
	if err != nil {
		return nil, err
	}
	if err = s.ping(ctx); err != nil {
		return nil, err
	}
	t := &domain.Task{
		ProductID:  in.ProductID,
		Title:      title,
		CreatedBy:  in.CreatedBy,
		AssigneeID: in.AssigneeID,
	}
	if err = s.mutator.createTask(ctx, t, in.Status); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	fields["row_id"] = t.ID
	return s.read(ctx, in.Query, fields)
}

func (s *treeService) UpdateRow(ctx context.Context, in UpdateRowInput) (res *domain.TreeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"row_type": string(in.RowType), "row_id": in.ID}
	defer func() { observe(ctx, s.observer, "tree.update_row", startedAt, fields, err) }()

	if err = requireID("id", in.ID); err != nil {
		return nil, err
	}

	var apply func(ctx context.Context) error
	switch in.RowType {
	case domain.RowProject, domain.RowProduct:
		if in.Status.Set || in.Assignee.Set {
			return nil, domain.NewValidationError("rowType", "only tasks have a status or assignee")
		}
		if !in.Name.Set {
			return nil, domain.NewValidationError("name", "is required")
		}
		name, verr := domain.ValidateName("name", in.Name.Value)
		if verr != nil {
			return nil, verr
		}
		if in.RowType == domain.RowProject {
			apply = func(ctx context.Context) error { return s.mutator.renameProject(ctx, in.ID, name) }
		} else {
			apply = func(ctx context.Context) error { return s.mutator.renameProduct(ctx, in.ID, name) }
		}
	case domain.RowTask:
		patch := domain.TaskPatch{Status: in.Status, Assignee: in.Assignee}
		if in.Name.Set {
			title, verr := domain.ValidateName("title", in.Name.Value)
			if verr != nil {
				return nil, verr
			}
			patch.Title = domain.Some(title)
		}
		fields["patched"] = !patch.Empty()
		apply = func(ctx context.Context) error { return s.mutator.updateTaskFields(ctx, in.ID, patch) }
	default:
		return nil, domain.NewValidationError("rowType", fmt.Sprintf("unknown row type %q", in.RowType))
	}

	if err = s.ping(ctx); err != nil {
		return nil, err
	}
	if err = apply(ctx); err != nil {
		return nil, fmt.Errorf("updating %s: %w", in.RowType, err)
	}
	return s.read(ctx, in.Query, fields)
}

func (s *treeService) DeleteRow(ctx context.Context, in DeleteRowInput) (res *domain.TreeResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"row_type": string(in.RowType), "row_id": in.ID}
	defer func() { observe(ctx, s.observer, "tree.delete_row", startedAt, fields, err) }()

	if err = requireID("id", in.ID); err != nil {
		return nil, err
	}

	var apply func(ctx context.Context, id int64) error
	switch in.RowType {
	case domain.RowProject:
		apply = s.mutator.deleteProjectTree
	case domain.RowProduct:
		apply = s.mutator.deleteProductTree
	case domain.RowTask:
		apply = s.mutator.deleteTaskTree
	default:
		return nil, domain.NewValidationError("rowType", fmt.Sprintf("unknown row type %q", in.RowType))
	}

	if err = s.ping(ctx); err != nil {
		return nil, err
	}
	if err = apply(ctx, in.ID); err != nil {
		return nil, fmt.Errorf("deleting %s: %w", in.RowType, err)
	}
	return s.read(ctx, in.Query, fields)
}

// read resolves and builds the tree. It is not transactional: a concurrent
// mutation may be observed half-way between two of its queries.
func (s *treeService) read(ctx context.Context, q domain.TreeQuery, fields map[string]any) (*domain.TreeResult, error) {
	q = q.Normalized()

	records, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("resolving tasks: %w", err)
	}

	var empties *tree.Empties
	if q.IncludeEmpty {
		projects, err := s.projects.List(ctx, q.Keyword)
		if err != nil {
			return nil, fmt.Errorf("listing projects for include-empty: %w", err)
		}
		products, err := s.products.List(ctx, q.Keyword)
		if err != nil {
			return nil, fmt.Errorf("listing products for include-empty: %w", err)
		}
		empties = &tree.Empties{Projects: projects, Products: products}
	}

	built := tree.Build(records, empties)
	fields["task_count"] = built.TaskCount
	fields["row_count"] = len(built.Rows)
	fields["skipped"] = built.Skipped
	res := built.TreeResult
	return &res, nil
}

func (s *treeService) ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("checking store: %w", err)
	}
	return nil
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return domain.NewValidationError(field, "is required")
	}
	return nil
}
