package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/importer"
)

type importService struct {
	mutator  *mutator
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{mutator: &mutator{uow: uow}, observer: useCaseObserverOrNoop(observers)}
}

// Import writes every project in schema inside one transaction. A single
// bad row aborts the whole document.
func (s *importService) Import(ctx context.Context, schema *importer.Schema, opts ImportOptions) (res *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"dry_run": opts.DryRun}
	defer func() { observe(ctx, s.observer, "tree.import", startedAt, fields, err) }()

	if schema == nil {
		return nil, domain.NewValidationError("schema", "is required")
	}
	if errs := importer.ValidateSchema(schema); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, errors.Join(errs...))
	}

	res = &ImportResult{Counts: schema.Counts()}
	fields["projects"] = res.Counts.Projects
	fields["tasks"] = res.Counts.Tasks
	if opts.DryRun {
		return res, nil
	}

	err = s.mutator.within(ctx, func(ctx context.Context, r txRepos) error {
		for _, pi := range schema.Projects {
			p := &domain.Project{Name: strings.TrimSpace(pi.Name), OwnerID: domain.CoalesceStr(pi.OwnerID, opts.DefaultOwner)}
			if err := r.projects.Create(ctx, p); err != nil {
				return err
			}
			res.ProjectIDs = append(res.ProjectIDs, p.ID)
			for _, pri := range pi.Products {
				if err := importProduct(ctx, r, p, pri, opts); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing tree: %w", err)
	}
	return res, nil
}

func importProduct(ctx context.Context, r txRepos, p *domain.Project, in importer.ProductImport, opts ImportOptions) error {
	pr := &domain.Product{
		ProjectID: p.ID,
		Name:      strings.TrimSpace(in.Name),
		CreatedBy: domain.CoalesceStr(in.CreatedBy, opts.DefaultOwner),
	}
	if err := r.products.Create(ctx, pr); err != nil {
		return err
	}
	for _, ti := range in.Tasks {
		statusID, err := resolveStatusID(ctx, r.statuses, domain.ParseStatusRef(ti.Status))
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, r.users, ti.AssigneeID); err != nil {
			return err
		}
		t := &domain.Task{
			ProductID:  pr.ID,
			Title:      strings.TrimSpace(ti.Title),
			StatusID:   &statusID,
			AssigneeID: ti.AssigneeID,
			CreatedBy:  domain.CoalesceStr(ti.CreatedBy, opts.DefaultOwner),
		}
		if err := r.tasks.Create(ctx, t); err != nil {
			return err
		}
		for _, si := range ti.Steps {
			stepStatus, err := resolveStatusID(ctx, r.statuses, domain.ParseStatusRef(si.Status))
			if err != nil {
				return err
			}
			if err := checkAssignee(ctx, r.users, si.AssigneeID); err != nil {
				return err
			}
			step := &domain.TaskStep{
				TaskID:     t.ID,
				Content:    strings.TrimSpace(si.Content),
				StatusID:   &stepStatus,
				AssigneeID: si.AssigneeID,
				CreatedBy:  t.CreatedBy,
			}
			if err := r.steps.Create(ctx, step); err != nil {
				return err
			}
		}
	}
	return nil
}
