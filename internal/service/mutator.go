package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
)

// txRepos are repositories bound to one transaction.
type txRepos struct {
	projects repository.ProjectRepo
	products repository.ProductRepo
	tasks    repository.TaskRepo
	steps    repository.TaskStepRepo
	statuses repository.StatusRepo
	users    repository.UserRepo
}

func newTxRepos(tx db.DBTX) txRepos {
	return txRepos{
		projects: repository.NewSQLiteProjectRepo(tx),
		products: repository.NewSQLiteProductRepo(tx),
		tasks:    repository.NewSQLiteTaskRepo(tx),
		steps:    repository.NewSQLiteTaskStepRepo(tx),
		statuses: repository.NewSQLiteStatusRepo(tx),
		users:    repository.NewSQLiteUserRepo(tx),
	}
}

// mutator applies structural changes, each inside a single transaction.
// Any error rolls the whole operation back.
type mutator struct {
	uow db.UnitOfWork
}

func (m *mutator) within(ctx context.Context, fn func(ctx context.Context, r txRepos) error) error {
	return m.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, newTxRepos(tx))
	})
}

func (m *mutator) createProject(ctx context.Context, p *domain.Project) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		return r.projects.Create(ctx, p)
	})
}

func (m *mutator) createProduct(ctx context.Context, p *domain.Product) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		if _, err := r.projects.GetByID(ctx, p.ProjectID); err != nil {
			return err
		}
		return r.products.Create(ctx, p)
	})
}

func (m *mutator) createTask(ctx context.Context, t *domain.Task, status domain.StatusRef) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		if _, err := r.products.GetByID(ctx, t.ProductID); err != nil {
			return err
		}
		statusID, err := resolveStatusID(ctx, r.statuses, status)
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, r.users, t.AssigneeID); err != nil {
			return err
		}
		t.StatusID = &statusID
		return r.tasks.Create(ctx, t)
	})
}

func (m *mutator) renameProject(ctx context.Context, id int64, name string) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		return r.projects.Rename(ctx, id, name)
	})
}

func (m *mutator) renameProduct(ctx context.Context, id int64, name string) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		return r.products.Rename(ctx, id, name)
	})
}

// updateTaskFields writes only the supplied fields of patch.
func (m *mutator) updateTaskFields(ctx context.Context, id int64, patch domain.TaskPatch) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		fields := repository.TaskFields{
			Title:    patch.Title,
			Assignee: patch.Assignee,
		}
		if patch.Status.Set {
			statusID, err := resolveStatusID(ctx, r.statuses, patch.Status.Value)
			if err != nil {
				return err
			}
			fields.StatusID = domain.Some(&statusID)
		}
		if patch.Assignee.Set {
			if err := checkAssignee(ctx, r.users, patch.Assignee.Value); err != nil {
				return err
			}
		}
		return r.tasks.UpdateFields(ctx, id, fields)
	})
}

// deleteProjectTree removes task steps, tasks, products and finally the
// project, in that order.
func (m *mutator) deleteProjectTree(ctx context.Context, id int64) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		if _, err := r.projects.GetByID(ctx, id); err != nil {
			return err
		}
		productIDs, err := r.products.ListIDsByProject(ctx, id)
		if err != nil {
			return err
		}
		taskIDs, err := r.tasks.ListIDsByProducts(ctx, productIDs)
		if err != nil {
			return err
		}
		if err := r.steps.DeleteByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := r.tasks.DeleteByIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := r.products.DeleteByIDs(ctx, productIDs); err != nil {
			return err
		}
		return r.projects.Delete(ctx, id)
	})
}

func (m *mutator) deleteProductTree(ctx context.Context, id int64) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		if _, err := r.products.GetByID(ctx, id); err != nil {
			return err
		}
		taskIDs, err := r.tasks.ListIDsByProducts(ctx, []int64{id})
		if err != nil {
			return err
		}
		if err := r.steps.DeleteByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := r.tasks.DeleteByIDs(ctx, taskIDs); err != nil {
			return err
		}
		return r.products.Delete(ctx, id)
	})
}

func (m *mutator) deleteTaskTree(ctx context.Context, id int64) error {
	return m.within(ctx, func(ctx context.Context, r txRepos) error {
		if _, err := r.tasks.GetByID(ctx, id); err != nil {
			return err
		}
		if err := r.steps.DeleteByTaskIDs(ctx, []int64{id}); err != nil {
			return err
		}
		return r.tasks.Delete(ctx, id)
	})
}

// resolveStatusID maps a status reference to a row id. Labels are created
// on demand; the zero reference yields the default status. An id with no
// row falls back to a status named by its digits.
func resolveStatusID(ctx context.Context, statuses repository.StatusRepo, ref domain.StatusRef) (int64, error) {
	switch {
	case ref.ID != 0:
		s, err := statuses.GetByID(ctx, ref.ID)
		if err == nil {
			return s.ID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		// A label made only of digits is stored under its name.
		ids, lerr := statuses.FindIDsByNames(ctx, []string{strconv.FormatInt(ref.ID, 10)})
		if lerr != nil {
			return 0, lerr
		}
		if len(ids) == 0 {
			return 0, err
		}
		return ids[0], nil
	case ref.Label != "":
		return statuses.FindOrCreate(ctx, ref.Label)
	default:
		return statuses.DefaultID(ctx)
	}
}

// checkAssignee verifies that a non-nil assignee exists.
func checkAssignee(ctx context.Context, users repository.UserRepo, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := users.GetByID(ctx, *id)
	return err
}
