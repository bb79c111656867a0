package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
)

// Resolver turns a tree query into the ordered list of qualifying task
// records. Literal status and assignee filters are resolved to ids here,
// once, before the joined query runs.
type Resolver struct {
	tasks    repository.TaskRepo
	statuses repository.StatusRepo
	users    repository.UserRepo
}

func NewResolver(tasks repository.TaskRepo, statuses repository.StatusRepo, users repository.UserRepo) *Resolver {
	return &Resolver{tasks: tasks, statuses: statuses, users: users}
}

// Resolve returns every task matching all supplied filters and the keyword.
// A filter list whose values resolve to nothing yields no records.
func (r *Resolver) Resolve(ctx context.Context, q domain.TreeQuery) ([]domain.TaskRecord, error) {
	q = q.Normalized()

	statusIDs, err := resolveFilter(ctx, q.Statuses, r.statuses.FindIDsByNames)
	if err != nil {
		return nil, fmt.Errorf("resolving status filter: %w", err)
	}
	assigneeIDs, err := resolveFilter(ctx, q.Assignees, r.users.FindIDsByNames)
	if err != nil {
		return nil, fmt.Errorf("resolving assignee filter: %w", err)
	}

	return r.tasks.ListWithParents(ctx, repository.TaskQuery{
		Keyword:     q.Keyword,
		StatusIDs:   statusIDs,
		AssigneeIDs: assigneeIDs,
	})
}

// resolveFilter returns nil for "no filter" and a non-nil, possibly empty,
// id set otherwise. An id value matches the row with that id and any row
// whose name is the same digits, so a status named "2024" stays reachable.
func resolveFilter(
	ctx context.Context,
	values []domain.FilterValue,
	lookup func(ctx context.Context, names []string) ([]int64, error),
) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids, names := domain.SplitFilterValues(values)
	// All-digit values also match a display name spelled with those digits.
	for _, id := range ids {
		names = append(names, strconv.FormatInt(id, 10))
	}
	if len(names) > 0 {
		found, err := lookup(ctx, names)
		if err != nil {
			return nil, err
		}
		ids = append(ids, found...)
	}

	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
