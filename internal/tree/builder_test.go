package tree

import (
	"testing"
	"time"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func project(id int64, name string) domain.Project {
	return domain.Project{ID: id, Name: name, CreatedAt: base, UpdatedAt: base}
}

func product(id, projectID int64, name string) domain.Product {
	return domain.Product{ID: id, ProjectID: projectID, Name: name, CreatedAt: base, UpdatedAt: base}
}

func record(p domain.Project, pr domain.Product, taskID int64, title string) domain.TaskRecord {
	return domain.TaskRecord{
		Project: p,
		Product: pr,
		Task:    domain.Task{ID: taskID, ProductID: pr.ID, Title: title, StatusName: "open", CreatedAt: base, UpdatedAt: base},
	}
}

type rowKey struct {
	Type domain.RowType
	ID   int64
}

func keys(rows []domain.TreeRow) []rowKey {
	out := make([]rowKey, len(rows))
	for i, r := range rows {
		out[i] = rowKey{r.RowType, r.ID}
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	res := Build(nil, nil)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows, "rows serialize as [] rather than null")
	assert.Zero(t, res.TaskCount)
}

func TestBuild_DeduplicatesAncestors(t *testing.T) {
	alpha := project(1, "Alpha")
	widget := product(10, 1, "Widget")
	gizmo := product(11, 1, "Gizmo")

	res := Build([]domain.TaskRecord{
		record(alpha, widget, 100, "a"),
		record(alpha, widget, 101, "b"),
		record(alpha, gizmo, 102, "c"),
		record(alpha, widget, 100, "a"), // duplicate task
	}, nil)

	assert.Equal(t, []rowKey{
		{domain.RowProject, 1},
		{domain.RowProduct, 10},
		{domain.RowTask, 100},
		{domain.RowTask, 101},
		{domain.RowProduct, 11},
		{domain.RowTask, 102},
	}, keys(res.Rows))
	assert.Equal(t, 3, res.TaskCount)
	assert.Zero(t, res.Skipped)
}

func TestBuild_PreservesFirstSeenOrder(t *testing.T) {
	p2 := project(2, "Second")
	p1 := project(1, "First")
	a := product(20, 2, "A")
	b := product(10, 1, "B")

	// Project 2 is encountered first, so it is emitted first even though its
	// id is larger.
	res := Build([]domain.TaskRecord{
		record(p2, a, 200, "x"),
		record(p1, b, 100, "y"),
		record(p2, a, 201, "z"),
	}, nil)

	assert.Equal(t, []rowKey{
		{domain.RowProject, 2},
		{domain.RowProduct, 20},
		{domain.RowTask, 200},
		{domain.RowTask, 201},
		{domain.RowProject, 1},
		{domain.RowProduct, 10},
		{domain.RowTask, 100},
	}, keys(res.Rows))
}

func TestBuild_RowShape(t *testing.T) {
	assignee := int64(7)
	rec := record(project(1, "Alpha"), product(10, 1, "Widget"), 100, "Fix bug")
	rec.Task.AssigneeID = &assignee

	res := Build([]domain.TaskRecord{rec}, nil)
	require.Len(t, res.Rows, 3)

	proj, prod, task := res.Rows[0], res.Rows[1], res.Rows[2]
	assert.Nil(t, proj.ParentID)
	assert.Equal(t, 0, proj.Level)
	assert.True(t, proj.HasChildren)

	require.NotNil(t, prod.ParentID)
	assert.Equal(t, int64(1), *prod.ParentID)
	assert.Equal(t, 1, prod.Level)
	assert.True(t, prod.HasChildren)

	require.NotNil(t, task.ParentID)
	assert.Equal(t, int64(10), *task.ParentID)
	assert.Equal(t, 2, task.Level)
	assert.Equal(t, "Fix bug", task.Name)
	assert.Equal(t, "open", task.Status)
	assert.Equal(t, &assignee, task.AssigneeID)
	assert.False(t, task.HasChildren)
}

func TestBuild_IncludeEmptyFillsInWithoutOverwriting(t *testing.T) {
	alpha := project(1, "Alpha")
	widget := product(10, 1, "Widget")

	staleAlpha := alpha
	staleAlpha.Name = "stale"

	res := Build([]domain.TaskRecord{record(alpha, widget, 100, "Fix bug")}, &Empties{
		Projects: []domain.Project{staleAlpha, project(2, "Beta")},
		Products: []domain.ProductWithProject{
			{Product: product(10, 1, "stale"), Project: staleAlpha},
			{Product: product(11, 1, "Empty product"), Project: staleAlpha},
			{Product: product(30, 3, "Orphan-free"), Project: project(3, "Gamma")},
		},
	})

	assert.Equal(t, []rowKey{
		{domain.RowProject, 1},
		{domain.RowProduct, 10},
		{domain.RowTask, 100},
		{domain.RowProduct, 11},
		{domain.RowProject, 2},
		{domain.RowProject, 3},
		{domain.RowProduct, 30},
	}, keys(res.Rows))

	byKey := map[rowKey]domain.TreeRow{}
	for _, r := range res.Rows {
		byKey[rowKey{r.RowType, r.ID}] = r
	}
	assert.Equal(t, "Alpha", byKey[rowKey{domain.RowProject, 1}].Name, "record pass wins")
	assert.Equal(t, "Widget", byKey[rowKey{domain.RowProduct, 10}].Name)
	assert.False(t, byKey[rowKey{domain.RowProduct, 11}].HasChildren)
	assert.False(t, byKey[rowKey{domain.RowProject, 2}].HasChildren)
	assert.True(t, byKey[rowKey{domain.RowProject, 3}].HasChildren)
	assert.False(t, byKey[rowKey{domain.RowProduct, 30}].HasChildren)
	assert.Equal(t, 1, res.TaskCount, "fill-in never contributes tasks")
}

func TestBuild_HasChildrenMatchesEmittedRows(t *testing.T) {
	alpha := project(1, "Alpha")
	res := Build([]domain.TaskRecord{
		record(alpha, product(10, 1, "W"), 100, "a"),
	}, &Empties{Products: []domain.ProductWithProject{
		{Product: product(11, 1, "X"), Project: alpha},
	}})

	for i, row := range res.Rows {
		if row.RowType == domain.RowTask {
			continue
		}
		childType := domain.RowProduct
		if row.RowType == domain.RowProduct {
			childType = domain.RowTask
		}
		hasChild := false
		for _, next := range res.Rows[i+1:] {
			if next.RowType == row.RowType || (row.RowType == domain.RowProduct && next.RowType == domain.RowProject) {
				break
			}
			if next.RowType == childType && next.ParentID != nil && *next.ParentID == row.ID {
				hasChild = true
			}
		}
		assert.Equal(t, hasChild, row.HasChildren, "row %s %d", row.RowType, row.ID)
	}
}

func TestBuild_SkipsUnplaceableNodes(t *testing.T) {
	alpha := project(1, "Alpha")
	widget := product(10, 1, "Widget")
	rec := record(alpha, widget, 100, "ok")

	// A task linked to a product that never reaches the accumulator.
	stray := record(alpha, widget, 101, "stray")
	stray.Task.ProductID = 99

	res := Build([]domain.TaskRecord{rec, stray}, nil)
	assert.Equal(t, []rowKey{
		{domain.RowProject, 1},
		{domain.RowProduct, 10},
		{domain.RowTask, 100},
	}, keys(res.Rows))
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.TaskCount)
}

func TestOrderedIndex_UpsertIsInsertIfAbsent(t *testing.T) {
	ix := newOrderedIndex[string, int](0)
	assert.True(t, ix.upsert("b", 1))
	assert.True(t, ix.upsert("a", 2))
	assert.False(t, ix.upsert("b", 3))

	v, ok := ix.get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"b", "a"}, ix.keys())
	assert.Equal(t, 2, ix.len())
}
