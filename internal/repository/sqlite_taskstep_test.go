package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStepRepo_ListByTaskInCreationOrder(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	proj := f.project(t, "Alpha")
	prod := f.product(t, proj.ID, "Widget")
	task := f.task(t, prod.ID, "Fix bug")
	other := f.task(t, prod.ID, "Other")

	first := testutil.NewTestTaskStep(task.ID, "reproduced")
	second := testutil.NewTestTaskStep(task.ID, "patched")
	require.NoError(t, f.steps.Create(ctx, first))
	require.NoError(t, f.steps.Create(ctx, second))
	require.NoError(t, f.steps.Create(ctx, testutil.NewTestTaskStep(other.ID, "unrelated")))

	steps, err := f.steps.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "reproduced", steps[0].Content)
	assert.Equal(t, "patched", steps[1].Content)
	assert.Empty(t, steps[0].StatusName)

	done := f.statusID(t, "done")
	require.NoError(t, f.steps.UpdateStatus(ctx, second.ID, &done))
	steps, err = f.steps.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", steps[1].StatusName)

	assert.ErrorIs(t, f.steps.UpdateStatus(ctx, 9999, &done), domain.ErrNotFound)
}

// TestCascadeOrder_NoOrphans deletes a project tree through the repositories
// in dependency order and checks that no child rows survive.
func TestCascadeOrder_NoOrphans(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := newTaskFixture(db)
	ctx := context.Background()

	proj := f.project(t, "Alpha")
	keep := f.project(t, "Keep")
	a := f.product(t, proj.ID, "A")
	b := f.product(t, proj.ID, "B")
	kept := f.product(t, keep.ID, "Kept")
	t1 := f.task(t, a.ID, "one")
	t2 := f.task(t, b.ID, "two")
	t3 := f.task(t, kept.ID, "three")
	for _, id := range []int64{t1.ID, t2.ID, t3.ID} {
		require.NoError(t, f.steps.Create(ctx, testutil.NewTestTaskStep(id, "step")))
	}

	productIDs, err := f.products.ListIDsByProject(ctx, proj.ID)
	require.NoError(t, err)
	taskIDs, err := f.tasks.ListIDsByProducts(ctx, productIDs)
	require.NoError(t, err)
	require.NoError(t, f.steps.DeleteByTaskIDs(ctx, taskIDs))
	require.NoError(t, f.tasks.DeleteByIDs(ctx, taskIDs))
	require.NoError(t, f.products.DeleteByIDs(ctx, productIDs))
	require.NoError(t, f.projects.Delete(ctx, proj.ID))

	var orphans int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM task_steps WHERE task_id NOT IN (SELECT id FROM tasks)`).Scan(&orphans))
	assert.Zero(t, orphans)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE product_id NOT IN (SELECT id FROM products)`).Scan(&orphans))
	assert.Zero(t, orphans)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM products WHERE project_id NOT IN (SELECT id FROM projects)`).Scan(&orphans))
	assert.Zero(t, orphans)

	steps, err := f.steps.ListByTask(ctx, t3.ID)
	require.NoError(t, err)
	assert.Len(t, steps, 1, "other projects are untouched")
}
