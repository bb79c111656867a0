package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	statuses *SQLiteStatusRepo
	users    *SQLiteUserRepo
	projects *SQLiteProjectRepo
	products *SQLiteProductRepo
	tasks    *SQLiteTaskRepo
	steps    *SQLiteTaskStepRepo
}

func newTaskFixture(db *sql.DB) taskFixture {
	return taskFixture{
		statuses: NewSQLiteStatusRepo(db),
		users:    NewSQLiteUserRepo(db),
		projects: NewSQLiteProjectRepo(db),
		products: NewSQLiteProductRepo(db),
		tasks:    NewSQLiteTaskRepo(db),
		steps:    NewSQLiteTaskStepRepo(db),
	}
}

func (f taskFixture) project(t *testing.T, name string) *domain.Project {
	t.Helper()
	p := testutil.NewTestProject(name)
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p
}

func (f taskFixture) product(t *testing.T, projectID int64, name string) *domain.Product {
	t.Helper()
	p := testutil.NewTestProduct(projectID, name)
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f taskFixture) task(t *testing.T, productID int64, title string, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(productID, title, opts...)
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func (f taskFixture) statusID(t *testing.T, name string) int64 {
	t.Helper()
	id, err := f.statuses.FindOrCreate(context.Background(), name)
	require.NoError(t, err)
	return id
}

func recordTaskIDs(records []domain.TaskRecord) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.Task.ID
	}
	return ids
}

func TestTaskRepo_CreateAndGetByID(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	proj := f.project(t, "Alpha")
	prod := f.product(t, proj.ID, "Widget")
	open := f.statusID(t, "open")
	task := f.task(t, prod.ID, "Fix bug", testutil.WithStatusID(open))

	got, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix bug", got.Title)
	assert.Equal(t, "open", got.StatusName)
	require.NotNil(t, got.StatusID)
	assert.Equal(t, open, *got.StatusID)
	assert.Nil(t, got.AssigneeID)

	_, err = f.tasks.GetByID(ctx, task.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_UpdateFieldsWritesOnlySuppliedFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := newTaskFixture(db)
	ctx := context.Background()

	ann := &domain.User{Name: "Ann"}
	require.NoError(t, f.users.Create(ctx, ann))
	proj := f.project(t, "Alpha")
	prod := f.product(t, proj.ID, "Widget")
	task := f.task(t, prod.ID, "Fix bug", testutil.WithStatusID(f.statusID(t, "open")), testutil.WithAssignee(ann.ID))

	done := f.statusID(t, "done")
	require.NoError(t, f.tasks.UpdateFields(ctx, task.ID, TaskFields{StatusID: domain.Some(&done)}))

	got, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.StatusName)
	assert.Equal(t, "Fix bug", got.Title)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, ann.ID, *got.AssigneeID)

	// Explicitly clearing the assignee.
	var none *int64
	require.NoError(t, f.tasks.UpdateFields(ctx, task.ID, TaskFields{Assignee: domain.Some(none)}))
	got, err = f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
	assert.Equal(t, "done", got.StatusName)

	assert.NoError(t, f.tasks.UpdateFields(ctx, task.ID, TaskFields{}))
	assert.ErrorIs(t, f.tasks.UpdateFields(ctx, 9999, TaskFields{}), domain.ErrNotFound)
	assert.ErrorIs(t, f.tasks.UpdateFields(ctx, 9999, TaskFields{Title: domain.Some("x")}), domain.ErrNotFound)
}

func TestTaskRepo_ListWithParents_KeywordPullsInDescendants(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	alpha := f.project(t, "Alpha")
	widget := f.product(t, alpha.ID, "Widget")
	fix := f.task(t, widget.ID, "Fix bug", testutil.WithStatusID(f.statusID(t, "open")))
	beta := f.project(t, "Beta")
	gadget := f.product(t, beta.ID, "Gadget")
	f.task(t, gadget.ID, "Ship it")

	records, err := f.tasks.ListWithParents(ctx, TaskQuery{Keyword: "alpha"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fix.ID, records[0].Task.ID)
	assert.Equal(t, "Widget", records[0].Product.Name)
	assert.Equal(t, "Alpha", records[0].Project.Name)

	closed := f.statusID(t, "closed")
	records, err = f.tasks.ListWithParents(ctx, TaskQuery{Keyword: "alpha", StatusIDs: []int64{closed}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTaskRepo_ListWithParents_MatchesStatusAndAssigneeNames(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	zed := &domain.User{Name: "Zed Quill"}
	require.NoError(t, f.users.Create(ctx, zed))

	proj := f.project(t, "Ops")
	prod := f.product(t, proj.ID, "Infra")
	blocked := f.task(t, prod.ID, "Rotate keys", testutil.WithStatusID(f.statusID(t, "Blocked")))
	assigned := f.task(t, prod.ID, "Patch hosts", testutil.WithAssignee(zed.ID))
	f.task(t, prod.ID, "Other")

	records, err := f.tasks.ListWithParents(ctx, TaskQuery{Keyword: "block"})
	require.NoError(t, err)
	assert.Equal(t, []int64{blocked.ID}, recordTaskIDs(records))

	records, err = f.tasks.ListWithParents(ctx, TaskQuery{Keyword: "quill"})
	require.NoError(t, err)
	assert.Equal(t, []int64{assigned.ID}, recordTaskIDs(records))

	records, err = f.tasks.ListWithParents(ctx, TaskQuery{AssigneeIDs: []int64{zed.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{assigned.ID}, recordTaskIDs(records))

	records, err = f.tasks.ListWithParents(ctx, TaskQuery{AssigneeIDs: []int64{}})
	require.NoError(t, err)
	assert.Empty(t, records, "an empty resolved filter matches nothing")
}

func TestTaskRepo_ListWithParents_KeywordFoldsNonASCII(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	proj := f.project(t, "Ärger Projekt")
	prod := f.product(t, proj.ID, "Straße")
	task := f.task(t, prod.ID, "Prüfen")
	other := f.project(t, "Plain")
	f.task(t, f.product(t, other.ID, "Misc").ID, "Nothing")

	for _, kw := range []string{"ärger", "ÄRGER", "Ärger", "projekt", "straße", "prüf", "PRÜF"} {
		records, err := f.tasks.ListWithParents(ctx, TaskQuery{Keyword: kw})
		require.NoError(t, err)
		assert.Equal(t, []int64{task.ID}, recordTaskIDs(records), "keyword=%q", kw)
	}
}

func TestTaskRepo_ListWithParents_OrderFollowsAncestry(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	p1 := f.project(t, "First")
	p2 := f.project(t, "Second")
	p2a := f.product(t, p2.ID, "P2-A")
	p1a := f.product(t, p1.ID, "P1-A")
	p1b := f.product(t, p1.ID, "P1-B")

	t1 := f.task(t, p2a.ID, "late project task")
	t2 := f.task(t, p1b.ID, "second product task")
	t3 := f.task(t, p1a.ID, "first product task")
	t4 := f.task(t, p1a.ID, "first product task 2")

	records, err := f.tasks.ListWithParents(ctx, TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{t3.ID, t4.ID, t2.ID, t1.ID}, recordTaskIDs(records))
}

func TestTaskRepo_IDsAndDeletes(t *testing.T) {
	f := newTaskFixture(testutil.NewTestDB(t))
	ctx := context.Background()

	proj := f.project(t, "Alpha")
	a := f.product(t, proj.ID, "A")
	b := f.product(t, proj.ID, "B")
	t1 := f.task(t, a.ID, "one")
	t2 := f.task(t, b.ID, "two")

	ids, err := f.tasks.ListIDsByProducts(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{t1.ID, t2.ID}, ids)

	ids, err = f.tasks.ListIDsByProducts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, f.tasks.Delete(ctx, t1.ID))
	assert.ErrorIs(t, f.tasks.Delete(ctx, t1.ID), domain.ErrNotFound)
	require.NoError(t, f.tasks.DeleteByIDs(ctx, []int64{t2.ID}))
	_, err = f.tasks.GetByID(ctx, t2.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
