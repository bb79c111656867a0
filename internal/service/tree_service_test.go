package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
	"github.com/alexanderramin/opstree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeService_ScenarioIncludeEmptyThenDeleteProduct(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	res, err := svc.GetTree(ctx, domain.TreeQuery{IncludeEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, []rowKey{
		{domain.RowProject, s.project.ID},
		{domain.RowProduct, s.product.ID},
		{domain.RowTask, s.task.ID},
	}, rowKeys(res))
	assert.True(t, res.Rows[0].HasChildren)
	assert.True(t, res.Rows[1].HasChildren)
	assert.Equal(t, "open", res.Rows[2].Status)
	assert.Equal(t, 1, res.TaskCount)

	res, err = svc.DeleteRow(ctx, DeleteRowInput{
		RowType: domain.RowProduct,
		ID:      s.product.ID,
		Query:   domain.TreeQuery{IncludeEmpty: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []rowKey{{domain.RowProject, s.project.ID}}, rowKeys(res))
	assert.False(t, res.Rows[0].HasChildren)
	assert.Equal(t, 0, res.TaskCount)
}

func TestTreeService_GetTreeWithoutIncludeEmptyHidesEmptyNodes(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Empty"})
	require.NoError(t, err)

	res, err := svc.GetTree(ctx, domain.TreeQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, s.project.ID, res.Rows[0].ID)

	res, err = svc.GetTree(ctx, domain.TreeQuery{IncludeEmpty: true})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 4)
	assert.Equal(t, "Empty", res.Rows[3].Name)
	assert.False(t, res.Rows[3].HasChildren)
}

func TestTreeService_IncludeEmptyAppliesKeywordToNames(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedAlpha(t, database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Alpine"})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, CreateProjectInput{Name: "Beta"})
	require.NoError(t, err)

	res, err := svc.GetTree(ctx, domain.TreeQuery{Keyword: "  alp ", IncludeEmpty: true})
	require.NoError(t, err)
	names := make([]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Alpha", "Widget", "Fix bug", "Alpine"}, names)
}

func TestTreeService_KeywordAndStatusFilter(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	res, err := svc.GetTree(ctx, domain.TreeQuery{Keyword: "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TaskCount)
	assert.Equal(t, s.task.ID, res.Rows[2].ID)

	res, err = svc.GetTree(ctx, domain.TreeQuery{
		Keyword:  "Alpha",
		Statuses: []domain.FilterValue{domain.FilterLiteral("closed")},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.TaskCount)
}

func TestTreeService_CreateHierarchy(t *testing.T) {
	database := testutil.NewTestDB(t)
	obs := &recordingObserver{}
	svc := newTreeServiceForTest(t, database, nil, obs)
	ctx := context.Background()

	res, err := svc.CreateProject(ctx, CreateProjectInput{Name: "  Ops  ", OwnerID: "ann"})
	require.NoError(t, err)
	require.Empty(t, res.Rows, "a new project has no tasks and include-empty is off")

	projects, err := repository.NewSQLiteProjectRepo(database).List(ctx, "")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Ops", projects[0].Name)
	assert.Equal(t, "ann", projects[0].OwnerID)

	q := domain.TreeQuery{IncludeEmpty: true}
	res, err = svc.CreateProduct(ctx, CreateProductInput{ProjectID: projects[0].ID, Name: "Infra", Query: q})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	productID := res.Rows[1].ID

	res, err = svc.CreateTask(ctx, CreateTaskInput{ProductID: productID, Title: "Rotate keys", Status: domain.StatusByLabel("Blocked"), Query: q})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Blocked", res.Rows[2].Status, "unknown labels are created on demand")
	assert.Equal(t, 1, res.TaskCount)

	res, err = svc.CreateTask(ctx, CreateTaskInput{ProductID: productID, Title: "Patch", Query: q})
	require.NoError(t, err)
	assert.Equal(t, "open", res.Rows[3].Status, "tasks default to the first seeded status")

	last := obs.last()
	assert.Equal(t, "tree.create_task", last.Name)
	assert.True(t, last.Success)
	assert.Equal(t, 2, last.Fields["task_count"])
}

func TestTreeService_CreateUnderMissingParentIsNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{ProjectID: 42, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateTask(ctx, CreateTaskInput{ProductID: 42, Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s := seedAlpha(t, database)
	missing := int64(77)
	_, err = svc.CreateTask(ctx, CreateTaskInput{ProductID: s.product.ID, Title: "x", AssigneeID: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, countRows(t, database, "tasks"))
}

func TestTreeService_ValidationHappensBeforeStore(t *testing.T) {
	database := testutil.NewTestDB(t)
	pinger := &countingPinger{}
	svc := NewTreeService(TreeDeps{Conn: database, UoW: testutil.NewTestUoW(database), Pinger: pinger})
	ctx := context.Background()

	cases := []func() error{
		func() error { _, err := svc.CreateProject(ctx, CreateProjectInput{Name: "  "}); return err },
		func() error { _, err := svc.CreateProduct(ctx, CreateProductInput{Name: "x"}); return err },
		func() error { _, err := svc.CreateProduct(ctx, CreateProductInput{ProjectID: 1}); return err },
		func() error { _, err := svc.CreateTask(ctx, CreateTaskInput{ProductID: 1}); return err },
		func() error { _, err := svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowProject, ID: 1}); return err },
		func() error {
			_, err := svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowProduct, ID: 1, Name: domain.Some(""), Status: domain.Some(domain.StatusByLabel("x"))})
			return err
		},
		func() error { _, err := svc.UpdateRow(ctx, UpdateRowInput{RowType: "folder", ID: 1}); return err },
		func() error { _, err := svc.DeleteRow(ctx, DeleteRowInput{RowType: domain.RowTask}); return err },
		func() error { _, err := svc.DeleteRow(ctx, DeleteRowInput{RowType: "", ID: 1}); return err },
	}
	for i, call := range cases {
		err := call()
		assert.ErrorIs(t, err, domain.ErrValidation, "case %d", i)
		assert.Equal(t, domain.KindValidation, domain.Classify(err), "case %d", i)
	}
	assert.Zero(t, pinger.calls, "validation failures never reach the store")
}

func TestTreeService_PingsBeforeEachCall(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedAlpha(t, database)
	pinger := &countingPinger{}
	svc := NewTreeService(TreeDeps{Conn: database, UoW: testutil.NewTestUoW(database), Pinger: pinger})
	ctx := context.Background()

	_, err := svc.GetTree(ctx, domain.TreeQuery{})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, CreateProjectInput{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, pinger.calls)

	pinger.err = errors.New("connection reset")
	_, err = svc.GetTree(ctx, domain.TreeQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, domain.KindStore, domain.Classify(err))
}

func TestTreeService_RenameAndNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	res, err := svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowProject, ID: s.project.ID, Name: domain.Some("Alpha 2")})
	require.NoError(t, err)
	assert.Equal(t, "Alpha 2", res.Rows[0].Name)

	res, err = svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowProduct, ID: s.product.ID, Name: domain.Some("Widget 2")})
	require.NoError(t, err)
	assert.Equal(t, "Widget 2", res.Rows[1].Name)

	_, err = svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowProduct, ID: 999, Name: domain.Some("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowTask, ID: 999, Name: domain.Some("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.DeleteRow(ctx, DeleteRowInput{RowType: domain.RowProject, ID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.DeleteRow(ctx, DeleteRowInput{RowType: domain.RowTask, ID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTreeService_PartialTaskUpdateChangesOnlyStatus(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	users := repository.NewSQLiteUserRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	ann := &domain.User{Name: "Ann"}
	require.NoError(t, users.Create(ctx, ann))
	_, err := svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowTask, ID: s.task.ID, Assignee: domain.Some(&ann.ID)})
	require.NoError(t, err)

	_, err = svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowTask, ID: s.task.ID, Status: domain.Some(domain.StatusByLabel("done"))})
	require.NoError(t, err)

	got, err := tasks.GetByID(ctx, s.task.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.StatusName)
	assert.Equal(t, "Fix bug", got.Title)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, ann.ID, *got.AssigneeID)

	// Clearing the assignee is distinct from omitting it.
	var cleared *int64
	res, err := svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowTask, ID: s.task.ID, Assignee: domain.Some(cleared)})
	require.NoError(t, err)
	assert.Nil(t, res.Rows[2].AssigneeID)
	assert.Equal(t, "done", res.Rows[2].Status)

	// An empty patch still checks existence and changes nothing.
	_, err = svc.UpdateRow(ctx, UpdateRowInput{RowType: domain.RowTask, ID: s.task.ID})
	require.NoError(t, err)
	got, err = tasks.GetByID(ctx, s.task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix bug", got.Title)
	assert.Equal(t, "done", got.StatusName)
}

func TestTreeService_DeleteProjectCascades(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	ctx := context.Background()
	steps := repository.NewSQLiteTaskStepRepo(database)
	require.NoError(t, steps.Create(ctx, testutil.NewTestTaskStep(s.task.ID, "investigated")))

	svc := newTreeServiceForTest(t, database, nil)
	other, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Other", Query: domain.TreeQuery{IncludeEmpty: true}})
	require.NoError(t, err)
	require.Len(t, other.Rows, 4)

	res, err := svc.DeleteRow(ctx, DeleteRowInput{RowType: domain.RowProject, ID: s.project.ID, Query: domain.TreeQuery{IncludeEmpty: true}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Other", res.Rows[0].Name)
	for _, row := range res.Rows {
		assert.NotEqual(t, s.product.ID, row.ID)
	}

	assert.Zero(t, countRows(t, database, "products"))
	assert.Zero(t, countRows(t, database, "tasks"))
	assert.Zero(t, countRows(t, database, "task_steps"))
}

func TestTreeService_DeleteTaskRemovesSteps(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	ctx := context.Background()
	steps := repository.NewSQLiteTaskStepRepo(database)
	require.NoError(t, steps.Create(ctx, testutil.NewTestTaskStep(s.task.ID, "one")))
	require.NoError(t, steps.Create(ctx, testutil.NewTestTaskStep(s.task.ID, "two")))

	svc := newTreeServiceForTest(t, database, nil)
	res, err := svc.DeleteRow(ctx, DeleteRowInput{RowType: domain.RowTask, ID: s.task.ID, Query: domain.TreeQuery{IncludeEmpty: true}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.False(t, res.Rows[1].HasChildren)
	assert.Zero(t, countRows(t, database, "task_steps"))
}

// TestTreeService_DeleteProjectRollsBackMidCascade injects a failure after the
// task steps are deleted and checks that nothing was removed.
func TestTreeService_DeleteProjectRollsBackMidCascade(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	ctx := context.Background()
	steps := repository.NewSQLiteTaskStepRepo(database)
	require.NoError(t, steps.Create(ctx, testutil.NewTestTaskStep(s.task.ID, "kept")))

	// ExecContext #1 = delete task_steps, #2 = delete tasks.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 2,
		Err:    fmt.Errorf("injected task delete failure"),
	}
	svc := newTreeServiceForTest(t, database, failUoW)

	_, err := svc.DeleteRow(ctx, DeleteRowInput{RowType: domain.RowProject, ID: s.project.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected task delete failure")

	healthy := newTreeServiceForTest(t, database, nil)
	res, err := healthy.GetTree(ctx, domain.TreeQuery{})
	require.NoError(t, err)
	assert.Equal(t, []rowKey{
		{domain.RowProject, s.project.ID},
		{domain.RowProduct, s.product.ID},
		{domain.RowTask, s.task.ID},
	}, rowKeys(res))
	assert.Equal(t, 1, countRows(t, database, "task_steps"), "step delete rolled back")
}

func TestTreeService_FailedCreateLeavesNoRow(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	ctx := context.Background()

	// ExecContext #1 = status insert-or-ignore, #2 = task insert.
	failUoW := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: errors.New("disk full")}
	svc := newTreeServiceForTest(t, database, failUoW)

	_, err := svc.CreateTask(ctx, CreateTaskInput{ProductID: s.product.ID, Title: "t", Status: domain.StatusByLabel("Brand new")})
	require.Error(t, err)
	assert.Equal(t, domain.KindStore, domain.Classify(err))

	ids, err := repository.NewSQLiteStatusRepo(database).FindIDsByNames(ctx, []string{"brand new"})
	require.NoError(t, err)
	assert.Empty(t, ids, "status created inside the failed transaction is rolled back")
	assert.Equal(t, 1, countRows(t, database, "tasks"))
}

func TestTreeService_NonASCIINamesFilterAndSearch(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	users := repository.NewSQLiteUserRepo(database)
	emile := &domain.User{Name: "Émile"}
	require.NoError(t, users.Create(ctx, emile))
	review, err := repository.NewSQLiteStatusRepo(database).FindOrCreate(ctx, "Überprüfung")
	require.NoError(t, err)

	proj := testutil.NewTestProject("Ärger Projekt")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))
	prod := testutil.NewTestProduct(proj.ID, "Widget")
	require.NoError(t, repository.NewSQLiteProductRepo(database).Create(ctx, prod))
	task := testutil.NewTestTask(prod.ID, "Fix bug", testutil.WithStatusID(review), testutil.WithAssignee(emile.ID))
	require.NoError(t, repository.NewSQLiteTaskRepo(database).Create(ctx, task))

	svc := newTreeServiceForTest(t, database, nil)
	queries := map[string]domain.TreeQuery{
		"assignee exact":  {Assignees: domain.ParseFilterValues([]string{"Émile"})},
		"assignee folded": {Assignees: domain.ParseFilterValues([]string{"ÉMILE"})},
		"status exact":    {Statuses: domain.ParseFilterValues([]string{"Überprüfung"})},
		"status folded":   {Statuses: domain.ParseFilterValues([]string{"überprüfung"})},
		"keyword lower":   {Keyword: "ärger"},
		"keyword upper":   {Keyword: "ÄRGER"},
		"keyword status":  {Keyword: "überprüf"},
		"keyword empties": {Keyword: "ärger", IncludeEmpty: true},
	}
	for name, q := range queries {
		res, err := svc.GetTree(ctx, q)
		require.NoError(t, err, name)
		assert.Equal(t, 1, res.TaskCount, name)
		assert.Len(t, res.Rows, 3, name)
	}
}

func TestTreeService_DigitOnlyStatusName(t *testing.T) {
	database := testutil.NewTestDB(t)
	s := seedAlpha(t, database)
	svc := newTreeServiceForTest(t, database, nil)
	ctx := context.Background()

	year := &domain.Status{Name: "2024", Color: domain.DefaultStatusColor}
	require.NoError(t, repository.NewSQLiteStatusRepo(database).Create(ctx, year))
	require.NotEqual(t, int64(2024), year.ID)

	res, err := svc.UpdateRow(ctx, UpdateRowInput{
		RowType: domain.RowTask,
		ID:      s.task.ID,
		Status:  domain.Some(domain.ParseStatusRef("2024")),
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "2024", res.Rows[2].Status)

	res, err = svc.GetTree(ctx, domain.TreeQuery{Statuses: domain.ParseFilterValues([]string{"2024"})})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TaskCount)

	_, err = svc.UpdateRow(ctx, UpdateRowInput{
		RowType: domain.RowTask,
		ID:      s.task.ID,
		Status:  domain.Some(domain.ParseStatusRef("9999")),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
