package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/repository"
	"github.com/alexanderramin/opstree/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

type countingPinger struct {
	calls int
	err   error
}

func (p *countingPinger) Ping(context.Context) error {
	p.calls++
	return p.err
}

// seeded holds the ids of the canonical Alpha -> Widget -> Fix bug tree.
type seeded struct {
	project *domain.Project
	product *domain.Product
	task    *domain.Task
}

func seedAlpha(t *testing.T, database *sql.DB) seeded {
	t.Helper()
	ctx := context.Background()
	statuses := repository.NewSQLiteStatusRepo(database)
	open, err := statuses.FindOrCreate(ctx, "open")
	require.NoError(t, err)

	proj := testutil.NewTestProject("Alpha")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, proj))
	prod := testutil.NewTestProduct(proj.ID, "Widget")
	require.NoError(t, repository.NewSQLiteProductRepo(database).Create(ctx, prod))
	task := testutil.NewTestTask(prod.ID, "Fix bug", testutil.WithStatusID(open))
	require.NoError(t, repository.NewSQLiteTaskRepo(database).Create(ctx, task))
	return seeded{project: proj, product: prod, task: task}
}

func newTreeServiceForTest(t *testing.T, database *sql.DB, uow db.UnitOfWork, observers ...UseCaseObserver) TreeService {
	t.Helper()
	if uow == nil {
		uow = testutil.NewTestUoW(database)
	}
	return NewTreeService(TreeDeps{Conn: database, UoW: uow}, observers...)
}

type rowKey struct {
	Type domain.RowType
	ID   int64
}

func rowKeys(res *domain.TreeResult) []rowKey {
	out := make([]rowKey, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = rowKey{r.RowType, r.ID}
	}
	return out
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
