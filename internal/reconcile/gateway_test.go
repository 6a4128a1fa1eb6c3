package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/drag"
	"github.com/runoshun/board/internal/testutil"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Columns: []domain.Column{
			{ID: "todo", Title: "Todo", OrderIndex: 0},
			{ID: "doing", Title: "Doing", OrderIndex: 1},
		},
		Tasks: []domain.Task{
			{ID: "a", Title: "A", ColumnID: "todo", OrderIndex: 0},
			{ID: "b", Title: "B", ColumnID: "todo", OrderIndex: 1},
			{ID: "c", Title: "C", ColumnID: "todo", OrderIndex: 2},
			{ID: "x", Title: "X", ColumnID: "doing", OrderIndex: 0},
		},
	}
}

func setup(t *testing.T, policy domain.ReconcilePolicy) (*Gateway, *board.Model, *testutil.FakeBoardAPI) {
	t.Helper()
	model, err := board.NewFromSnapshot(testSnapshot())
	require.NoError(t, err)
	api := testutil.NewFakeBoardAPI(testSnapshot())
	g := New(api, model, Options{Policy: policy})
	t.Cleanup(g.Close)
	return g, model, api
}

func waitStarted(t *testing.T, api *testutil.FakeBoardAPI, method string) {
	t.Helper()
	select {
	case got := <-api.Started():
		require.Equal(t, method, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("%s was never issued", method)
	}
}

func wait(t *testing.T, p *Pending) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := p.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return out
}

func TestGateway_OutOfOrderResponseDiscarded(t *testing.T) {
	for _, policy := range []domain.ReconcilePolicy{domain.PolicyQueue, domain.PolicySupersede} {
		t.Run(string(policy), func(t *testing.T) {
			g, model, api := setup(t, policy)
			ctx := context.Background()
			release := api.Block("ReorderTasks")
			defer release()

			// First commit: [b, a, c]
			snap, err := model.ReorderTasks("todo", []string{"b", "a", "c"})
			require.NoError(t, err)
			first := g.Submit(ctx, ReorderTasksMutation(snap.TasksIn("todo")))
			waitStarted(t, api, "ReorderTasks")

			// Second commit issued before the first response arrives: [c, b, a]
			snap, err = model.ReorderTasks("todo", []string{"c", "b", "a"})
			require.NoError(t, err)
			second := g.Submit(ctx, ReorderTasksMutation(snap.TasksIn("todo")))

			release()
			firstOut := wait(t, first)
			secondOut := wait(t, second)

			assert.True(t, firstOut.Stale)
			assert.NoError(t, firstOut.Err)
			assert.False(t, secondOut.Stale)
			assert.NoError(t, secondOut.Err)
			assert.Less(t, first.Seq(), second.Seq())
			assert.Equal(t, []string{"c", "b", "a"}, model.TaskIDs("todo"))
		})
	}
}

func TestGateway_StaleEntityResponseDoesNotClobber(t *testing.T) {
	g, model, api := setup(t, domain.PolicySupersede)
	ctx := context.Background()
	release := api.Block("UpdateTask")
	defer release()

	_, _ = model.UpdateTask("a", "one", "")
	first := g.Submit(ctx, UpdateTaskMutation("a", "one", ""))
	waitStarted(t, api, "UpdateTask")

	_, _ = model.UpdateTask("a", "two", "")
	second := g.Submit(ctx, UpdateTaskMutation("a", "two", ""))
	secondOut := wait(t, second)
	require.False(t, secondOut.Stale)

	release()
	firstOut := wait(t, first)

	assert.True(t, firstOut.Stale)
	task, _ := model.Task("a")
	assert.Equal(t, "two", task.Title)
}

func TestGateway_QueueWaitsForSameScope(t *testing.T) {
	g, _, api := setup(t, domain.PolicyQueue)
	ctx := context.Background()
	release := api.Block("UpdateTask")
	defer release()

	first := g.Submit(ctx, UpdateTaskMutation("a", "one", ""))
	waitStarted(t, api, "UpdateTask")
	second := g.Submit(ctx, UpdateTaskMutation("a", "two", ""))

	select {
	case m := <-api.Started():
		t.Fatalf("%s issued before the earlier mutation finished", m)
	case <-second.Done():
		t.Fatal("second mutation finished before the first")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	wait(t, first)
	wait(t, second)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "one", calls[0].Title)
	assert.Equal(t, "two", calls[1].Title)
	assert.Equal(t, "two", api.State().Tasks[0].Title)
}

func TestGateway_QueueIndependentScopesRunConcurrently(t *testing.T) {
	g, _, api := setup(t, domain.PolicyQueue)
	ctx := context.Background()
	release := api.Block("UpdateTask")
	defer release()

	blocked := g.Submit(ctx, UpdateTaskMutation("a", "one", ""))
	waitStarted(t, api, "UpdateTask")

	other := g.Submit(ctx, RenameColumnMutation("doing", "Doing now"))
	out := wait(t, other)

	assert.NoError(t, out.Err)
	select {
	case <-blocked.Done():
		t.Fatal("blocked mutation should still be in flight")
	default:
	}
	release()
	wait(t, blocked)
}

func TestGateway_FailureIsSurfacedNotRolledBack(t *testing.T) {
	g, model, api := setup(t, domain.PolicyQueue)
	api.SetErr("MoveTask", domain.ErrTransport)

	var mu sync.Mutex
	var seen []Outcome
	unsubscribe := g.Subscribe(func(o Outcome) {
		mu.Lock()
		seen = append(seen, o)
		mu.Unlock()
	})
	defer unsubscribe()

	_, err := model.MoveTask("a", "doing", domain.AppendIndex)
	require.NoError(t, err)
	p := g.Submit(context.Background(), MoveTaskMutation("a", "todo", "doing"))

	out, err := p.Wait(context.Background())

	require.Error(t, err)
	assert.True(t, out.Failed())
	assert.True(t, domain.IsTransport(out.Err))
	assert.Equal(t, []string{"x", "a"}, model.TaskIDs("doing"))

	g.Close()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, OpMoveTask, seen[0].Op)
	assert.True(t, seen[0].Failed())
}

func TestGateway_NotFoundIsClassified(t *testing.T) {
	g, _, _ := setup(t, domain.PolicyQueue)

	p := g.Submit(context.Background(), UpdateTaskMutation("ghost", "t", ""))
	out := wait(t, p)

	assert.True(t, domain.IsNotFound(out.Err))
}

func TestGateway_AppliesCreatedEntity(t *testing.T) {
	g, model, api := setup(t, domain.PolicyQueue)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	api.Now = created

	_, err := model.CreateTask(domain.Task{ID: "n", Title: "New", ColumnID: "doing"})
	require.NoError(t, err)
	p := g.Submit(context.Background(), CreateTaskMutation(domain.CreateTaskRequest{ID: "n", Title: "New", ColumnID: "doing"}))
	out := wait(t, p)

	require.NoError(t, out.Err)
	require.NotNil(t, out.Task)
	task, ok := model.Task("n")
	require.True(t, ok)
	assert.Equal(t, created, task.CreatedAt)
	assert.Equal(t, 1, task.OrderIndex)
}

func TestGateway_FetchReplacesModel(t *testing.T) {
	g, model, api := setup(t, domain.PolicyQueue)
	// local optimistic move that the remote never accepted
	_, _ = model.MoveTask("a", "doing", domain.AppendIndex)

	out := wait(t, g.Submit(context.Background(), FetchBoardMutation()))

	require.NoError(t, out.Err)
	assert.False(t, out.Stale)
	assert.Equal(t, []string{"a", "b", "c"}, model.TaskIDs("todo"))
	assert.Equal(t, api.State().Tasks, model.Snapshot().Tasks)
}

func TestGateway_FetchStaleWhenNewerMutationIssued(t *testing.T) {
	g, model, api := setup(t, domain.PolicyQueue)
	release := api.Block("FetchBoard")
	defer release()

	fetch := g.Submit(context.Background(), FetchBoardMutation())
	waitStarted(t, api, "FetchBoard")

	_, _ = model.RenameColumn("todo", "Backlog")
	rename := g.Submit(context.Background(), RenameColumnMutation("todo", "Backlog"))
	wait(t, rename)
	release()
	out := wait(t, fetch)

	assert.True(t, out.Stale)
	col, _ := model.Column("todo")
	assert.Equal(t, "Backlog", col.Title)
}

func TestGateway_FetchDoesNotOverwriteDragInProgress(t *testing.T) {
	g, model, api := setup(t, domain.PolicyQueue)
	machine := drag.NewMachine(model)
	release := api.Block("FetchBoard")
	defer release()

	fetch := g.Submit(context.Background(), FetchBoardMutation())
	waitStarted(t, api, "FetchBoard")

	_, err := machine.Start("a")
	require.NoError(t, err)
	changed, err := machine.Over("doing")
	require.NoError(t, err)
	require.True(t, changed)

	release()
	out := wait(t, fetch)

	require.NoError(t, out.Err)
	assert.True(t, out.Stale)
	assert.Equal(t, []string{"b", "c"}, model.TaskIDs("todo"))
	assert.Equal(t, []string{"x", "a"}, model.TaskIDs("doing"))

	commit, err := machine.End("doing")
	require.NoError(t, err)
	require.NotNil(t, commit)
	assert.Equal(t, "todo", commit.FromColumn)
	assert.Equal(t, "doing", commit.ToColumn)
}

func TestGateway_FetchAppliedWhenNothingChangedLocally(t *testing.T) {
	g, model, api := setup(t, domain.PolicyQueue)
	release := api.Block("FetchBoard")
	defer release()

	fetch := g.Submit(context.Background(), FetchBoardMutation())
	waitStarted(t, api, "FetchBoard")
	// a merged entity response is not a local change
	_, err := model.ApplyColumn(domain.Column{ID: "todo", Title: "Todo"})
	require.NoError(t, err)
	release()
	out := wait(t, fetch)

	require.NoError(t, out.Err)
	assert.False(t, out.Stale)
}

func TestGateway_SubscribersNotifiedInRegistrationOrder(t *testing.T) {
	g, _, _ := setup(t, domain.PolicyQueue)

	order := make(chan int, 8)
	for i := range 8 {
		defer g.Subscribe(func(Outcome) { order <- i })()
	}

	wait(t, g.Submit(context.Background(), RenameColumnMutation("todo", "Backlog")))
	g.Close()

	require.Len(t, order, 8)
	for want := range 8 {
		assert.Equal(t, want, <-order)
	}
}

func TestGateway_FetchWaitsForEarlierMutations(t *testing.T) {
	g, model, api := setup(t, domain.PolicySupersede)
	release := api.Block("RenameColumn")
	defer release()

	_, _ = model.RenameColumn("todo", "Backlog")
	rename := g.Submit(context.Background(), RenameColumnMutation("todo", "Backlog"))
	waitStarted(t, api, "RenameColumn")
	fetch := g.Submit(context.Background(), FetchBoardMutation())

	select {
	case <-fetch.Done():
		t.Fatal("fetch finished before the earlier mutation")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	wait(t, rename)
	out := wait(t, fetch)

	require.NoError(t, out.Err)
	col, _ := model.Column("todo")
	assert.Equal(t, "Backlog", col.Title)
}

func TestGateway_Timeout(t *testing.T) {
	model, err := board.NewFromSnapshot(testSnapshot())
	require.NoError(t, err)
	api := testutil.NewFakeBoardAPI(testSnapshot())
	release := api.Block("DeleteTask")
	defer release()
	g := New(api, model, Options{Timeout: 20 * time.Millisecond})
	defer g.Close()

	out := wait(t, g.Submit(context.Background(), DeleteTaskMutation("a", "todo")))

	assert.True(t, domain.IsTransport(out.Err))
}

func TestGateway_SubmitAfterClose(t *testing.T) {
	g, _, api := setup(t, domain.PolicyQueue)
	g.Close()

	p := g.Submit(context.Background(), DeleteTaskMutation("a", "todo"))
	_, err := p.Wait(context.Background())

	assert.ErrorIs(t, err, domain.ErrGatewayClosed)
	assert.Empty(t, api.Calls())
}

func TestGateway_CloseWaitsForInflight(t *testing.T) {
	g, _, api := setup(t, domain.PolicyQueue)
	release := api.Block("DeleteColumn")

	p := g.Submit(context.Background(), DeleteColumnMutation("doing"))
	waitStarted(t, api, "DeleteColumn")

	closed := make(chan struct{})
	go func() {
		g.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned with a mutation in flight")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	<-closed
	select {
	case <-p.Done():
	default:
		t.Fatal("pending not done after Close")
	}
}

func TestPending_WaitHonorsContext(t *testing.T) {
	g, _, api := setup(t, domain.PolicyQueue)
	release := api.Block("DeleteTask")
	defer release()

	p := g.Submit(context.Background(), DeleteTaskMutation("a", "todo"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGateway_DefaultsToQueue(t *testing.T) {
	g := New(testutil.NewFakeBoardAPI(domain.Snapshot{}), board.New(), Options{})
	defer g.Close()
	assert.Equal(t, domain.PolicyQueue, g.Policy())
}
