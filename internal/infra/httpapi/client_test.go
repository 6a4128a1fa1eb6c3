package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/infra/jsonstore"
	"github.com/runoshun/board/internal/infra/storeapi"
	"github.com/runoshun/board/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	store := jsonstore.New(filepath.Join(t.TempDir(), "board.json"))
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(storeapi.New(store, nil), nil).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL+"/api/", 5*time.Second)
}

func TestClient_RoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	col, err := c.CreateColumn(ctx, "todo", "To Do")
	require.NoError(t, err)
	assert.Equal(t, 0, col.OrderIndex)
	_, err = c.CreateColumn(ctx, "done", "Done")
	require.NoError(t, err)

	col, err = c.RenameColumn(ctx, "done", "Shipped")
	require.NoError(t, err)
	assert.Equal(t, "Shipped", col.Title)

	task, err := c.CreateTask(ctx, domain.CreateTaskRequest{ID: "a", Title: "A", ColumnID: "todo"})
	require.NoError(t, err)
	assert.Equal(t, "todo", task.ColumnID)
	_, err = c.CreateTask(ctx, domain.CreateTaskRequest{ID: "b", Title: "B", ColumnID: "todo"})
	require.NoError(t, err)

	task, err = c.UpdateTask(ctx, "a", "A2", "details")
	require.NoError(t, err)
	assert.Equal(t, "details", task.Description)

	require.NoError(t, c.MoveTask(ctx, "a", "done"))
	require.NoError(t, c.ReorderColumns(ctx, []domain.Column{{ID: "done", OrderIndex: 0}, {ID: "todo", OrderIndex: 1}}))

	board, err := c.FetchBoard(ctx)
	require.NoError(t, err)
	require.Len(t, board.Columns, 2)
	assert.Equal(t, "done", board.Columns[0].ID)
	require.Len(t, board.TasksIn("done"), 1)
	assert.Equal(t, "a", board.TasksIn("done")[0].ID)

	require.NoError(t, c.ReorderTasks(ctx, []domain.Task{{ID: "b", ColumnID: "done", OrderIndex: 0}}))
	board, err = c.FetchBoard(ctx)
	require.NoError(t, err)
	done := board.TasksIn("done")
	require.Len(t, done, 2)
	assert.Equal(t, "b", done[0].ID)

	require.NoError(t, c.DeleteTask(ctx, "b"))
	require.NoError(t, c.DeleteColumn(ctx, "todo"))
	cols, err := c.ListColumns(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
}

func TestClient_ErrorMapping(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	err := c.DeleteTask(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.True(t, domain.IsNotFound(err))

	_, err = c.RenameColumn(ctx, "missing", "X")
	assert.ErrorIs(t, err, domain.ErrColumnNotFound)

	_, err = c.CreateColumn(ctx, "x", "")
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
}

func TestClient_ServerErrorIsTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := New(ts.URL, time.Second).DeleteTask(context.Background(), "a")

	assert.True(t, domain.IsTransport(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_UnreachableIsTransport(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url, time.Second).FetchBoard(context.Background())

	assert.True(t, domain.IsTransport(err))
}

func TestClient_ContextCanceledIsTransport(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := New(ts.URL, 0).MoveTask(ctx, "a", "b")

	assert.True(t, domain.IsTransport(err))
}

func TestClient_UnclassifiedClientError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	err := New(ts.URL, time.Second).DeleteColumn(context.Background(), "a")

	require.Error(t, err)
	assert.False(t, domain.IsTransport(err))
	assert.False(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), "418")
}
