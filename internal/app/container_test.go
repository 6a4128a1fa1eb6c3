package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/infra/jsonstore"
	"github.com/runoshun/board/internal/infra/sqlitestore"
	"github.com/runoshun/board/internal/testutil"
	"github.com/runoshun/board/internal/usecase"
)

func testBoard() domain.Snapshot {
	return domain.Snapshot{
		Columns: []domain.Column{{ID: "todo", Title: "To Do"}},
		Tasks:   []domain.Task{{ID: "a", Title: "A", ColumnID: "todo"}},
	}
}

func countCalls(api *testutil.FakeBoardAPI, method string) int {
	n := 0
	for _, m := range api.Methods() {
		if m == method {
			n++
		}
	}
	return n
}

func newTestContainer(t *testing.T, appConfig *domain.Config) (*Container, *testutil.FakeBoardAPI) {
	t.Helper()
	api := testutil.NewFakeBoardAPI(testBoard())
	c := NewWithDeps(Config{}, appConfig, api, nil, nil, &testutil.MockClock{}, &testutil.SeqIDGenerator{}, nil)
	_, err := c.LoadBoardUseCase().Execute(context.Background(), usecase.LoadBoardInput{})
	require.NoError(t, err)
	return c, api
}

func failUpdate(t *testing.T, c *Container, api *testutil.FakeBoardAPI) {
	t.Helper()
	api.SetErr("UpdateTask", fmt.Errorf("%w: a", domain.ErrTaskNotFound))
	title := "renamed"
	out, err := c.UpdateTaskUseCase().Execute(context.Background(), usecase.UpdateTaskInput{ID: "a", Title: &title})
	require.NoError(t, err)
	outcome, err := out.Pending.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Failed())
}

func TestContainer_RefetchOnFailure(t *testing.T) {
	c, api := newTestContainer(t, nil)
	defer func() { _ = c.Close() }()

	failUpdate(t, c, api)

	require.Eventually(t, func() bool {
		task, ok := c.Model.Task("a")
		return countCalls(api, "FetchBoard") == 2 && ok && task.Title == "A"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestContainer_RefetchOnFailureDisabled(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	off := false
	cfg.Reconcile.RefetchOnFailure = &off
	c, api := newTestContainer(t, cfg)

	failUpdate(t, c, api)
	require.NoError(t, c.Close())

	assert.Equal(t, 1, countCalls(api, "FetchBoard"))
	task, _ := c.Model.Task("a")
	assert.Equal(t, "renamed", task.Title)
}

func TestContainer_GatewayUsesConfiguredPolicy(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	cfg.Reconcile.Policy = domain.PolicySupersede
	c, _ := newTestContainer(t, cfg)
	defer func() { _ = c.Close() }()

	assert.Equal(t, domain.PolicySupersede, c.Gateway.Policy())
}

func TestNew_JSONBackendInitAndSeed(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(domain.RepoBoardDir(root), 0o750))
	ctx := context.Background()

	c, err := New(ctx, root)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.IsType(t, &jsonstore.Store{}, c.Store)
	assert.Equal(t, root, c.Config.ProjectRoot)

	out, err := c.InitBoardUseCase().Execute(ctx, usecase.InitBoardInput{BoardDir: c.Config.BoardDir, Seed: true})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.True(t, out.Seeded)

	loaded, err := c.LoadBoardUseCase().Execute(ctx, usecase.LoadBoardInput{})
	require.NoError(t, err)
	assert.Len(t, loaded.Snapshot.Columns, 3)
	assert.FileExists(t, filepath.Join(c.Config.BoardDir, domain.StoreFileName))
}

func TestNew_SQLiteBackend(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	boardDir := domain.RepoBoardDir(root)
	require.NoError(t, os.MkdirAll(boardDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(boardDir, domain.ConfigFileName),
		[]byte("[store]\nbackend = \"sqlite\"\n"), 0o644))
	ctx := context.Background()

	c, err := New(ctx, root)
	require.NoError(t, err)

	assert.IsType(t, &sqlitestore.Store{}, c.Store)
	_, err = c.InitBoardUseCase().Execute(ctx, usecase.InitBoardInput{BoardDir: boardDir})
	require.NoError(t, err)

	_, err = c.LoadBoardUseCase().Execute(ctx, usecase.LoadBoardInput{})
	require.NoError(t, err)
	out, err := c.CreateColumnUseCase().Execute(ctx, usecase.CreateColumnInput{Title: "Inbox"})
	require.NoError(t, err)
	_, err = out.Pending.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	assert.FileExists(t, filepath.Join(boardDir, domain.SQLiteFileName))
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	boardDir := domain.RepoBoardDir(root)
	require.NoError(t, os.MkdirAll(boardDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(boardDir, domain.ConfigFileName),
		[]byte("[store]\nbackend = \"s3\"\n"), 0o644))

	_, err := New(context.Background(), root)

	assert.ErrorIs(t, err, domain.ErrUnknownBackend)
}

func TestFindProjectRoot(t *testing.T) {
	t.Run("nearest board directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(domain.RepoBoardDir(root), 0o750))
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o750))

		got, err := FindProjectRoot(nested)

		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("git work tree root", func(t *testing.T) {
		root := t.TempDir()
		_, err := git.PlainInit(root, false)
		require.NoError(t, err)
		nested := filepath.Join(root, "src")
		require.NoError(t, os.MkdirAll(nested, 0o750))

		got, err := FindProjectRoot(nested)

		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("falls back to dir", func(t *testing.T) {
		dir := t.TempDir()

		got, err := FindProjectRoot(dir)

		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})
}

func TestContainer_Resolve(t *testing.T) {
	c := &Container{Config: newConfig("/work")}

	assert.Equal(t, "/work/.board/board.json", c.resolve("", domain.StoreFileName))
	assert.Equal(t, "/work/data/b.json", c.resolve("data/b.json", domain.StoreFileName))
	assert.Equal(t, "/abs/b.json", c.resolve("/abs/b.json", domain.StoreFileName))
	assert.Equal(t, "/work/.board", c.Config.BoardDir)
}
