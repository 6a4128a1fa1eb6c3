package tui

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/testutil"
)

func testBoard() domain.Snapshot {
	return domain.Snapshot{
		Columns: []domain.Column{
			{ID: "todo", Title: "To Do", OrderIndex: 0},
			{ID: "doing", Title: "Doing", OrderIndex: 1},
		},
		Tasks: []domain.Task{
			{ID: "t1", Title: "Write docs", ColumnID: "todo", OrderIndex: 0},
			{ID: "t2", Title: "Fix bug", ColumnID: "todo", OrderIndex: 1},
		},
	}
}

// newTestModel creates a loaded Model backed by a fake board API.
func newTestModel(t *testing.T, api *testutil.FakeBoardAPI) *Model {
	t.Helper()
	c := app.NewWithDeps(
		app.Config{BoardDir: filepath.Join(t.TempDir(), ".board")},
		nil,
		api,
		nil,
		&testutil.MockStoreInitializer{Created: true},
		&testutil.MockClock{NowTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		&testutil.SeqIDGenerator{},
		nil,
	)
	t.Cleanup(func() { _ = c.Close() })

	m := New(c)
	t.Cleanup(m.Close)

	msg := m.loadBoard()()
	_, isErr := msg.(MsgError)
	require.False(t, isErr, "load board: %v", msg)
	m.Update(msg)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keySpace() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func keyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

// press sends a key to the model and returns the resulting command.
func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

// settle runs a sync command and feeds its result back into the model.
func settle(t *testing.T, m *Model, cmd tea.Cmd) MsgSynced {
	t.Helper()
	require.NotNil(t, cmd, "expected a sync command")
	msg, ok := cmd().(MsgSynced)
	require.True(t, ok, "expected MsgSynced")
	m.Update(msg)
	return msg
}

// typeText enters s into the focused input.
func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func taskIDs(s domain.Snapshot, columnID string) []string {
	var ids []string
	for _, task := range s.TasksIn(columnID) {
		ids = append(ids, task.ID)
	}
	return ids
}

// mutations returns the write calls the fake received, skipping reads.
func mutations(api *testutil.FakeBoardAPI) []string {
	var out []string
	for _, name := range api.Methods() {
		if name != "FetchBoard" && name != "ListColumns" {
			out = append(out, name)
		}
	}
	return out
}

func columnIDs(s domain.Snapshot) []string {
	var ids []string
	for _, c := range s.SortedColumns() {
		ids = append(ids, c.ID)
	}
	return ids
}

// =============================================================================
// Loading and navigation
// =============================================================================

func TestModel_LoadsBoard(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))

	require.Len(t, m.Board().Columns, 2)
	assert.Equal(t, ModeNormal, m.Mode())
	require.NotNil(t, m.SelectedTask())
	assert.Equal(t, "t1", m.SelectedTask().ID)
}

func TestModel_LoadError(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	api.SetErr("FetchBoard", errors.New("offline"))
	c := app.NewWithDeps(
		app.Config{BoardDir: filepath.Join(t.TempDir(), ".board")},
		nil, api, nil,
		&testutil.MockStoreInitializer{Created: true},
		&testutil.MockClock{},
		&testutil.SeqIDGenerator{},
		nil,
	)
	t.Cleanup(func() { _ = c.Close() })
	m := New(c)
	t.Cleanup(m.Close)

	msg := m.loadBoard()()
	_, isErr := msg.(MsgError)
	require.True(t, isErr)
	m.Update(msg)

	assert.Contains(t, m.View(), "offline")
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))

	press(m, keyRunes("j"))
	assert.Equal(t, "t2", m.SelectedTask().ID)

	press(m, keyRunes("j"))
	assert.Equal(t, "t2", m.SelectedTask().ID, "stays on the last task")

	press(m, keyRunes("l"))
	assert.Equal(t, "doing", m.SelectedColumn().ID)
	assert.Nil(t, m.SelectedTask())

	press(m, keyRunes("h"))
	press(m, keyRunes("k"))
	assert.Equal(t, "t1", m.SelectedTask().ID)
}

// =============================================================================
// Dragging
// =============================================================================

func TestModel_DragReordersWithinColumn(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keySpace())
	assert.Equal(t, ModeDrag, m.Mode())
	require.NotNil(t, m.Board().ActiveTask)

	press(m, keyRunes("j"))
	assert.Equal(t, []string{"t2", "t1"}, taskIDs(m.container.Model.Snapshot(), "todo"))
	assert.Equal(t, "t1", m.SelectedTask().ID, "cursor follows the carried task")
	assert.Empty(t, mutations(api), "hovering issues no remote mutation")

	cmd := press(m, keyEnter())
	assert.Equal(t, ModeNormal, m.Mode())
	synced := settle(t, m, cmd)

	require.NoError(t, synced.Err)
	assert.Equal(t, []string{"t2", "t1"}, taskIDs(api.State(), "todo"))
	assert.Contains(t, mutations(api), "ReorderTasks")
	assert.NotContains(t, mutations(api), "MoveTask")
}

func TestModel_DragAcrossColumns(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keySpace())
	press(m, keyRunes("l"))
	assert.Equal(t, "doing", m.SelectedColumn().ID)
	assert.Equal(t, "t1", m.SelectedTask().ID)

	synced := settle(t, m, press(m, keyEnter()))

	require.NoError(t, synced.Err)
	state := api.State()
	assert.Equal(t, []string{"t2"}, taskIDs(state, "todo"))
	assert.Equal(t, []string{"t1"}, taskIDs(state, "doing"))
	assert.Equal(t, []string{"MoveTask", "ReorderTasks"}, mutations(api))
}

func TestModel_DragCancelKeepsArrangement(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keySpace())
	press(m, keyRunes("j"))
	cmd := press(m, keyEsc())

	assert.Equal(t, ModeNormal, m.Mode())
	_, active := m.container.Machine.Active()
	assert.False(t, active)

	synced := settle(t, m, cmd)
	require.NoError(t, synced.Err)
	assert.Equal(t, []string{"t2", "t1"}, taskIDs(api.State(), "todo"))
}

func TestModel_DragWithoutMovingSubmitsNothing(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keySpace())
	cmd := press(m, keyEnter())

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Empty(t, mutations(api))
}

func TestModel_ColumnDrag(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("M"))
	assert.Equal(t, ModeDrag, m.Mode())
	require.NotNil(t, m.Board().ActiveCol)

	press(m, keyRunes("l"))
	assert.Equal(t, []string{"todo", "doing"}, columnIDs(m.container.Model.Snapshot()), "columns move on drop only")

	synced := settle(t, m, press(m, keyEnter()))

	require.NoError(t, synced.Err)
	assert.Equal(t, []string{"doing", "todo"}, columnIDs(api.State()))
	assert.Equal(t, []string{"ReorderColumns"}, mutations(api))
	assert.Equal(t, "todo", m.SelectedColumn().ID, "cursor follows the dropped column")
}

func TestModel_ColumnDragCancel(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("M"))
	press(m, keyRunes("l"))
	cmd := press(m, keyEsc())

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Equal(t, []string{"todo", "doing"}, columnIDs(api.State()))
	assert.Empty(t, mutations(api))
}

func TestModel_QuitDuringDragCommits(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keySpace())
	press(m, keyRunes("j"))
	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	_, active := m.container.Machine.Active()
	assert.False(t, active)
	assert.Equal(t, []string{"t2", "t1"}, taskIDs(m.container.Model.Snapshot(), "todo"))
}

func TestModel_SyncFailureShowsError(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	api.SetErr("ReorderTasks", errors.New("server rejected order"))
	m := newTestModel(t, api)

	press(m, keySpace())
	press(m, keyRunes("j"))
	synced := settle(t, m, press(m, keyEnter()))

	require.Error(t, synced.Err)
	assert.Contains(t, m.View(), "server rejected order")
}

// =============================================================================
// Editing
// =============================================================================

func TestModel_NewTask(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("n"))
	assert.Equal(t, ModeInputTask, m.Mode())
	typeText(m, "Ship it")
	synced := settle(t, m, press(m, keyEnter()))

	require.NoError(t, synced.Err)
	assert.Equal(t, ModeNormal, m.Mode())
	state := api.State()
	assert.Equal(t, []string{"t1", "t2", "id-1"}, taskIDs(state, "todo"))
	task, ok := state.TaskByID("id-1")
	require.True(t, ok)
	assert.Equal(t, "Ship it", task.Title)
	assert.Equal(t, "id-1", m.SelectedTask().ID)
}

func TestModel_NewTaskEmptyTitleIgnored(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("n"))
	typeText(m, "   ")
	cmd := press(m, keyEnter())

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Empty(t, mutations(api))
}

func TestModel_NewTaskWithoutColumns(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(domain.Snapshot{}))

	press(m, keyRunes("n"))

	assert.Equal(t, ModeNormal, m.Mode())
	assert.Contains(t, m.View(), "add a column first")
}

func TestModel_NewColumn(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("N"))
	assert.Equal(t, ModeInputColumn, m.Mode())
	typeText(m, "Review")
	synced := settle(t, m, press(m, keyEnter()))

	require.NoError(t, synced.Err)
	assert.Equal(t, []string{"todo", "doing", "id-1"}, columnIDs(api.State()))
	assert.Equal(t, "id-1", m.SelectedColumn().ID)
}

func TestModel_InputEscapeCancels(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("N"))
	typeText(m, "Review")
	cmd := press(m, keyEsc())

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Empty(t, mutations(api))
}

func TestModel_RenameTask(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("e"))
	assert.Equal(t, ModeInputRename, m.Mode())
	assert.Equal(t, "Write docs", m.input.Value())

	m.input.SetValue("Docs v2")
	synced := settle(t, m, press(m, keyEnter()))

	require.NoError(t, synced.Err)
	task, ok := api.State().TaskByID("t1")
	require.True(t, ok)
	assert.Equal(t, "Docs v2", task.Title)
}

func TestModel_RenameColumn(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("l"))
	press(m, keyRunes("e"))
	assert.Equal(t, "Doing", m.input.Value())

	m.input.SetValue("In Progress")
	synced := settle(t, m, press(m, keyEnter()))

	require.NoError(t, synced.Err)
	col, ok := api.State().ColumnByID("doing")
	require.True(t, ok)
	assert.Equal(t, "In Progress", col.Title)
}

func TestModel_DeleteTaskConfirm(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("d"))
	assert.Equal(t, ModeConfirm, m.Mode())
	assert.Contains(t, m.View(), `Delete task "Write docs"?`)

	synced := settle(t, m, press(m, keyRunes("y")))

	require.NoError(t, synced.Err)
	assert.Equal(t, []string{"t2"}, taskIDs(api.State(), "todo"))
	assert.Equal(t, "t2", m.SelectedTask().ID)
}

func TestModel_DeleteTaskDeclined(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("d"))
	cmd := press(m, keyRunes("n"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Empty(t, mutations(api))
}

func TestModel_DeleteColumnConfirm(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keyRunes("D"))
	assert.Contains(t, m.View(), "and its 2 task(s)")

	synced := settle(t, m, press(m, keyRunes("y")))

	require.NoError(t, synced.Err)
	state := api.State()
	assert.Equal(t, []string{"doing"}, columnIDs(state))
	assert.Empty(t, state.Tasks)
}

// =============================================================================
// Rendering
// =============================================================================

func TestModel_View(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))

	out := m.View()

	assert.Contains(t, out, "To Do")
	assert.Contains(t, out, "Doing")
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "2 columns · 2 tasks")
	assert.Contains(t, out, "empty")
}

func TestModel_ViewWhileDragging(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))

	press(m, keySpace())
	assert.Contains(t, m.View(), "dragging task")

	press(m, keyEsc())
	press(m, keyRunes("M"))
	assert.Contains(t, m.View(), "dragging column")
}

func TestModel_ViewShowsSyncing(t *testing.T) {
	api := testutil.NewFakeBoardAPI(testBoard())
	m := newTestModel(t, api)

	press(m, keySpace())
	press(m, keyRunes("j"))
	cmd := press(m, keyEnter())
	assert.Contains(t, m.View(), "syncing")

	settle(t, m, cmd)
	assert.NotContains(t, m.View(), "syncing")
}

func TestModel_EmptyBoardView(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(domain.Snapshot{}))

	assert.Contains(t, m.View(), "No columns yet")
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))

	press(m, keyRunes("?"))
	assert.Equal(t, ModeHelp, m.Mode())
	assert.Contains(t, m.View(), "KEYBOARD SHORTCUTS")

	press(m, keyRunes("x"))
	assert.Equal(t, ModeNormal, m.Mode())
}

func TestModel_ErrorClearedOnKey(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))

	m.Update(MsgError{Err: errors.New("boom")})
	assert.Contains(t, m.View(), "boom")

	press(m, keyRunes("j"))
	assert.NotContains(t, m.View(), "boom")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long…", truncate("long title", 5))
	assert.Equal(t, "…", truncate("abc", 1))
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "日本…", truncate("日本語です", 3))
}

func TestModel_CloseReleasesChangeListener(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeBoardAPI(testBoard()))
	// drop the notification left by the initial load
	select {
	case <-m.changes:
	default:
	}
	listen := m.waitForChange()

	got := make(chan tea.Msg, 1)
	go func() { got <- listen() }()
	m.Close()
	m.Close()

	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("change listener still blocked after Close")
	}
}
