package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/reconcile"
	"github.com/runoshun/board/internal/usecase"
	"github.com/runoshun/board/internal/view"
)

// Model is the main bubbletea model for the TUI.
type Model struct {
	// Dependencies (pointers first for alignment)
	container   *app.Container
	err         error
	changes     chan struct{}
	done        chan struct{} // closed by Close
	unsubscribe func()
	closeOnce   sync.Once

	// State
	board    view.Board
	renameID string // task or column being renamed

	// Components
	keys   KeyMap
	styles Styles
	help   help.Model
	input  textinput.Model

	// Numeric state (smaller types last)
	mode          Mode
	confirmAction ConfirmAction
	width         int
	height        int
	col           int // selected column
	row           int // selected task within the column
	firstCol      int // leftmost visible column
	dragTarget    int // hovered column while a column is carried
	inflight      int // actions not yet acknowledged by the store
	loaded        bool
}

// New creates a new TUI Model with the given container.
func New(c *app.Container) *Model {
	ti := textinput.New()
	ti.CharLimit = domain.MaxTitleLength

	m := &Model{
		container: c,
		changes:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		keys:      DefaultKeyMap(),
		styles:    DefaultStyles(),
		help:      help.New(),
		input:     ti,
		mode:      ModeNormal,
	}
	m.unsubscribe = c.Model.Subscribe(func(domain.Snapshot) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadBoard(),
		m.waitForChange(),
	)
}

// loadBoard fetches the board from the store.
func (m *Model) loadBoard() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		out, err := m.container.LoadBoardUseCase().Execute(ctx, usecase.LoadBoardInput{})
		if err != nil {
			return MsgError{Err: err}
		}
		shown, err := m.container.ShowBoardUseCase().Execute(ctx, usecase.ShowBoardInput{})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgBoardLoaded{Board: shown.Board, Dropped: out.Dropped}
	}
}

// waitForChange delivers the next model change made outside of Update.
// It returns no message once the model is closed.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return MsgBoardChanged{}
		case <-m.done:
			return nil
		}
	}
}

// syncCmd waits for the store to acknowledge pending mutations.
func (m *Model) syncCmd(pending ...*reconcile.Pending) tea.Cmd {
	var live []*reconcile.Pending
	for _, p := range pending {
		if p != nil {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return nil
	}
	m.inflight++
	return func() tea.Msg {
		return MsgSynced{Err: usecase.WaitAll(context.Background(), live...)}
	}
}

// refresh re-projects the board and keeps the cursor in range.
func (m *Model) refresh() {
	out, err := m.container.ShowBoardUseCase().Execute(context.Background(), usecase.ShowBoardInput{})
	if err != nil {
		m.err = err
		return
	}
	m.board = out.Board
	m.clampCursor()
}

// follow moves the cursor onto the given task, if it is on the board.
func (m *Model) follow(taskID string) {
	if col, row, ok := m.board.Locate(taskID); ok {
		m.col, m.row = col, row
	}
	m.clampCursor()
}

// followColumn moves the cursor onto the given column.
func (m *Model) followColumn(columnID string) {
	for i, c := range m.board.Columns {
		if c.ID == columnID {
			m.col = i
			m.row = 0
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.board.Columns)
	if m.col >= n {
		m.col = n - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	if m.row < 0 {
		m.row = 0
	}
	if col := m.SelectedColumn(); col != nil && m.row >= len(col.Tasks) {
		m.row = max(len(col.Tasks)-1, 0)
	}
	m.scrollToCursor()
}

// scrollToCursor keeps the selected column within the visible range.
func (m *Model) scrollToCursor() {
	visible := m.visibleColumns()
	target := m.col
	if m.mode == ModeDrag && m.board.ActiveCol != nil {
		target = m.dragTarget
	}
	if target < m.firstCol {
		m.firstCol = target
	}
	if target >= m.firstCol+visible {
		m.firstCol = target - visible + 1
	}
	if m.firstCol < 0 {
		m.firstCol = 0
	}
}

// visibleColumns returns how many columns fit in the terminal width.
func (m *Model) visibleColumns() int {
	if m.width <= 0 {
		return max(len(m.board.Columns), 1)
	}
	return max((m.width-4)/columnWidth, 1)
}

// SelectedColumn returns the column under the cursor, or nil.
func (m *Model) SelectedColumn() *view.Column {
	if m.col < 0 || m.col >= len(m.board.Columns) {
		return nil
	}
	return &m.board.Columns[m.col]
}

// SelectedTask returns the task under the cursor, or nil.
func (m *Model) SelectedTask() *domain.Task {
	col := m.SelectedColumn()
	if col == nil || m.row < 0 || m.row >= len(col.Tasks) {
		return nil
	}
	return &col.Tasks[m.row]
}

// Mode returns the current UI mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// Board returns the board as currently displayed.
func (m *Model) Board() view.Board {
	return m.board
}

// Close stops listening to model changes and releases a pending
// waitForChange. It is safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		close(m.done)
	})
}

// startDrag picks up id.
func (m *Model) startDrag(id string) tea.Cmd {
	out, err := m.container.StartDragUseCase().Execute(context.Background(), usecase.StartDragInput{ID: id})
	if err != nil {
		m.err = err
		return nil
	}
	m.mode = ModeDrag
	m.dragTarget = m.col
	m.refresh()
	if out.Session.Kind == domain.KindTask {
		m.follow(id)
	}
	return nil
}

// dragOver hovers the carried task over overID and keeps the cursor on it.
func (m *Model) dragOver(overID string) tea.Cmd {
	s, ok := m.container.Machine.Active()
	if !ok {
		return nil
	}
	if _, err := m.container.DragOverUseCase().Execute(context.Background(), usecase.DragOverInput{OverID: overID}); err != nil {
		m.err = err
		return nil
	}
	m.refresh()
	m.follow(s.ID)
	return nil
}

// drop ends the gesture; cancel keeps the arrangement reached so far.
func (m *Model) drop(overID string, cancel bool) tea.Cmd {
	s, _ := m.container.Machine.Active()
	out, err := m.container.DropUseCase().Execute(context.Background(), usecase.DropInput{OverID: overID, Cancel: cancel})
	m.mode = ModeNormal
	if err != nil {
		m.err = err
		m.refresh()
		return nil
	}
	m.refresh()
	if s.Kind == domain.KindColumn {
		m.followColumn(s.ID)
	} else {
		m.follow(s.ID)
	}
	return m.syncCmd(out.Pending...)
}

func (m *Model) createTask(title string) tea.Cmd {
	col := m.SelectedColumn()
	if col == nil {
		return nil
	}
	out, err := m.container.CreateTaskUseCase().Execute(context.Background(), usecase.CreateTaskInput{
		Title:    title,
		ColumnID: col.ID,
	})
	if err != nil {
		m.err = err
		return nil
	}
	m.refresh()
	m.follow(out.Task.ID)
	return m.syncCmd(out.Pending)
}

func (m *Model) createColumn(title string) tea.Cmd {
	out, err := m.container.CreateColumnUseCase().Execute(context.Background(), usecase.CreateColumnInput{Title: title})
	if err != nil {
		m.err = err
		return nil
	}
	m.refresh()
	m.followColumn(out.Column.ID)
	return m.syncCmd(out.Pending)
}

func (m *Model) rename(id, title string) tea.Cmd {
	ctx := context.Background()
	var pending *reconcile.Pending
	switch m.container.Model.Kind(id) {
	case domain.KindTask:
		out, err := m.container.UpdateTaskUseCase().Execute(ctx, usecase.UpdateTaskInput{ID: id, Title: &title})
		if err != nil {
			m.err = err
			return nil
		}
		pending = out.Pending
	case domain.KindColumn:
		out, err := m.container.RenameColumnUseCase().Execute(ctx, usecase.RenameColumnInput{ID: id, Title: title})
		if err != nil {
			m.err = err
			return nil
		}
		pending = out.Pending
	default:
		m.err = fmt.Errorf("%w: %s", domain.ErrUnknownEntity, id)
		return nil
	}
	m.refresh()
	return m.syncCmd(pending)
}

func (m *Model) deleteTask(id string) tea.Cmd {
	out, err := m.container.DeleteTaskUseCase().Execute(context.Background(), usecase.DeleteTaskInput{ID: id})
	if err != nil {
		m.err = err
		return nil
	}
	m.refresh()
	return m.syncCmd(out.Pending)
}

func (m *Model) deleteColumn(id string) tea.Cmd {
	out, err := m.container.DeleteColumnUseCase().Execute(context.Background(), usecase.DeleteColumnInput{ID: id})
	if err != nil {
		m.err = err
		return nil
	}
	m.refresh()
	return m.syncCmd(out.Pending)
}

func (m *Model) refetch() tea.Cmd {
	out, err := m.container.RefreshBoardUseCase().Execute(context.Background(), usecase.RefreshBoardInput{})
	if err != nil {
		m.err = err
		return nil
	}
	return m.syncCmd(out.Pending)
}
