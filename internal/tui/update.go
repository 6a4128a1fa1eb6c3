package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil

	case MsgBoardLoaded:
		m.loaded = true
		m.board = msg.Board
		if msg.Dropped > 0 {
			m.err = fmt.Errorf("ignored %d task(s) referencing missing columns", msg.Dropped)
		}
		m.clampCursor()
		return m, nil

	case MsgBoardChanged:
		m.refresh()
		if s, ok := m.container.Machine.Active(); ok && m.mode == ModeDrag {
			m.follow(s.ID)
		}
		return m, m.waitForChange()

	case MsgSynced:
		if m.inflight > 0 {
			m.inflight--
		}
		if msg.Err != nil {
			m.err = msg.Err
		}
		m.refresh()
		return m, nil

	case MsgError:
		m.err = msg.Err
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		return m, nil

	}

	if m.mode.IsInputMode() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyMsg dispatches key presses by mode.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	switch m.mode {
	case ModeDrag:
		return m.handleDragMode(msg)
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeInputTask, ModeInputColumn, ModeInputRename:
		return m.handleInputMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	case ModeNormal:
		return m.handleNormalMode(msg)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.mode == ModeDrag {
		// Leaving mid-gesture still commits the arrangement on screen.
		cmd := m.drop("", true)
		m.Close()
		return m, tea.Sequence(cmd, tea.Quit)
	}
	m.Close()
	return m, tea.Quit
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key press clears a stale error.
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.board.Columns)-1 {
			m.col++
			m.clampCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if col := m.SelectedColumn(); col != nil && m.row < len(col.Tasks)-1 {
			m.row++
		}
		return m, nil

	case key.Matches(msg, m.keys.PickTask):
		if task := m.SelectedTask(); task != nil {
			return m, m.startDrag(task.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.PickColumn):
		if col := m.SelectedColumn(); col != nil {
			return m, m.startDrag(col.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.NewTask):
		if m.SelectedColumn() == nil {
			m.err = fmt.Errorf("add a column first (press %s)", m.keys.NewColumn.Help().Key)
			return m, nil
		}
		return m, m.openInput(ModeInputTask, "Task title", "")

	case key.Matches(msg, m.keys.NewColumn):
		return m, m.openInput(ModeInputColumn, "Column title", "")

	case key.Matches(msg, m.keys.Rename):
		if task := m.SelectedTask(); task != nil {
			m.renameID = task.ID
			return m, m.openInput(ModeInputRename, "Task title", task.Title)
		}
		if col := m.SelectedColumn(); col != nil {
			m.renameID = col.ID
			return m, m.openInput(ModeInputRename, "Column title", col.Title)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.SelectedTask() != nil {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDeleteTask
		}
		return m, nil

	case key.Matches(msg, m.keys.DeleteCol):
		if m.SelectedColumn() != nil {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDeleteColumn
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refetch()

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil
	}

	return m, nil
}

// handleDragMode moves the carried entity. Task drags rearrange the board as
// the cursor moves; column drags only track the target until the drop.
func (m *Model) handleDragMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s, ok := m.container.Machine.Active()
	if !ok {
		m.mode = ModeNormal
		return m, nil
	}

	if m.board.ActiveCol != nil {
		switch {
		case key.Matches(msg, m.keys.Left):
			if m.dragTarget > 0 {
				m.dragTarget--
				m.scrollToCursor()
			}
		case key.Matches(msg, m.keys.Right):
			if m.dragTarget < len(m.board.Columns)-1 {
				m.dragTarget++
				m.scrollToCursor()
			}
		case key.Matches(msg, m.keys.Drop):
			return m, m.drop(m.board.Columns[m.dragTarget].ID, false)
		case key.Matches(msg, m.keys.Cancel):
			return m, m.drop("", true)
		}
		return m, nil
	}

	col := m.SelectedColumn()
	switch {
	case key.Matches(msg, m.keys.Up):
		if col != nil && m.row > 0 {
			return m, m.dragOver(col.Tasks[m.row-1].ID)
		}
	case key.Matches(msg, m.keys.Down):
		if col != nil && m.row < len(col.Tasks)-1 {
			return m, m.dragOver(col.Tasks[m.row+1].ID)
		}
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			return m, m.dragOver(m.board.Columns[m.col-1].ID)
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.board.Columns)-1 {
			return m, m.dragOver(m.board.Columns[m.col+1].ID)
		}
	case key.Matches(msg, m.keys.Drop):
		return m, m.drop(s.ID, false)
	case key.Matches(msg, m.keys.Cancel):
		return m, m.drop("", true)
	}
	return m, nil
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.confirmAction
	m.mode = ModeNormal
	m.confirmAction = ConfirmNone

	if !key.Matches(msg, m.keys.Confirm) {
		return m, nil
	}
	switch action {
	case ConfirmDeleteTask:
		if task := m.SelectedTask(); task != nil {
			return m, m.deleteTask(task.ID)
		}
	case ConfirmDeleteColumn:
		if col := m.SelectedColumn(); col != nil {
			return m, m.deleteColumn(col.ID)
		}
	case ConfirmNone:
	}
	return m, nil
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeInput()
		return m, nil

	case key.Matches(msg, m.keys.InputEnter):
		title := strings.TrimSpace(m.input.Value())
		mode, renameID := m.mode, m.renameID
		m.closeInput()
		if title == "" {
			return m, nil
		}
		switch mode {
		case ModeInputTask:
			return m, m.createTask(title)
		case ModeInputColumn:
			return m, m.createColumn(title)
		case ModeInputRename:
			return m, m.rename(renameID, title)
		case ModeNormal, ModeDrag, ModeConfirm, ModeHelp:
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleHelpMode closes the help overlay on any key.
func (m *Model) handleHelpMode(_ tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	return m, nil
}

// openInput switches to an input mode with the given placeholder and value.
func (m *Model) openInput(mode Mode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = ModeNormal
	m.renameID = ""
	m.input.Blur()
	m.input.Reset()
}
