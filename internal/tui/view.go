package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/view"
)

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 || !m.loaded {
		if m.err != nil {
			return m.styles.App.Render(m.styles.ErrorMsg.Render("Error: " + m.err.Error()))
		}
		return "Loading..."
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeNormal, ModeDrag, ModeConfirm, ModeInputTask, ModeInputColumn, ModeInputRename:
		content = m.viewMain()
	}

	return m.styles.App.Render(content)
}

// viewMain renders the board with any dialog below it.
func (m *Model) viewMain() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n\n")
	}

	b.WriteString(m.viewColumns())
	b.WriteString("\n")

	switch m.mode {
	case ModeConfirm:
		b.WriteString("\n")
		b.WriteString(m.viewConfirmDialog())
	case ModeInputTask, ModeInputColumn, ModeInputRename:
		b.WriteString("\n")
		b.WriteString(m.viewInput())
	case ModeNormal, ModeDrag, ModeHelp:
	}

	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

// viewHeader renders the title, the board size and the sync state.
func (m *Model) viewHeader() string {
	title := m.styles.HeaderText.Render("Board")

	info := fmt.Sprintf("%d columns · %d tasks", len(m.board.Columns), m.board.TaskCount())
	right := m.styles.HeaderInfo.Render(info)
	if m.inflight > 0 {
		right = m.styles.Pending.Render("syncing… ") + right
	}

	headerWidth := max(m.width-6, 40)
	spacing := max(headerWidth-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return m.styles.Header.Render(title + strings.Repeat(" ", spacing) + right)
}

// viewColumns renders the visible columns side by side.
func (m *Model) viewColumns() string {
	if len(m.board.Columns) == 0 {
		return m.viewEmptyState()
	}

	last := min(m.firstCol+m.visibleColumns(), len(m.board.Columns))
	rendered := make([]string, 0, last-m.firstCol)
	for i := m.firstCol; i < last; i++ {
		rendered = append(rendered, m.renderColumn(i, m.board.Columns[i]))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	if m.firstCol > 0 || last < len(m.board.Columns) {
		out += "\n" + m.styles.Footer.Render(fmt.Sprintf("columns %d-%d of %d", m.firstCol+1, last, len(m.board.Columns)))
	}
	return out
}

// renderColumn renders one column and its cards.
func (m *Model) renderColumn(i int, col view.Column) string {
	style := m.styles.Column
	carried := m.board.ActiveCol != nil && m.board.ActiveCol.ID == col.ID
	switch {
	case carried:
		style = m.styles.ColumnCarried
	case m.mode == ModeDrag && m.board.ActiveCol != nil && i == m.dragTarget:
		style = m.styles.ColumnTarget
	case i == m.col && m.board.ActiveCol == nil:
		style = m.styles.ColumnSelected
	}

	inner := columnWidth - 4
	var b strings.Builder
	b.WriteString(m.styles.ColumnAccent(col.Color).Render(truncate(col.Title, inner-5)))
	b.WriteString(m.styles.ColumnCount.Render(fmt.Sprintf(" (%d)", len(col.Tasks))))
	b.WriteString("\n")

	if len(col.Tasks) == 0 {
		b.WriteString(m.styles.ColumnEmpty.Render("empty"))
	}
	for j, t := range col.Tasks {
		if j > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderCard(t, i == m.col && j == m.row, inner))
	}
	return style.Render(b.String())
}

// renderCard renders a task line; the carried task is highlighted.
func (m *Model) renderCard(t domain.Task, selected bool, width int) string {
	title := truncate(t.Title, width-2)
	switch {
	case m.board.ActiveTask != nil && m.board.ActiveTask.ID == t.ID:
		return m.styles.CardCarried.Render(title)
	case selected && m.board.ActiveCol == nil:
		return m.styles.CardSelected.Render(title)
	default:
		return m.styles.Card.Render(title)
	}
}

// viewEmptyState renders a friendly empty state message.
func (m *Model) viewEmptyState() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("  No columns yet\n\n"))
	b.WriteString(m.styles.Footer.Render("  Press "))
	b.WriteString(m.styles.FooterKey.Render("N"))
	b.WriteString(m.styles.Footer.Render(" to create your first column"))
	b.WriteString("\n")
	return b.String()
}

// viewConfirmDialog renders the confirmation dialog.
func (m *Model) viewConfirmDialog() string {
	var target string
	switch m.confirmAction {
	case ConfirmNone:
		return ""
	case ConfirmDeleteTask:
		if t := m.SelectedTask(); t != nil {
			target = fmt.Sprintf("task %q", t.Title)
		}
	case ConfirmDeleteColumn:
		if c := m.SelectedColumn(); c != nil {
			target = fmt.Sprintf("column %q and its %d task(s)", c.Title, len(c.Tasks))
		}
	}

	title := m.styles.DialogTitle.Foreground(Colors.Error).Render(fmt.Sprintf("Delete %s?", target))
	prompt := m.styles.DialogPrompt.Render("This action cannot be undone.")
	yesBtn := m.styles.HelpKey.Render("[ y ] Confirm")
	noBtn := m.styles.Footer.Render("[ n ] Cancel")
	buttons := lipgloss.JoinHorizontal(lipgloss.Left, yesBtn, "  ", noBtn)

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", prompt, "", buttons)
	return m.styles.Dialog.BorderForeground(Colors.Error).Render(content)
}

// viewInput renders the title input dialog.
func (m *Model) viewInput() string {
	var heading string
	switch m.mode {
	case ModeInputTask:
		col := m.SelectedColumn()
		heading = "◆ New Task"
		if col != nil {
			heading += " in " + col.Title
		}
	case ModeInputColumn:
		heading = "◆ New Column"
	case ModeInputRename:
		heading = "◆ Rename"
	case ModeNormal, ModeDrag, ModeConfirm, ModeHelp:
	}

	title := m.styles.DialogTitle.Render(heading)
	label := m.styles.InputPrompt.Render("Title")
	hint := m.styles.FooterKey.Render("enter") + m.styles.Footer.Render(" save  ") +
		m.styles.FooterKey.Render("esc") + m.styles.Footer.Render(" cancel")

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", label, m.input.View(), "", hint)
	return m.styles.Dialog.Render(content)
}

// viewFooter renders the footer with key hints.
func (m *Model) viewFooter() string {
	switch m.mode {
	case ModeNormal:
		return m.help.ShortHelpView(m.keys.ShortHelp())
	case ModeDrag:
		what := "task"
		if m.board.ActiveCol != nil {
			what = "column"
		}
		return m.styles.Pending.Render("dragging "+what+"  ") + m.help.ShortHelpView(m.keys.DragHelp())
	case ModeConfirm, ModeInputTask, ModeInputColumn, ModeInputRename, ModeHelp:
		// Hints are shown in the dialogs themselves
		return ""
	}
	return ""
}

// viewHelp renders the help view.
func (m *Model) viewHelp() string {
	title := m.styles.HeaderText.Render("KEYBOARD SHORTCUTS")
	full := m.help.FullHelpView(m.keys.FullHelp())
	hint := m.styles.Footer.Render("press any key to close")
	return m.styles.Help.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", full, "", hint))
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
