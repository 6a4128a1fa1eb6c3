package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the TUI.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Drag
	PickTask   key.Binding // Pick up the selected task
	PickColumn key.Binding // Pick up the selected column
	Drop       key.Binding // Drop the carried entity
	Cancel     key.Binding // Stop carrying; the current arrangement is kept

	// Board management
	NewTask    key.Binding
	NewColumn  key.Binding
	Rename     key.Binding // Rename the selected task (or the column when it is empty)
	Delete     key.Binding // Delete the selected task
	DeleteCol  key.Binding // Delete the selected column
	Refresh    key.Binding // Refetch the board
	Help       key.Binding
	Quit       key.Binding
	Confirm    key.Binding // Confirm action (in confirm mode)
	Escape     key.Binding // Cancel/back
	InputEnter key.Binding // Submit text input
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		PickTask: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pick up task"),
		),
		PickColumn: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "pick up column"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "drop"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop dragging"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		NewColumn: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new column"),
		),
		Rename: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete task"),
		),
		DeleteCol: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete column"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		InputEnter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
	}
}

// ShortHelp returns keybindings to show in the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.PickTask, k.PickColumn, k.NewTask, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.PickTask, k.PickColumn, k.Drop, k.Cancel},
		{k.NewTask, k.NewColumn, k.Rename},
		{k.Delete, k.DeleteCol, k.Refresh, k.Help, k.Quit},
	}
}

// DragHelp returns the keybindings available while dragging.
func (k KeyMap) DragHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.Drop, k.Cancel}
}
