// Package tui provides the terminal user interface for board.
package tui

// Mode represents the current UI mode.
type Mode int

const (
	ModeNormal      Mode = iota // Default navigation mode
	ModeDrag                    // Carrying a task or column
	ModeConfirm                 // Confirmation dialog mode
	ModeInputTask               // Title input for a new task
	ModeInputColumn             // Title input for a new column
	ModeInputRename             // Title input for the selected task or column
	ModeHelp                    // Help overlay mode
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDrag:
		return "drag"
	case ModeConfirm:
		return "confirm"
	case ModeInputTask:
		return "input_task"
	case ModeInputColumn:
		return "input_column"
	case ModeInputRename:
		return "input_rename"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IsInputMode returns true if the mode accepts text input.
func (m Mode) IsInputMode() bool {
	switch m {
	case ModeInputTask, ModeInputColumn, ModeInputRename:
		return true
	case ModeNormal, ModeDrag, ModeConfirm, ModeHelp:
		return false
	}
	return false
}

// ConfirmAction represents the type of action requiring confirmation.
type ConfirmAction int

const (
	ConfirmNone         ConfirmAction = iota
	ConfirmDeleteTask                 // Delete the selected task
	ConfirmDeleteColumn               // Delete the selected column and its tasks
)

// String returns a human-readable description of the action.
func (a ConfirmAction) String() string {
	switch a {
	case ConfirmNone:
		return ""
	case ConfirmDeleteTask:
		return "delete task"
	case ConfirmDeleteColumn:
		return "delete column"
	}
	return ""
}
