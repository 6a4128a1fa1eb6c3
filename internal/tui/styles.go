package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors defines the color palette for the TUI.
var Colors = struct {
	// Base colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Background lipgloss.Color

	// Title/text colors
	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color
	DescNormal    lipgloss.Color

	// Drag
	Carried lipgloss.Color
	Target  lipgloss.Color
}{
	Primary:    lipgloss.Color("#6C5CE7"), // Purple
	Secondary:  lipgloss.Color("#A29BFE"), // Lavender
	Muted:      lipgloss.Color("#636E72"), // Gray
	Error:      lipgloss.Color("#D63031"), // Red
	Success:    lipgloss.Color("#00B894"), // Green
	Warning:    lipgloss.Color("#FDCB6E"), // Yellow
	Background: lipgloss.Color("#2D3436"), // Dark gray

	TitleNormal:   lipgloss.Color("#DFE6E9"), // Light gray
	TitleSelected: lipgloss.Color("#FFEAA7"), // Yellow (selected)
	DescNormal:    lipgloss.Color("#636E72"), // Gray

	Carried: lipgloss.Color("#FDCB6E"), // Yellow
	Target:  lipgloss.Color("#00B894"), // Green
}

// columnWidth is the rendered width of one column, borders included.
const columnWidth = 30

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	// App
	App lipgloss.Style

	// Header
	Header     lipgloss.Style
	HeaderText lipgloss.Style
	HeaderInfo lipgloss.Style

	// Columns
	Column         lipgloss.Style
	ColumnSelected lipgloss.Style
	ColumnCarried  lipgloss.Style
	ColumnTarget   lipgloss.Style
	ColumnTitle    lipgloss.Style
	ColumnCount    lipgloss.Style
	ColumnEmpty    lipgloss.Style

	// Cards
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardCarried  lipgloss.Style
	CardDesc     lipgloss.Style

	// Help
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Footer
	Footer    lipgloss.Style
	FooterKey lipgloss.Style
	Pending   lipgloss.Style

	// Dialog
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogPrompt lipgloss.Style

	// Input
	Input       lipgloss.Style
	InputPrompt lipgloss.Style

	// Error
	ErrorMsg lipgloss.Style
}

// DefaultStyles returns the default styles for the TUI.
func DefaultStyles() Styles {
	column := lipgloss.NewStyle().
		Width(columnWidth-2).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Colors.Muted)

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		HeaderText: lipgloss.NewStyle().
			Bold(true),

		HeaderInfo: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Column: column,

		ColumnSelected: column.
			BorderForeground(Colors.Primary),

		ColumnCarried: column.
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Colors.Carried),

		ColumnTarget: column.
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Colors.Target),

		ColumnTitle: lipgloss.NewStyle().
			Bold(true),

		ColumnCount: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		ColumnEmpty: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Italic(true),

		Card: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal).
			PaddingLeft(2),

		CardSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true).
			PaddingLeft(2),

		CardCarried: lipgloss.NewStyle().
			Foreground(Colors.Background).
			Background(Colors.Carried).
			Bold(true).
			PaddingLeft(2),

		CardDesc: lipgloss.NewStyle().
			Foreground(Colors.DescNormal).
			PaddingLeft(4),

		Help: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		HelpKey: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		FooterKey: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		Pending: lipgloss.NewStyle().
			Foreground(Colors.Warning),

		Dialog: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Primary),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		DialogPrompt: lipgloss.NewStyle(),

		Input: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Primary),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),
	}
}

// ColumnAccent returns the style for a column title drawn in the column's color.
func (s Styles) ColumnAccent(color string) lipgloss.Style {
	if color == "" {
		return s.ColumnTitle
	}
	return s.ColumnTitle.Foreground(lipgloss.Color(color))
}
