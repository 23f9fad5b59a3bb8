package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the UI
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	// Semantic colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Task status colors
	StatusPending   lipgloss.Color
	StatusCompleted lipgloss.Color
	StatusArchived  lipgloss.Color
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header lipgloss.Style
	NavBar lipgloss.Style

	// Task rows
	TaskNormal   lipgloss.Style
	TaskSelected lipgloss.Style
	TaskDone     lipgloss.Style

	// Profile panel
	Title      lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	Panel      lipgloss.Style
	Card       lipgloss.Style
	CardValue  lipgloss.Style
	Section    lipgloss.Style
	Sentence   lipgloss.Style
	ActivityLn lipgloss.Style

	// Inputs
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Help and status
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
	Status        lipgloss.Style
	Error         lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		NavBar: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		TaskSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Highlight).
			Padding(0, 1),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Width(8),

		Value: lipgloss.NewStyle().
			Foreground(t.Foreground),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1).
			Width(12).
			Align(lipgloss.Center),

		CardValue: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Section: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		Sentence: lipgloss.NewStyle().
			Foreground(t.Foreground),

		ActivityLn: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),

		Status: lipgloss.NewStyle().
			Foreground(t.Info),

		Error: lipgloss.NewStyle().
			Foreground(t.Error),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Nord,
		Dracula,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// StatusColor picks the color for a task status bucket
func (t Theme) StatusColor(bucket string) lipgloss.Color {
	switch bucket {
	case "completed":
		return t.StatusCompleted
	case "archived":
		return t.StatusArchived
	default:
		return t.StatusPending
	}
}
