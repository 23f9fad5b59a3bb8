package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings shown in the footer
type KeyMap struct {
	// Profile
	Tasks   key.Binding
	Refresh key.Binding
	SignOut key.Binding

	// Tasks
	Up      key.Binding
	Down    key.Binding
	Add     key.Binding
	Cycle   key.Binding
	Delete  key.Binding
	Profile key.Binding

	// Sign in
	NextField  key.Binding
	Submit     key.Binding
	ToggleMode key.Binding

	// General
	Help       key.Binding
	ThemeCycle key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding

	// active selects which bindings ShortHelp returns
	active View
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tasks: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tasks"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sign out"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Cycle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "cycle status"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Profile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "profile"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "sign up/in"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ForView returns a copy whose ShortHelp matches view
func (k KeyMap) ForView(v View) KeyMap {
	k.active = v
	return k
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	switch k.active {
	case ViewSignIn:
		return []key.Binding{k.NextField, k.Submit, k.ToggleMode, k.ForceQuit}
	case ViewTasks:
		return []key.Binding{k.Add, k.Cycle, k.Delete, k.Profile, k.Help, k.Quit}
	default:
		return []key.Binding{k.Tasks, k.Refresh, k.SignOut, k.Help, k.Quit}
	}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tasks, k.Refresh, k.SignOut},
		{k.Up, k.Down, k.Add, k.Cycle, k.Delete, k.Profile},
		{k.NextField, k.Submit, k.ToggleMode},
		{k.Help, k.ThemeCycle, k.Quit, k.ForceQuit},
	}
}
