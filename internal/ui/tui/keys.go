package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the interactive search view.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Accept key.Binding // print the selected path and exit
	Clear  key.Binding
	Quit   key.Binding
}

// DefaultKeyMap leaves printable keys to the query input, so navigation
// uses arrows and control chords only.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p", "ctrl+k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n", "ctrl+j"),
		key.WithHelp("↓", "down"),
	),
	Accept: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Accept, k.Clear, k.Quit}
}
