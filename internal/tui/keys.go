package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Grab        key.Binding
	Left        key.Binding
	Right       key.Binding
	CoarseLeft  key.Binding
	CoarseRight key.Binding
	Suspend     key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Grab: key.NewBinding(
			key.WithKeys(" ", "space", "enter"),
			key.WithHelp("space", "grab/release"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "move"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "move"),
		),
		CoarseLeft: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("H", "move fast"),
		),
		CoarseRight: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("L", "move fast"),
		),
		Suspend: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "suspend"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Left, k.Right, k.Suspend, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Grab, k.Left, k.Right},
		{k.CoarseLeft, k.CoarseRight},
		{k.Suspend, k.Quit},
	}
}
