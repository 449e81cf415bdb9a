package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

// MatchKeyMap defines the key bindings used during a match.
type MatchKeyMap struct {
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding
	Serve key.Binding
	Back  key.Binding
	Quit  key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k MatchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Serve, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k MatchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Serve, k.Back, k.Quit},
	}
}

// DefaultMatchKeyMap returns default key bindings.
func DefaultMatchKeyMap() MatchKeyMap {
	return MatchKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "move right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "raise paddle"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "lower paddle"),
		),
		Serve: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "serve"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "leave match"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ActionFor translates a key message to a paddle action.
// Returns ActionNone for keys outside the movement and serve bindings.
func (k MatchKeyMap) ActionFor(msg tea.KeyMsg) core.Action {
	switch {
	case key.Matches(msg, k.Left):
		return core.ActionLeft
	case key.Matches(msg, k.Right):
		return core.ActionRight
	case key.Matches(msg, k.Up):
		return core.ActionUp
	case key.Matches(msg, k.Down):
		return core.ActionDown
	case key.Matches(msg, k.Serve):
		return core.ActionServe
	}
	return core.ActionNone
}
