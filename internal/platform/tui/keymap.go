package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// PlayKeyMap defines the key bindings while a piece is in play.
type PlayKeyMap struct {
	Left     key.Binding
	Right    key.Binding
	SoftDrop key.Binding
	HardDrop key.Binding
	RotateCW key.Binding
	RotateCC key.Binding
	Reserve  key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k PlayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.RotateCW, k.SoftDrop, k.HardDrop, k.Reserve, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k PlayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.SoftDrop, k.HardDrop},
		{k.RotateCW, k.RotateCC, k.Reserve, k.Quit},
	}
}

// DefaultPlayKeyMap returns default key bindings.
func DefaultPlayKeyMap() PlayKeyMap {
	return PlayKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a", "h"),
			key.WithHelp("←/a", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d", "l"),
			key.WithHelp("→/d", "right"),
		),
		SoftDrop: key.NewBinding(
			key.WithKeys("down", "s", "j"),
			key.WithHelp("↓/s", "soft drop"),
		),
		HardDrop: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "hard drop"),
		),
		RotateCW: key.NewBinding(
			key.WithKeys("up", "w", "x", "k"),
			key.WithHelp("↑/x", "rotate"),
		),
		RotateCC: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "rotate back"),
		),
		Reserve: key.NewBinding(
			key.WithKeys("c", "tab"),
			key.WithHelp("c", "swap reserve"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Command translates a key message to a turn command.
func (k PlayKeyMap) Command(msg tea.KeyMsg) (stacker.Command, bool) {
	switch {
	case key.Matches(msg, k.Left):
		return stacker.CmdMoveLeft, true
	case key.Matches(msg, k.Right):
		return stacker.CmdMoveRight, true
	case key.Matches(msg, k.SoftDrop):
		return stacker.CmdSoftDrop, true
	case key.Matches(msg, k.HardDrop):
		return stacker.CmdHardDrop, true
	case key.Matches(msg, k.RotateCW):
		return stacker.CmdRotateCW, true
	case key.Matches(msg, k.RotateCC):
		return stacker.CmdRotateCCW, true
	case key.Matches(msg, k.Reserve):
		return stacker.CmdSwapReserve, true
	}
	return 0, false
}
