// Package tui provides the Bubble Tea host for the kiosk.
// It drives a stacker.Turn from terminal input and renders the shared board.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to advance the turn simulation.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends a tick after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// elapsed returns the time since last, clamped to [0, limit] so a stalled
// terminal cannot drop a piece through several rows at once.
func elapsed(last, now time.Time, limit time.Duration) time.Duration {
	if last.IsZero() {
		return 0
	}
	dt := now.Sub(last)
	if dt < 0 {
		return 0
	}
	return min(dt, limit)
}
