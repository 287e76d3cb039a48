package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vovakirdan/tui-kiosk/internal/core"
	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// Board layout constants
const (
	cellWidth   = 2  // screen columns per board cell
	panelGap    = 2  // columns between board and side panel
	panelWidth  = 16 // side panel width
	previewRows = 3  // rows reserved per queued piece
	maxPreview  = 3  // queued pieces shown
)

// Palette maps accounts to their display colours.
type Palette map[stacker.AccountID]core.Color

// PaletteFrom builds a palette from stored player rows.
func PaletteFrom(players []stacker.PlayerStats) Palette {
	p := make(Palette, len(players))
	for _, ps := range players {
		if c := core.Color(ps.Color); c.IsHex() {
			p[ps.Account] = c
		}
	}
	return p
}

// For returns the colour of id, falling back to white.
func (p Palette) For(id stacker.AccountID) core.Color {
	if c, ok := p[id]; ok && c != core.ColorDefault {
		return c
	}
	return core.ColorWhite
}

// ScreenSize returns the screen needed to draw a board of the given size.
func ScreenSize(boardW, boardH int) (w, h int) {
	return boardW*cellWidth + panelGap + panelWidth, boardH
}

// DrawBoard draws the shared board, the active piece and the side panel.
func DrawBoard(s *core.Screen, snap stacker.Snapshot, palette Palette) {
	pending := make(map[int]bool, len(snap.PendingRows))
	for _, y := range snap.PendingRows {
		pending[y] = true
	}

	for y, row := range snap.Board {
		for x, cell := range row {
			switch {
			case cell.IsWall():
				drawCell(s, x, y, "██", core.ColorGray)
			case pending[y]:
				drawCell(s, x, y, "▒▒", core.ColorWhite)
			case cell.IsEmpty():
				drawCell(s, x, y, " .", core.ColorDim)
			default:
				owner, _ := cell.Owner()
				drawCell(s, x, y, "██", palette.For(owner))
			}
		}
	}

	if snap.HasBlock {
		own := palette.For(snap.Account)
		if snap.Player != nil && snap.Player.Color != "" {
			own = core.Color(snap.Player.Color)
		}
		for _, p := range snap.Shadow {
			drawCell(s, p.X, p.Y, "░░", own)
		}
		for _, p := range snap.Block {
			drawCell(s, p.X, p.Y, "██", own)
		}
	}

	if snap.State == stacker.StateCountdown {
		drawCountdown(s, snap)
	}

	drawPanel(s, snap.Width*cellWidth+panelGap, snap)
}

// drawCountdown boxes the remaining whole seconds over the top third of
// the board.
func drawCountdown(s *core.Screen, snap stacker.Snapshot) {
	secs := max(int((snap.Countdown+time.Second-1)/time.Second), 1)
	label := fmt.Sprint(secs)

	boardCols := snap.Width * cellWidth
	box := core.NewRect(0, snap.Height/3, len(label)+6, 3)
	box.X = core.Clamp((boardCols-box.W)/2, 0, max(boardCols-box.W, 0))
	s.DrawBox(box, core.ColorOrange)

	inner := box.Inset(1)
	for x := inner.X; x < inner.Right(); x++ {
		s.Set(x, inner.Y, ' ')
	}
	s.DrawTextColor(inner.X+(inner.W-len(label))/2, inner.Y, label, core.ColorYellow)
}

func drawCell(s *core.Screen, x, y int, glyph string, c core.Color) {
	s.DrawTextColor(x*cellWidth, y, glyph, c)
}

func drawPanel(s *core.Screen, x int, snap stacker.Snapshot) {
	y := 0
	stat := func(label, value string) {
		s.DrawTextColor(x, y, label, core.ColorGray)
		s.DrawText(x, y+1, value)
		y += 3
	}
	stat("SCORE", humanize.Comma(int64(snap.Score)))
	stat("HIGH", humanize.Comma(int64(snap.Highscore)))
	stat("LEVEL", fmt.Sprint(snap.Level))
	stat("LINES", humanize.Comma(int64(snap.Lines)))

	s.DrawTextColor(x, y, "NEXT", core.ColorGray)
	y++
	for i, k := range snap.Next {
		if i == maxPreview {
			break
		}
		drawShape(s, x, y, k, core.ColorCyan)
		y += previewRows
	}

	label := "RESERVE"
	color := core.ColorGreen
	if snap.ReserveUsed {
		label = "RESERVE (used)"
		color = core.ColorDim
	}
	s.DrawTextColor(x, y, label, core.ColorGray)
	drawShape(s, x, y+1, snap.Reserve, color)
}

// drawShape draws a piece in its spawn orientation with its top-left at (x, y).
func drawShape(s *core.Screen, x, y int, k stacker.Kind, c core.Color) {
	if !k.Valid() {
		return
	}
	for _, off := range stacker.NewShape(k).Filled() {
		s.DrawTextColor(x+off.DX*cellWidth, y+off.DY, "██", c)
	}
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	styles := make(map[core.Color]lipgloss.Style)
	styleFor := func(c core.Color) lipgloss.Style {
		st, ok := styles[c]
		if !ok {
			st = lipgloss.NewStyle()
			if c != core.ColorDefault {
				st = st.Foreground(lipgloss.Color(string(c)))
			}
			styles[c] = st
		}
		return st
	}

	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}
			sb.WriteString(styleFor(startColor).Render(run.String()))
		}
	}
	return sb.String()
}
