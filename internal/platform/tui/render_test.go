package tui

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/tui-kiosk/internal/core"
	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

func TestDrawBoardOwnerColours(t *testing.T) {
	ctx := context.Background()
	gw := stacker.NewMemoryGateway()

	rec := stacker.NewGameRecord(stacker.DefaultWidth, stacker.DefaultHeight, rand.New(rand.NewSource(1)))
	rec.Board.Set(1, 28, stacker.Occupied(stacker.CellO, 7))
	rec.Score = 12345
	if err := gw.SaveGame(ctx, rec); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}
	if _, err := gw.CreatePlayer(ctx, 2, "#00ff00"); err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}

	turn := stacker.NewTurn(gw, 2, stacker.WithTiming(stacker.Timing{}))
	if err := turn.Begin(ctx); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	snap := turn.Snapshot()

	w, h := ScreenSize(snap.Width, snap.Height)
	s := core.NewScreen(w, h)
	palette := Palette{7: "#ff0000"}
	DrawBoard(s, snap, palette)

	if c := s.GetCell(0, 0); c.Rune != '█' || c.Color != core.ColorGray {
		t.Errorf("wall cell = %+v, expected gray block", c)
	}
	if c := s.GetCell(1*cellWidth, 28); c.Color != "#ff0000" {
		t.Errorf("owned cell colour = %q, expected owner colour", c.Color)
	}
	if c := s.GetCell(snap.Block[0].X*cellWidth, snap.Block[0].Y); c.Color != "#00ff00" {
		t.Errorf("active block colour = %q, expected player colour", c.Color)
	}
	if !strings.Contains(s.String(), "12,345") {
		t.Errorf("panel should show the formatted score:\n%s", s.String())
	}
	if !strings.Contains(s.String(), "RESERVE") {
		t.Errorf("panel should show the reserve")
	}
}

func TestPaletteFallback(t *testing.T) {
	p := PaletteFrom([]stacker.PlayerStats{{Account: 1, Color: "#123456"}, {Account: 2}})

	if got := p.For(1); got != "#123456" {
		t.Errorf("For(1) = %q", got)
	}
	if got := p.For(2); got != core.ColorWhite {
		t.Errorf("For(2) = %q, expected white fallback", got)
	}
	if got := p.For(3); got != core.ColorWhite {
		t.Errorf("For(3) = %q, expected white fallback", got)
	}
}

func TestRenderScreenKeepsText(t *testing.T) {
	s := core.NewScreen(6, 2)
	s.DrawTextColor(0, 0, "ab", core.ColorRed)
	s.DrawText(2, 0, "cd")
	s.DrawTextColor(0, 1, "xyz", "#abcdef")

	out := RenderScreen(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderScreen() produced %d lines, expected 2", len(lines))
	}
	for _, want := range []string{"ab", "cd", "xyz"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderScreen() lost %q", want)
		}
	}
}

func TestDrawBoardCountdown(t *testing.T) {
	ctx := context.Background()
	gw := stacker.NewMemoryGateway()
	if _, err := gw.CreatePlayer(ctx, 1, "#abcdef"); err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}

	turn := stacker.NewTurn(gw, 1,
		stacker.WithRand(rand.New(rand.NewSource(5))),
		stacker.WithTiming(stacker.Timing{Countdown: 2500 * time.Millisecond}),
	)
	if err := turn.Begin(ctx); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	snap := turn.Snapshot()
	if snap.State != stacker.StateCountdown {
		t.Fatalf("state = %v, expected countdown", snap.State)
	}

	w, h := ScreenSize(snap.Width, snap.Height)
	s := core.NewScreen(w, h)
	DrawBoard(s, snap, nil)

	row := s.Row(snap.Height/3 + 1)
	if !strings.Contains(row, "│  3  │") {
		t.Errorf("countdown row = %q, expected boxed 3", row)
	}
}
