package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestColorPickerPalette(t *testing.T) {
	p := NewColorPicker()
	if len(p.colors) != paletteSize {
		t.Fatalf("palette has %d colours, expected %d", len(p.colors), paletteSize)
	}
	for _, c := range p.colors {
		if len(c) != 7 || c[0] != '#' {
			t.Errorf("palette colour %q is not #rrggbb", c)
		}
	}
}

func TestColorPickerNavigate(t *testing.T) {
	p := NewColorPickerWith([]string{"#111111", "#222222", "#333333"})

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if p.cursor != 2 {
		t.Errorf("left from first should wrap, cursor = %d", p.cursor)
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRight})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRight})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := p.Chosen()
	if !ok || got != "#222222" {
		t.Errorf("Chosen() = %q, %v; expected #222222", got, ok)
	}
}

func TestColorPickerCustomHex(t *testing.T) {
	p := NewColorPickerWith([]string{"#111111"})

	p, _ = p.Update(runeKey('#'))
	if !p.typing {
		t.Fatalf("# should open hex input")
	}
	for _, r := range "zz" {
		p, _ = p.Update(runeKey(r))
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := p.Chosen(); ok || p.err == nil {
		t.Fatalf("invalid hex should be rejected")
	}
	if !strings.Contains(p.View(), "invalid colour") {
		t.Errorf("error should be shown")
	}

	p.input.SetValue("#FF8800")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got, ok := p.Chosen()
	if !ok || got != "#ff8800" {
		t.Errorf("Chosen() = %q, %v; expected #ff8800", got, ok)
	}
}
