package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// Picker layout constants
const (
	paletteSize    = 12
	paletteColumns = 6
)

// PickerKeyMap defines the key bindings for the colour picker.
type PickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Custom key.Binding
	Cancel key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k PickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Select, k.Custom, k.Cancel}
}

// FullHelp returns key bindings for the full help view.
func (k PickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Left, k.Right}, {k.Select, k.Custom, k.Cancel}}
}

// DefaultPickerKeyMap returns default key bindings.
func DefaultPickerKeyMap() PickerKeyMap {
	return PickerKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "left")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "right")),
		Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
		Custom: key.NewBinding(key.WithKeys("#", "/"), key.WithHelp("#", "type hex")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave")),
	}
}

// ColorPicker lets a new player choose their display colour, either from a
// generated palette or by typing an RGB hex string.
type ColorPicker struct {
	colors []string
	cursor int
	keys   PickerKeyMap
	input  textinput.Model
	typing bool
	chosen string
	err    error
}

// NewColorPicker creates a picker with a freshly generated palette.
func NewColorPicker() ColorPicker {
	return NewColorPickerWith(paletteHex(colorful.FastHappyPalette(paletteSize)))
}

// NewColorPickerWith creates a picker over the given "#rrggbb" colours.
func NewColorPickerWith(colors []string) ColorPicker {
	ti := textinput.New()
	ti.Placeholder = "#ff8800"
	ti.CharLimit = 7
	ti.Width = 9
	return ColorPicker{
		colors: colors,
		keys:   DefaultPickerKeyMap(),
		input:  ti,
	}
}

func paletteHex(cs []colorful.Color) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Clamped().Hex()
	}
	return out
}

// Chosen returns the selected colour once the player confirmed one.
func (p ColorPicker) Chosen() (string, bool) {
	return p.chosen, p.chosen != ""
}

// Update handles input for the picker.
func (p ColorPicker) Update(msg tea.Msg) (ColorPicker, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if p.typing {
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, cmd
		}
		return p, nil
	}
	if p.typing {
		return p.updateTyping(km)
	}

	n := len(p.colors)
	switch {
	case key.Matches(km, p.keys.Left):
		if n > 0 {
			p.cursor = (p.cursor + n - 1) % n
		}
	case key.Matches(km, p.keys.Right):
		if n > 0 {
			p.cursor = (p.cursor + 1) % n
		}
	case key.Matches(km, p.keys.Up):
		if p.cursor >= paletteColumns {
			p.cursor -= paletteColumns
		}
	case key.Matches(km, p.keys.Down):
		if p.cursor+paletteColumns < n {
			p.cursor += paletteColumns
		}
	case key.Matches(km, p.keys.Select):
		if n > 0 {
			p.chosen = p.colors[p.cursor]
		}
	case key.Matches(km, p.keys.Custom):
		p.typing = true
		p.err = nil
		p.input.SetValue("#")
		p.input.CursorEnd()
		cmd := p.input.Focus()
		return p, cmd
	}
	return p, nil
}

func (p ColorPicker) updateTyping(km tea.KeyMsg) (ColorPicker, tea.Cmd) {
	switch km.String() {
	case "esc":
		p.typing = false
		p.input.Blur()
		return p, nil
	case "enter":
		hex, err := stacker.NormalizeColor(strings.TrimSpace(p.input.Value()))
		if err != nil {
			p.err = err
			return p, nil
		}
		p.chosen = hex
		p.typing = false
		p.input.Blur()
		return p, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(km)
	return p, cmd
}

// View renders the picker.
func (p ColorPicker) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Choose your colour"))
	b.WriteString("\n\n")

	for i, c := range p.colors {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("████")
		if i == p.cursor && !p.typing {
			swatch = "[" + swatch + "]"
		} else {
			swatch = " " + swatch + " "
		}
		b.WriteString(swatch)
		if (i+1)%paletteColumns == 0 {
			b.WriteString("\n")
		}
	}
	if len(p.colors)%paletteColumns != 0 {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if p.typing {
		b.WriteString("Hex colour: ")
		b.WriteString(p.input.View())
		b.WriteString("\n")
	} else if len(p.colors) > 0 {
		b.WriteString(fmt.Sprintf("Selected: %s\n", p.colors[p.cursor]))
	}
	if p.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("invalid colour, use #rrggbb"))
		b.WriteString("\n")
	}
	return b.String()
}

// KeyMap returns the picker bindings for the help view.
func (p ColorPicker) KeyMap() PickerKeyMap {
	return p.keys
}
