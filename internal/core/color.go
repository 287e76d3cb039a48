package core

import "strings"

// Color is a terminal foreground colour: an ANSI 256 index ("245") or an
// HTML hex value ("#ff8800"). The empty Color is the terminal default.
type Color string

// Named colours for chrome around the board.
const (
	ColorDefault Color = ""
	ColorRed     Color = "1"
	ColorGreen   Color = "2"
	ColorYellow  Color = "3"
	ColorCyan    Color = "6"
	ColorWhite   Color = "15"
	ColorOrange  Color = "208"
	ColorGray    Color = "245"
	ColorDim     Color = "238"
)

// IsHex reports whether c is an HTML hex colour.
func (c Color) IsHex() bool {
	return strings.HasPrefix(string(c), "#")
}
