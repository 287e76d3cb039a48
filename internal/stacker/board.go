package stacker

// Board is the shared playfield. Column 0, column Width-1 and row Height-1
// are permanent walls for the lifetime of a board; everything else starts
// empty. Cells are addressed as rows[y][x].
type Board struct {
	width  int
	height int
	rows   [][]Cell
}

// NewBoard builds an all-empty grid and overlays the permanent wall border.
func NewBoard(width, height int) *Board {
	b := &Board{
		width:  width,
		height: height,
		rows:   make([][]Cell, height),
	}
	for y := range b.rows {
		b.rows[y] = b.emptyRow()
	}
	if height > 0 {
		floor := b.rows[height-1]
		for x := range floor {
			floor[x] = Wall()
		}
	}
	return b
}

// emptyRow returns a fresh row with the two wall bookends stamped in.
func (b *Board) emptyRow() []Cell {
	row := make([]Cell, b.width)
	if b.width > 0 {
		row[0] = Wall()
		row[b.width-1] = Wall()
	}
	return row
}

// Width returns the number of columns including both walls.
func (b *Board) Width() int {
	return b.width
}

// Height returns the number of rows including the floor.
func (b *Board) Height() int {
	return b.height
}

// PlayableWidth returns the number of columns between the walls.
func (b *Board) PlayableWidth() int {
	return b.width - 2
}

// InBounds returns true if (x, y) addresses a cell of the grid.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// At returns the cell at (x, y). Out-of-bounds positions read as Wall.
func (b *Board) At(x, y int) Cell {
	if !b.InBounds(x, y) {
		return Wall()
	}
	return b.rows[y][x]
}

// Set writes a cell. Out-of-bounds writes are ignored.
func (b *Board) Set(x, y int, c Cell) {
	if b.InBounds(x, y) {
		b.rows[y][x] = c
	}
}

// RowIsFull reports whether every cell in row y is non-empty. A row made
// only of wall cells (the floor) never counts as full.
func (b *Board) RowIsFull(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	allWall := true
	for _, c := range b.rows[y] {
		if c.IsEmpty() {
			return false
		}
		if !c.IsWall() {
			allWall = false
		}
	}
	return !allWall
}

// FullRows returns the indices of all rows pending removal, top to bottom.
func (b *Board) FullRows() []int {
	var full []int
	for y := range b.rows {
		if b.RowIsFull(y) {
			full = append(full, y)
		}
	}
	return full
}

// ClearFullRows removes every full row, inserting a fresh walled row at the
// top for each one so the row count is unchanged. It returns the number of
// rows removed and how many removed cells each account owned.
func (b *Board) ClearFullRows() (int, map[AccountID]int) {
	tally := make(map[AccountID]int)
	lines := 0

	// Scanning top-down is safe: removing row y shifts only rows above it,
	// and those were already checked.
	for y := 0; y < b.height; y++ {
		if !b.RowIsFull(y) {
			continue
		}
		for _, c := range b.rows[y] {
			if owner, ok := c.Owner(); ok {
				tally[owner]++
			}
		}
		copy(b.rows[1:y+1], b.rows[:y])
		b.rows[0] = b.emptyRow()
		lines++
	}

	return lines, tally
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	rows := make([][]Cell, len(b.rows))
	for y, row := range b.rows {
		rows[y] = make([]Cell, len(row))
		copy(rows[y], row)
	}
	return &Board{width: b.width, height: b.height, rows: rows}
}

// Rows returns a copy of the grid for read-only consumers.
func (b *Board) Rows() [][]Cell {
	return b.Clone().rows
}

// FilledCount returns the number of piece cells on the board.
func (b *Board) FilledCount() int {
	n := 0
	for _, row := range b.rows {
		for _, c := range row {
			if c.Type().IsPiece() {
				n++
			}
		}
	}
	return n
}
