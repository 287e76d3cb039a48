package stacker

// Direction is a movement direction for the active block.
type Direction uint8

const (
	DirLeft Direction = iota
	DirRight
	DirDown
)

// Delta returns the (dx, dy) offset for one step in this direction.
// Down increases Y (screen coordinates).
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	case DirDown:
		return 0, 1
	default:
		return 0, 0
	}
}

// kickOffsets are the horizontal shifts tried, in order, when a rotation
// collides in place.
var kickOffsets = []int{1, 2, -1, -2}

// Point is an absolute board position with the material that sits there.
type Point struct {
	X, Y int
	Type CellType
}

// Block is the single in-flight piece of a turn. It operates directly
// against the board it was spawned on.
type Block struct {
	board   *Board
	shape   Shape
	x, y    int
	owner   AccountID
	locked  bool
	overlap bool
}

// NewBlock spawns a piece of the given kind at the top-centre of the board.
// The spawn position is not checked; a spawn onto occupied cells is caught
// when the block locks.
func NewBlock(board *Board, k Kind, owner AccountID) *Block {
	shape := NewShape(k)
	return &Block{
		board: board,
		shape: shape,
		x:     (board.Width() - shape.Width()) / 2,
		y:     0,
		owner: owner,
	}
}

// Shape returns the current shape.
func (b *Block) Shape() Shape {
	return b.shape
}

// Kind returns the current piece kind.
func (b *Block) Kind() Kind {
	return b.shape.Kind()
}

// Position returns the top-left anchor of the shape matrix.
func (b *Block) Position() (x, y int) {
	return b.x, b.y
}

// Owner returns the account controlling this block.
func (b *Block) Owner() AccountID {
	return b.owner
}

// Locked reports whether the block has been written into the board.
func (b *Block) Locked() bool {
	return b.locked
}

// Overlap reports whether locking wrote over occupied cells.
func (b *Block) Overlap() bool {
	return b.overlap
}

// Collides reports whether the current shape anchored at (x, y) would leave
// the board horizontally, reach past the bottom, or hit a non-empty cell.
// Cells above the top edge are allowed.
func (b *Block) Collides(x, y int) bool {
	return b.shapeCollides(b.shape, x, y)
}

func (b *Block) shapeCollides(s Shape, x, y int) bool {
	for _, o := range s.Filled() {
		cx, cy := x+o.DX, y+o.DY
		if cx < 0 || cx >= b.board.Width() || cy >= b.board.Height() {
			return true
		}
		if cy >= 0 && !b.board.At(cx, cy).IsEmpty() {
			return true
		}
	}
	return false
}

// Move shifts the block factor cells in dir. The move is reverted if the
// new position collides. Returns whether the block moved.
func (b *Block) Move(dir Direction, factor int) bool {
	if b.locked {
		return false
	}
	dx, dy := dir.Delta()
	nx, ny := b.x+dx*factor, b.y+dy*factor
	if b.Collides(nx, ny) {
		return false
	}
	b.x, b.y = nx, ny
	return true
}

// Fall moves the block down one row. A false return means the block is
// resting on something and must lock.
func (b *Block) Fall() bool {
	return b.Move(DirDown, 1)
}

// Rotate turns the block a quarter turn. When the rotated shape collides in
// place it is retried one and two columns right, then one and two columns
// left; the first fit wins. If every kick fails the rotation is abandoned.
func (b *Block) Rotate(clockwise bool) bool {
	if b.locked {
		return false
	}
	return b.place(b.shape.Rotated(clockwise))
}

// Swap replaces the block's shape with the spawn orientation of k, using
// the same kick sequence as rotation. Returns false if it does not fit.
func (b *Block) Swap(k Kind) bool {
	if b.locked {
		return false
	}
	return b.place(NewShape(k))
}

// place adopts s at the current anchor or the first kick that fits.
func (b *Block) place(s Shape) bool {
	if !b.shapeCollides(s, b.x, b.y) {
		b.shape = s
		return true
	}
	for _, dx := range kickOffsets {
		if !b.shapeCollides(s, b.x+dx, b.y) {
			b.shape = s
			b.x += dx
			return true
		}
	}
	return false
}

// ShadowY returns the row the anchor would rest on if the block fell
// straight down. The block itself is not moved.
func (b *Block) ShadowY() int {
	y := b.y
	for !b.Collides(b.x, y+1) {
		y++
	}
	return y
}

// HardDrop moves the block to its shadow row and returns the rows travelled.
func (b *Block) HardDrop() int {
	if b.locked {
		return 0
	}
	target := b.ShadowY()
	dropped := target - b.y
	b.y = target
	return dropped
}

// Lock writes every shape cell into the board, tagged with the owner. If
// any target cell was already occupied (or lies above the board) the
// overlap flag is raised, but the remaining cells are still written.
func (b *Block) Lock() {
	if b.locked {
		return
	}
	for _, p := range b.Cells() {
		if !b.board.InBounds(p.X, p.Y) {
			b.overlap = true
			continue
		}
		if !b.board.At(p.X, p.Y).IsEmpty() {
			b.overlap = true
		}
		b.board.Set(p.X, p.Y, Occupied(p.Type, b.owner))
	}
	b.locked = true
}

// Cells returns the absolute positions covered by the block.
func (b *Block) Cells() []Point {
	return b.cellsAt(b.y)
}

// ShadowCells returns the positions the block would cover at its shadow row.
func (b *Block) ShadowCells() []Point {
	return b.cellsAt(b.ShadowY())
}

func (b *Block) cellsAt(y int) []Point {
	filled := b.shape.Filled()
	out := make([]Point, 0, len(filled))
	for _, o := range filled {
		out = append(out, Point{X: b.x + o.DX, Y: y + o.DY, Type: o.Type})
	}
	return out
}
