package stacker

import "fmt"

// Kind is one of the seven piece geometries. The numeric values are part of
// the persisted format (next-pieces queue and reserve piece).
type Kind uint8

const (
	KindI Kind = iota
	KindO
	KindT
	KindS
	KindZ
	KindJ
	KindL

	kindCount
)

// AllKinds lists every kind in enumeration order.
var AllKinds = []Kind{KindI, KindO, KindT, KindS, KindZ, KindJ, KindL}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

// String returns the single-letter name of the kind.
func (k Kind) String() string {
	switch k {
	case KindI:
		return "I"
	case KindO:
		return "O"
	case KindT:
		return "T"
	case KindS:
		return "S"
	case KindZ:
		return "Z"
	case KindJ:
		return "J"
	case KindL:
		return "L"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

const (
	e  = CellEmpty
	hs = CellIHorizStart
	hm = CellIHorizMid
	he = CellIHorizEnd
	vs = CellIVertStart
	vm = CellIVertMid
	ve = CellIVertEnd
)

var (
	iHorizontal = [][]CellType{
		{e, e, e, e},
		{hs, hm, hm, he},
		{e, e, e, e},
		{e, e, e, e},
	}
	iVertical = [][]CellType{
		{e, e, vs, e},
		{e, e, vm, e},
		{e, e, vm, e},
		{e, e, ve, e},
	}
)

// canonical holds the spawn orientation of every kind.
var canonical = map[Kind][][]CellType{
	KindI: iHorizontal,
	KindO: {
		{CellO, CellO},
		{CellO, CellO},
	},
	KindT: {
		{e, CellT, e},
		{CellT, CellT, CellT},
		{e, e, e},
	},
	KindS: {
		{e, CellS, CellS},
		{CellS, CellS, e},
		{e, e, e},
	},
	KindZ: {
		{CellZ, CellZ, e},
		{e, CellZ, CellZ},
		{e, e, e},
	},
	KindJ: {
		{CellJ, e, e},
		{CellJ, CellJ, CellJ},
		{e, e, e},
	},
	KindL: {
		{e, e, CellL},
		{CellL, CellL, CellL},
		{e, e, e},
	},
}

// rotator turns a matrix a quarter turn. Kinds pick their own strategy so
// the I and O special cases stay local to this file.
type rotator func(cells [][]CellType, clockwise bool) [][]CellType

var rotators = map[Kind]rotator{
	KindI: toggleRotation,
	KindO: fixedRotation,
}

// genericRotation is the standard 90 degree matrix rotation.
// Clockwise: transpose then reverse each row.
// Counter-clockwise: transpose then reverse each column.
func genericRotation(cells [][]CellType, clockwise bool) [][]CellType {
	h := len(cells)
	if h == 0 {
		return nil
	}
	w := len(cells[0])

	out := make([][]CellType, w)
	for y := range out {
		out[y] = make([]CellType, h)
		for x := range out[y] {
			if clockwise {
				out[y][x] = cells[h-1-x][y]
			} else {
				out[y][x] = cells[x][w-1-y]
			}
		}
	}
	return out
}

// fixedRotation never changes the matrix.
func fixedRotation(cells [][]CellType, _ bool) [][]CellType {
	return copyMatrix(cells)
}

// toggleRotation swaps between the two literal I matrices in either
// direction. Generic rotation would misplace the start/end segment tags.
func toggleRotation(cells [][]CellType, _ bool) [][]CellType {
	if matrixEqual(cells, iHorizontal) {
		return copyMatrix(iVertical)
	}
	return copyMatrix(iHorizontal)
}

// Shape is a kind together with its current rotation matrix.
type Shape struct {
	kind  Kind
	cells [][]CellType
}

// NewShape returns the kind in its spawn orientation.
func NewShape(k Kind) Shape {
	m, ok := canonical[k]
	if !ok {
		m = canonical[KindO]
		k = KindO
	}
	return Shape{kind: k, cells: copyMatrix(m)}
}

// Kind returns the piece kind.
func (s Shape) Kind() Kind {
	return s.kind
}

// Width returns the number of matrix columns.
func (s Shape) Width() int {
	if len(s.cells) == 0 {
		return 0
	}
	return len(s.cells[0])
}

// Height returns the number of matrix rows.
func (s Shape) Height() int {
	return len(s.cells)
}

// At returns the matrix entry at column x, row y.
func (s Shape) At(x, y int) CellType {
	if y < 0 || y >= len(s.cells) || x < 0 || x >= len(s.cells[y]) {
		return CellEmpty
	}
	return s.cells[y][x]
}

// Rotated returns the shape turned a quarter turn.
func (s Shape) Rotated(clockwise bool) Shape {
	rot, ok := rotators[s.kind]
	if !ok {
		rot = genericRotation
	}
	return Shape{kind: s.kind, cells: rot(s.cells, clockwise)}
}

// Offset is a filled matrix position relative to the shape anchor.
type Offset struct {
	DX, DY int
	Type   CellType
}

// Filled returns every non-empty matrix entry in row-major order.
func (s Shape) Filled() []Offset {
	var out []Offset
	for y, row := range s.cells {
		for x, t := range row {
			if t != CellEmpty {
				out = append(out, Offset{DX: x, DY: y, Type: t})
			}
		}
	}
	return out
}

func copyMatrix(m [][]CellType) [][]CellType {
	out := make([][]CellType, len(m))
	for y, row := range m {
		out[y] = make([]CellType, len(row))
		copy(out[y], row)
	}
	return out
}

func matrixEqual(a, b [][]CellType) bool {
	if len(a) != len(b) {
		return false
	}
	for y := range a {
		if len(a[y]) != len(b[y]) {
			return false
		}
		for x := range a[y] {
			if a[y][x] != b[y][x] {
				return false
			}
		}
	}
	return true
}
