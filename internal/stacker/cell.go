// Package stacker implements the communal block-stacking game: a single
// shared board that survives across short kiosk sessions, where each
// session places exactly one falling piece.
//
// The package is UI-agnostic and deterministic for a given RNG. All
// persistence goes through the injected Gateway.
package stacker

import "fmt"

// AccountID identifies the account that owns a locked cell or a PlayerStats row.
type AccountID int64

// CellType is the material of a single board cell.
type CellType uint8

const (
	CellEmpty CellType = iota
	CellWall
	CellO
	CellT
	CellS
	CellZ
	CellJ
	CellL
	// The long piece is stored as positional segments so a renderer
	// can draw it as one continuous bar in either orientation.
	CellIHorizStart
	CellIHorizMid
	CellIHorizEnd
	CellIVertStart
	CellIVertMid
	CellIVertEnd

	cellTypeCount
)

// Valid reports whether t is a known cell type.
func (t CellType) Valid() bool {
	return t < cellTypeCount
}

// IsPiece reports whether t is material left behind by a locked piece.
func (t CellType) IsPiece() bool {
	return t >= CellO && t < cellTypeCount
}

// Kind returns the piece kind that produces this cell type.
// The second return is false for Empty and Wall.
func (t CellType) Kind() (Kind, bool) {
	switch t {
	case CellO:
		return KindO, true
	case CellT:
		return KindT, true
	case CellS:
		return KindS, true
	case CellZ:
		return KindZ, true
	case CellJ:
		return KindJ, true
	case CellL:
		return KindL, true
	case CellIHorizStart, CellIHorizMid, CellIHorizEnd,
		CellIVertStart, CellIVertMid, CellIVertEnd:
		return KindI, true
	default:
		return 0, false
	}
}

// String returns a short name for the cell type.
func (t CellType) String() string {
	switch t {
	case CellEmpty:
		return "empty"
	case CellWall:
		return "wall"
	case CellIHorizStart, CellIHorizMid, CellIHorizEnd,
		CellIVertStart, CellIVertMid, CellIVertEnd:
		return "I"
	}
	if k, ok := t.Kind(); ok {
		return k.String()
	}
	return fmt.Sprintf("CellType(%d)", uint8(t))
}

// Cell is one grid position. It is a tagged variant: Empty, Wall, or a
// piece cell owned by exactly one account. Construct cells with Empty,
// Wall and Occupied; the zero value is Empty.
type Cell struct {
	typ   CellType
	owner AccountID
}

// Empty returns an empty cell.
func Empty() Cell {
	return Cell{typ: CellEmpty}
}

// Wall returns a permanent wall cell.
func Wall() Cell {
	return Cell{typ: CellWall}
}

// Occupied returns a piece cell owned by owner.
// Non-piece types collapse to Empty or Wall and carry no owner.
func Occupied(t CellType, owner AccountID) Cell {
	if !t.IsPiece() {
		return Cell{typ: t}
	}
	return Cell{typ: t, owner: owner}
}

// Type returns the cell material.
func (c Cell) Type() CellType {
	return c.typ
}

// IsEmpty reports whether nothing occupies the cell.
func (c Cell) IsEmpty() bool {
	return c.typ == CellEmpty
}

// IsWall reports whether the cell is part of the permanent border.
func (c Cell) IsWall() bool {
	return c.typ == CellWall
}

// Owner returns the owning account of a piece cell.
func (c Cell) Owner() (AccountID, bool) {
	if !c.typ.IsPiece() {
		return 0, false
	}
	return c.owner, true
}
