package stacker

import "errors"

var (
	// ErrInvalidState is returned for commands issued outside active play.
	// Hosts should treat it as ignorable input.
	ErrInvalidState = errors.New("stacker: command not valid in current state")

	// ErrNotFound is returned by a Store when a record does not exist yet.
	ErrNotFound = errors.New("stacker: record not found")

	// ErrBoardDimensions means a persisted board does not match the
	// configured size. Recovery is an administrative reset.
	ErrBoardDimensions = errors.New("stacker: persisted board has wrong dimensions")

	// ErrCorruptBoard means a persisted board holds unknown cell types or
	// is missing its wall border.
	ErrCorruptBoard = errors.New("stacker: persisted board is corrupt")

	// ErrStaleTurn means the game record changed while the turn was in
	// progress; the turn's result was discarded.
	ErrStaleTurn = errors.New("stacker: game record changed during turn")

	// ErrInvalidColor is returned for colours that are not "#rrggbb".
	ErrInvalidColor = errors.New("stacker: invalid display colour")
)
