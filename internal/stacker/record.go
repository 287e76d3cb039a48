package stacker

import "math/rand"

// GameRecord is the shared, singleton game state that persists across turns.
type GameRecord struct {
	Score     int
	Highscore int
	Level     int
	Lines     int
	Next      []Kind // upcoming pieces, head first
	Reserve   Kind
	Board     *Board

	// Revision increases on every write. A turn only writes back if the
	// stored revision still matches the one it loaded.
	Revision int64
}

// NewGameRecord returns a fresh record with an empty board, a shuffled bag
// and a random reserve piece.
func NewGameRecord(width, height int, rng *rand.Rand) GameRecord {
	rec := GameRecord{}
	rec.reset(width, height, rng)
	return rec
}

// Reset discards the current game: score, level and lines drop to zero, the
// board is recreated, and the queue and reserve are re-randomised. The
// highscore and revision survive.
func (g *GameRecord) Reset(width, height int, rng *rand.Rand) {
	g.reset(width, height, rng)
}

func (g *GameRecord) reset(width, height int, rng *rand.Rand) {
	if g.Score > g.Highscore {
		g.Highscore = g.Score
	}
	g.Score = 0
	g.Level = 0
	g.Lines = 0
	g.Board = NewBoard(width, height)
	g.Next = NewBag(rng, nil).Queue()
	g.Reserve = RandomKind(rng)
}

// Clone returns a deep copy of the record.
func (g GameRecord) Clone() GameRecord {
	out := g
	out.Next = append([]Kind(nil), g.Next...)
	if g.Board != nil {
		out.Board = g.Board.Clone()
	}
	return out
}

// PlayerStats holds one account's statistics. Session fields cover the
// current communal game and reset on game over; lifetime fields never reset.
type PlayerStats struct {
	Account AccountID
	Color   string // display colour, "#rrggbb"

	SessionScore  int
	SessionBlocks int
	SessionLines  int
	SessionPoints int

	LifetimeScore  int
	LifetimeBlocks int
	LifetimeLines  int
	LifetimePoints int
}

// NewPlayerStats returns a zeroed stats row for a newly registered account.
func NewPlayerStats(id AccountID, color string) PlayerStats {
	return PlayerStats{Account: id, Color: color}
}

// ResetSession zeroes the session counters.
func (p *PlayerStats) ResetSession() {
	p.SessionScore = 0
	p.SessionBlocks = 0
	p.SessionLines = 0
	p.SessionPoints = 0
}
