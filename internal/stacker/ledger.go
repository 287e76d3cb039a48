package stacker

import "sort"

// basePoints is the award for clearing 1..4 rows with a single piece.
var basePoints = [...]int{0, 40, 100, 300, 1200}

// BasePoints returns the level-0 award for clearing lines rows at once.
func BasePoints(lines int) int {
	if lines <= 0 {
		return 0
	}
	if lines >= len(basePoints) {
		lines = len(basePoints) - 1
	}
	return basePoints[lines]
}

// LinePoints returns the award for clearing lines rows at the given level.
func LinePoints(lines, level int) int {
	return BasePoints(lines) * (level + 1)
}

// LevelCap is the highest level the shared game can reach.
const LevelCap = 20

// Scoring holds the level progression parameters. MaxLevel may lower the
// cap but never raise it past LevelCap.
type Scoring struct {
	LinesPerLevel int
	MaxLevel      int
}

// DefaultScoring returns one level per 10 lines, capped at level 20.
func DefaultScoring() Scoring {
	return Scoring{LinesPerLevel: 10, MaxLevel: 20}
}

// LevelFor returns the level reached after totalLines cleared lines.
func (s Scoring) LevelFor(totalLines int) int {
	per := s.LinesPerLevel
	if per <= 0 {
		per = 10
	}
	limit := s.MaxLevel
	if limit <= 0 || limit > LevelCap {
		limit = LevelCap
	}
	return min(totalLines/per, limit)
}

// Settlement is the outcome of one locked piece: what the shared record and
// every affected account gain.
type Settlement struct {
	Actor   AccountID
	Kind    Kind
	Lines   int
	Points  int // line-clear award, credited to the actor's score
	Level   int // game level after this settle
	Credits map[AccountID]int
}

// Settle scores a locked piece. lines and tally come from
// Board.ClearFullRows; rec is the game record before the clear.
//
// Owners of removed cells are credited one point per cell. The actor's own
// cells count once per cleared line.
func (s Scoring) Settle(actor AccountID, kind Kind, lines int, tally map[AccountID]int, rec GameRecord) Settlement {
	st := Settlement{
		Actor:   actor,
		Kind:    kind,
		Lines:   lines,
		Points:  LinePoints(lines, rec.Level),
		Level:   s.LevelFor(rec.Lines + lines),
		Credits: make(map[AccountID]int, len(tally)),
	}
	for owner, pixels := range tally {
		if owner == actor {
			st.Credits[owner] = pixels * lines
		} else {
			st.Credits[owner] = pixels
		}
	}
	return st
}

// ApplyGame adds the settlement to the shared record.
func (st Settlement) ApplyGame(rec *GameRecord) {
	rec.Score += st.Points
	rec.Lines += st.Lines
	rec.Level = st.Level
	if rec.Score > rec.Highscore {
		rec.Highscore = rec.Score
	}
}

// ApplyPlayer adds the settlement to one account's statistics. Accounts
// that neither acted nor owned removed cells are left unchanged.
func (st Settlement) ApplyPlayer(p *PlayerStats) {
	if p.Account == st.Actor {
		p.SessionScore += st.Points
		p.LifetimeScore += st.Points
		p.SessionLines += st.Lines
		p.LifetimeLines += st.Lines
		p.SessionBlocks++
		p.LifetimeBlocks++
	}
	if credit, ok := st.Credits[p.Account]; ok {
		p.SessionPoints += credit
		p.LifetimePoints += credit
	}
}

// Accounts returns the actor followed by every other credited account,
// in ascending id order.
func (st Settlement) Accounts() []AccountID {
	out := []AccountID{st.Actor}
	others := make([]AccountID, 0, len(st.Credits))
	for id := range st.Credits {
		if id != st.Actor {
			others = append(others, id)
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })
	return append(out, others...)
}

// CreditedPixels returns the total number of removed cells in the tally,
// which always equals lines * playable width for a full-row clear.
func CreditedPixels(tally map[AccountID]int) int {
	total := 0
	for _, n := range tally {
		total += n
	}
	return total
}
