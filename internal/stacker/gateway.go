package stacker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// Store is the persistence surface the engine reads and writes.
// Implementations return ErrNotFound for missing game or player records.
type Store interface {
	// LoadGame returns the shared game record.
	LoadGame(ctx context.Context) (GameRecord, error)

	// SaveGame persists rec and sets the stored revision to rec.Revision+1.
	SaveGame(ctx context.Context, rec GameRecord) error

	// LoadPlayer returns the stats row for id.
	LoadPlayer(ctx context.Context, id AccountID) (PlayerStats, error)

	// SavePlayer overwrites an existing stats row.
	SavePlayer(ctx context.Context, p PlayerStats) error

	// CreatePlayer registers id with the given colour. If the row already
	// exists it is returned unchanged.
	CreatePlayer(ctx context.Context, id AccountID, color string) (PlayerStats, error)

	// Players returns every stats row ordered by account id.
	Players(ctx context.Context) ([]PlayerStats, error)

	// ResetSessions zeroes the session counters of every account.
	ResetSessions(ctx context.Context) error
}

// Gateway is a Store that can run a group of operations atomically.
// Transact must be short: it is only ever held around a single settle or
// reset, never across a player's turn.
type Gateway interface {
	Store
	Transact(ctx context.Context, fn func(tx Store) error) error
}

// TurnOutcome is one line of turn history.
type TurnOutcome struct {
	TurnID   string
	Account  AccountID
	Kind     Kind
	Lines    int
	Points   int
	GameOver bool
}

// HistoryRecorder is implemented by stores that keep a turn log. The turn
// writes its outcome inside the same transaction as the settle.
type HistoryRecorder interface {
	RecordTurn(ctx context.Context, out TurnOutcome) error
}

// NormalizeColor validates an HTML hex colour ("#rgb" or "#rrggbb") and
// returns it in canonical "#rrggbb" form.
func NormalizeColor(color string) (string, error) {
	c, err := colorful.Hex(strings.TrimSpace(color))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	return c.Hex(), nil
}

// WireCell is the persisted form of a cell: [cell_type, owner], where owner
// is NoOwner for empty and wall cells.
type WireCell [2]int

// NoOwner is the persisted owner of cells that nobody owns.
const NoOwner = -1

// EncodeBoard converts a board into its persisted row-major form.
func EncodeBoard(b *Board) [][]WireCell {
	out := make([][]WireCell, b.Height())
	for y := range out {
		out[y] = make([]WireCell, b.Width())
		for x := range out[y] {
			c := b.At(x, y)
			owner := NoOwner
			if id, ok := c.Owner(); ok {
				owner = int(id)
			}
			out[y][x] = WireCell{int(c.Type()), owner}
		}
	}
	return out
}

// DecodeBoard rebuilds a board from its persisted form. The board must be
// exactly width x height with an intact wall border; anything else is
// refused rather than repaired.
func DecodeBoard(rows [][]WireCell, width, height int) (*Board, error) {
	if len(rows) != height {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrBoardDimensions, len(rows), height)
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBoardDimensions, y, len(row), width)
		}
	}

	b := NewBoard(width, height)
	for y, row := range rows {
		for x, wc := range row {
			if wc[0] < 0 || !CellType(wc[0]).Valid() {
				return nil, fmt.Errorf("%w: unknown cell type %d at (%d,%d)", ErrCorruptBoard, wc[0], x, y)
			}
			t := CellType(wc[0])
			border := x == 0 || x == width-1 || y == height-1
			if border != (t == CellWall) {
				return nil, fmt.Errorf("%w: wall border broken at (%d,%d)", ErrCorruptBoard, x, y)
			}
			switch {
			case t == CellEmpty:
				b.Set(x, y, Empty())
			case t == CellWall:
				b.Set(x, y, Wall())
			case wc[1] < 0:
				return nil, fmt.Errorf("%w: unowned piece cell at (%d,%d)", ErrCorruptBoard, x, y)
			default:
				b.Set(x, y, Occupied(t, AccountID(wc[1])))
			}
		}
	}
	return b, nil
}

// EncodeKinds converts a piece queue to its persisted integers.
func EncodeKinds(kinds []Kind) []int {
	out := make([]int, len(kinds))
	for i, k := range kinds {
		out[i] = int(k)
	}
	return out
}

// DecodeKinds converts persisted integers back to kinds.
func DecodeKinds(values []int) ([]Kind, error) {
	out := make([]Kind, len(values))
	for i, v := range values {
		k, err := DecodeKind(v)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

// DecodeKind converts one persisted integer to a kind.
func DecodeKind(v int) (Kind, error) {
	if v < 0 || !Kind(v).Valid() {
		return 0, fmt.Errorf("%w: unknown piece kind %d", ErrCorruptBoard, v)
	}
	return Kind(v), nil
}

// MemoryGateway is an in-memory Gateway. It is safe for concurrent use and
// backs tests and dry runs.
type MemoryGateway struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{state: newMemState()}
}

// LoadGame returns a copy of the stored game record.
func (m *MemoryGateway) LoadGame(ctx context.Context) (GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LoadGame(ctx)
}

// SaveGame stores a copy of rec with its revision advanced by one.
func (m *MemoryGateway) SaveGame(ctx context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SaveGame(ctx, rec)
}

// LoadPlayer returns a copy of id's stats row.
func (m *MemoryGateway) LoadPlayer(ctx context.Context, id AccountID) (PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LoadPlayer(ctx, id)
}

// SavePlayer overwrites an existing stats row.
func (m *MemoryGateway) SavePlayer(ctx context.Context, p PlayerStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SavePlayer(ctx, p)
}

// CreatePlayer registers id with color, or returns the existing row.
func (m *MemoryGateway) CreatePlayer(ctx context.Context, id AccountID, color string) (PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreatePlayer(ctx, id, color)
}

// Players returns every stats row ordered by account id.
func (m *MemoryGateway) Players(ctx context.Context) ([]PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Players(ctx)
}

// ResetSessions zeroes session stats for all players.
func (m *MemoryGateway) ResetSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ResetSessions(ctx)
}

// History returns every recorded turn outcome, oldest first.
func (m *MemoryGateway) History() []TurnOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TurnOutcome(nil), m.state.history...)
}

// Transact runs fn against a private copy of the state and publishes the
// copy only if fn succeeds.
func (m *MemoryGateway) Transact(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	return nil
}

// memState is the unlocked store behind MemoryGateway.
type memState struct {
	game    *GameRecord
	players map[AccountID]PlayerStats
	history []TurnOutcome
}

func newMemState() *memState {
	return &memState{players: make(map[AccountID]PlayerStats)}
}

func (s *memState) clone() *memState {
	out := newMemState()
	if s.game != nil {
		g := s.game.Clone()
		out.game = &g
	}
	for id, p := range s.players {
		out.players[id] = p
	}
	out.history = append([]TurnOutcome(nil), s.history...)
	return out
}

func (s *memState) LoadGame(ctx context.Context) (GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return GameRecord{}, err
	}
	if s.game == nil {
		return GameRecord{}, ErrNotFound
	}
	return s.game.Clone(), nil
}

func (s *memState) SaveGame(ctx context.Context, rec GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g := rec.Clone()
	g.Revision = rec.Revision + 1
	s.game = &g
	return nil
}

func (s *memState) LoadPlayer(ctx context.Context, id AccountID) (PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return PlayerStats{}, err
	}
	p, ok := s.players[id]
	if !ok {
		return PlayerStats{}, ErrNotFound
	}
	return p, nil
}

func (s *memState) SavePlayer(ctx context.Context, p PlayerStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.players[p.Account]; !ok {
		return ErrNotFound
	}
	s.players[p.Account] = p
	return nil
}

func (s *memState) CreatePlayer(ctx context.Context, id AccountID, color string) (PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return PlayerStats{}, err
	}
	if p, ok := s.players[id]; ok {
		return p, nil
	}
	color, err := NormalizeColor(color)
	if err != nil {
		return PlayerStats{}, err
	}
	p := NewPlayerStats(id, color)
	s.players[id] = p
	return p, nil
}

func (s *memState) Players(ctx context.Context) ([]PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]PlayerStats, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (s *memState) ResetSessions(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, p := range s.players {
		p.ResetSession()
		s.players[id] = p
	}
	return nil
}

func (s *memState) RecordTurn(ctx context.Context, out TurnOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.history = append(s.history, out)
	return nil
}

var (
	_ Gateway         = (*MemoryGateway)(nil)
	_ Store           = (*memState)(nil)
	_ HistoryRecorder = (*memState)(nil)
)
