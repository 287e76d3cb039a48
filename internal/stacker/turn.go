package stacker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// State is a phase of a single-piece turn.
type State uint8

const (
	StateLoading State = iota
	StateColorSelect
	StateCountdown
	StateActive
	StateLock
	StateClearing
	StateSettled
	StateGameOver
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateColorSelect:
		return "color_select"
	case StateCountdown:
		return "countdown"
	case StateActive:
		return "active"
	case StateLock:
		return "lock"
	case StateClearing:
		return "clearing"
	case StateSettled:
		return "settled"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Terminal reports whether the turn is over.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateGameOver
}

// Command is a discrete player input.
type Command uint8

const (
	CmdMoveLeft Command = iota
	CmdMoveRight
	CmdSoftDrop
	CmdHardDrop
	CmdRotateCW
	CmdRotateCCW
	CmdSwapReserve
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdMoveLeft:
		return "move_left"
	case CmdMoveRight:
		return "move_right"
	case CmdSoftDrop:
		return "soft_drop"
	case CmdHardDrop:
		return "hard_drop"
	case CmdRotateCW:
		return "rotate_cw"
	case CmdRotateCCW:
		return "rotate_ccw"
	case CmdSwapReserve:
		return "swap_reserve"
	default:
		return "unknown"
	}
}

// Timing holds the fixed delays of a turn.
type Timing struct {
	Countdown  time.Duration // block visible but stationary before play
	ClearDelay time.Duration // full rows shown before removal
}

// DefaultTiming returns a 3 second countdown and a half second clear delay.
func DefaultTiming() Timing {
	return Timing{Countdown: 3 * time.Second, ClearDelay: 500 * time.Millisecond}
}

const (
	DefaultWidth  = 10
	DefaultHeight = 30
)

// Option configures a Turn.
type Option func(*Turn)

// WithRand sets the random source used for the bag and reserve.
func WithRand(rng *rand.Rand) Option {
	return func(t *Turn) { t.rng = rng }
}

// WithTiming overrides the countdown and clear delays.
func WithTiming(timing Timing) Option {
	return func(t *Turn) { t.timing = timing }
}

// WithScoring overrides level progression.
func WithScoring(s Scoring) Option {
	return func(t *Turn) { t.scoring = s }
}

// WithBoardSize sets the expected board dimensions.
func WithBoardSize(width, height int) Option {
	return func(t *Turn) { t.width, t.height = width, height }
}

// WithLogger attaches a logger. Turns are silent by default.
func WithLogger(l *log.Logger) Option {
	return func(t *Turn) { t.logger = l }
}

// WithID overrides the generated turn identifier.
func WithID(id string) Option {
	return func(t *Turn) { t.id = id }
}

// Turn is one account's single-piece interaction with the shared game.
// It is driven by Tick and Do from one goroutine; it holds no locks.
//
// Persistent state is read once in Begin and written back once when the
// turn reaches Settled or GameOver. A turn abandoned before locking writes
// nothing.
type Turn struct {
	id      string
	gw      Gateway
	account AccountID
	width   int
	height  int
	rng     *rand.Rand
	timing  Timing
	scoring Scoring
	logger  *log.Logger

	state        State
	record       GameRecord
	baseRevision int64
	fresh        bool // record has never been persisted
	player       *PlayerStats
	block        *Block
	reserveUsed  bool
	lockPending  bool
	countdown    time.Duration
	fallAcc      time.Duration
	clearLeft    time.Duration
	pendingRows  []int
	settlement   *Settlement
	err          error
}

// NewTurn prepares a turn for account. Call Begin (or Tick) to load state.
func NewTurn(gw Gateway, account AccountID, opts ...Option) *Turn {
	t := &Turn{
		gw:      gw,
		account: account,
		width:   DefaultWidth,
		height:  DefaultHeight,
		timing:  DefaultTiming(),
		scoring: DefaultScoring(),
		state:   StateLoading,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	t.logger = t.logger.With("turn", t.id, "account", int64(account))
	return t
}

// ID returns the turn identifier used in logs and history.
func (t *Turn) ID() string {
	return t.id
}

// Account returns the account playing this turn.
func (t *Turn) Account() AccountID {
	return t.account
}

// State returns the current phase.
func (t *Turn) State() State {
	return t.state
}

// Err returns the error from the terminal write-back, if any.
func (t *Turn) Err() error {
	return t.err
}

// Settlement returns the scoring outcome once the turn has settled.
func (t *Turn) Settlement() (Settlement, bool) {
	if t.settlement == nil {
		return Settlement{}, false
	}
	return *t.settlement, true
}

func (t *Turn) setState(s State) {
	if s == t.state {
		return
	}
	t.logger.Debug("turn state", "from", t.state, "to", s)
	t.state = s
}

// Begin loads the game record and the account's stats. Accounts without
// stats go to colour selection; everyone else gets a block straight away.
func (t *Turn) Begin(ctx context.Context) error {
	if t.state != StateLoading {
		return ErrInvalidState
	}

	rec, err := t.gw.LoadGame(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = NewGameRecord(t.width, t.height, t.rng)
		t.fresh = true
	case err != nil:
		return fmt.Errorf("load game: %w", err)
	}
	if rec.Board == nil || rec.Board.Width() != t.width || rec.Board.Height() != t.height {
		return fmt.Errorf("%w: want %dx%d", ErrBoardDimensions, t.width, t.height)
	}
	t.record = rec
	t.baseRevision = rec.Revision

	p, err := t.gw.LoadPlayer(ctx, t.account)
	switch {
	case errors.Is(err, ErrNotFound):
		t.setState(StateColorSelect)
		return nil
	case err != nil:
		return fmt.Errorf("load player: %w", err)
	}
	t.player = &p
	t.spawn()
	return nil
}

// ChooseColor registers a first-time account with its display colour and
// spawns the block. Registering an account that already exists is a no-op.
func (t *Turn) ChooseColor(ctx context.Context, color string) error {
	if t.state != StateColorSelect {
		return ErrInvalidState
	}
	color, err := NormalizeColor(color)
	if err != nil {
		return err
	}
	p, err := t.gw.CreatePlayer(ctx, t.account, color)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	t.player = &p
	t.logger.Info("player registered", "color", p.Color)
	t.spawn()
	return nil
}

// spawn draws the next kind and places it at the top of the board.
func (t *Turn) spawn() {
	bag := NewBag(t.rng, t.record.Next)
	kind := bag.Draw()
	t.record.Next = bag.Queue()
	t.block = NewBlock(t.record.Board, kind, t.account)
	t.logger.Debug("block spawned", "kind", kind, "next", bag.Peek(3))
	t.countdown = t.timing.Countdown
	t.fallAcc = 0
	t.setState(StateCountdown)
	if t.countdown <= 0 {
		t.setState(StateActive)
	}
}

// Do applies a player command. Outside active play it returns
// ErrInvalidState, which hosts can ignore. Moves that do not fit are
// silently dropped.
func (t *Turn) Do(cmd Command) error {
	if t.state != StateActive || t.block == nil || t.lockPending {
		return ErrInvalidState
	}

	switch cmd {
	case CmdMoveLeft:
		t.block.Move(DirLeft, 1)
	case CmdMoveRight:
		t.block.Move(DirRight, 1)
	case CmdSoftDrop:
		if t.block.Fall() {
			t.fallAcc = 0
		} else {
			t.lockPending = true
		}
	case CmdHardDrop:
		t.block.HardDrop()
		t.lockPending = true
	case CmdRotateCW:
		t.block.Rotate(true)
	case CmdRotateCCW:
		t.block.Rotate(false)
	case CmdSwapReserve:
		t.swapReserve()
	default:
		return fmt.Errorf("stacker: unknown command %d", cmd)
	}
	return nil
}

// swapReserve exchanges the block kind with the reserve once per turn.
func (t *Turn) swapReserve() {
	if t.reserveUsed {
		return
	}
	current := t.block.Kind()
	if !t.block.Swap(t.record.Reserve) {
		return
	}
	t.record.Reserve = current
	t.reserveUsed = true
}

// Tick advances the turn by dt. Any dt is accepted: a long gap runs every
// automatic fall that fits into it. Write-back happens inside Tick when the
// turn reaches a terminal state.
func (t *Turn) Tick(ctx context.Context, dt time.Duration) error {
	if dt < 0 {
		dt = 0
	}

	switch t.state {
	case StateLoading:
		return t.Begin(ctx)

	case StateCountdown:
		t.countdown -= dt
		if t.countdown > 0 {
			return nil
		}
		t.fallAcc = -t.countdown
		t.countdown = 0
		t.setState(StateActive)
		return t.advance(ctx)

	case StateActive:
		t.fallAcc += dt
		return t.advance(ctx)

	case StateClearing:
		t.clearLeft -= dt
		if t.clearLeft > 0 {
			return nil
		}
		return t.finishClear(ctx)
	}
	return nil
}

// FallInterval returns the time between automatic falls at the current level.
func (t *Turn) FallInterval() time.Duration {
	return time.Second / time.Duration(t.record.Level+1)
}

func (t *Turn) advance(ctx context.Context) error {
	if t.lockPending {
		return t.lock(ctx)
	}
	interval := t.FallInterval()
	for t.fallAcc >= interval {
		t.fallAcc -= interval
		if !t.block.Fall() {
			return t.lock(ctx)
		}
	}
	return nil
}

func (t *Turn) lock(ctx context.Context) error {
	t.setState(StateLock)
	t.lockPending = false
	t.block.Lock()

	if t.block.Overlap() {
		return t.gameOver(ctx)
	}

	rows := t.record.Board.FullRows()
	if len(rows) == 0 {
		return t.settle(ctx, 0, nil)
	}
	t.pendingRows = rows
	t.clearLeft = t.timing.ClearDelay
	t.setState(StateClearing)
	if t.clearLeft <= 0 {
		return t.finishClear(ctx)
	}
	return nil
}

func (t *Turn) finishClear(ctx context.Context) error {
	lines, tally := t.record.Board.ClearFullRows()
	if got, want := CreditedPixels(tally), lines*t.record.Board.PlayableWidth(); got != want {
		t.logger.Warn("cleared pixel tally mismatch", "pixels", got, "expected", want)
	}
	t.pendingRows = nil
	return t.settle(ctx, lines, tally)
}

// checkRevision confirms nobody else wrote the record since Begin.
func (t *Turn) checkRevision(ctx context.Context, tx Store) error {
	cur, err := tx.LoadGame(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		if !t.fresh {
			return ErrStaleTurn
		}
		return nil
	case errors.Is(err, ErrBoardDimensions), errors.Is(err, ErrCorruptBoard):
		return ErrStaleTurn
	case err != nil:
		return err
	}
	if t.fresh || cur.Revision != t.baseRevision {
		return ErrStaleTurn
	}
	return nil
}

func (t *Turn) recordOutcome(ctx context.Context, tx Store, out TurnOutcome) error {
	rec, ok := tx.(HistoryRecorder)
	if !ok {
		return nil
	}
	out.TurnID = t.id
	return rec.RecordTurn(ctx, out)
}

func (t *Turn) settle(ctx context.Context, lines int, tally map[AccountID]int) error {
	st := t.scoring.Settle(t.account, t.block.Kind(), lines, tally, t.record)
	result := t.record.Clone()
	result.Revision = t.baseRevision
	st.ApplyGame(&result)

	err := t.gw.Transact(ctx, func(tx Store) error {
		if err := t.checkRevision(ctx, tx); err != nil {
			return err
		}
		if err := tx.SaveGame(ctx, result); err != nil {
			return err
		}
		for _, id := range st.Accounts() {
			p, err := tx.LoadPlayer(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			st.ApplyPlayer(&p)
			if err := tx.SavePlayer(ctx, p); err != nil {
				return err
			}
		}
		return t.recordOutcome(ctx, tx, TurnOutcome{
			Account: t.account,
			Kind:    st.Kind,
			Lines:   st.Lines,
			Points:  st.Points,
		})
	})

	t.settlement = &st
	t.reserveUsed = false
	t.setState(StateSettled)
	if err != nil {
		t.err = fmt.Errorf("settle: %w", err)
		t.logger.Warn("settle discarded", "error", err)
		return t.err
	}

	result.Revision = t.baseRevision + 1
	t.record = result
	if t.player != nil {
		st.ApplyPlayer(t.player)
	}
	t.logger.Info("turn settled", "kind", st.Kind, "lines", st.Lines, "points", st.Points, "score", result.Score)
	return nil
}

func (t *Turn) gameOver(ctx context.Context) error {
	reset := t.record.Clone()
	reset.Reset(t.width, t.height, t.rng)
	reset.Revision = t.baseRevision

	err := t.gw.Transact(ctx, func(tx Store) error {
		if err := t.checkRevision(ctx, tx); err != nil {
			return err
		}
		if err := tx.SaveGame(ctx, reset); err != nil {
			return err
		}
		if err := tx.ResetSessions(ctx); err != nil {
			return err
		}
		return t.recordOutcome(ctx, tx, TurnOutcome{
			Account:  t.account,
			Kind:     t.block.Kind(),
			GameOver: true,
		})
	})

	t.reserveUsed = false
	t.setState(StateGameOver)
	if err != nil {
		t.err = fmt.Errorf("game over: %w", err)
		t.logger.Warn("game over discarded", "error", err)
		return t.err
	}

	t.logger.Info("game over", "final_score", t.record.Score, "highscore", reset.Highscore)
	reset.Revision = t.baseRevision + 1
	t.record = reset
	if t.player != nil {
		t.player.ResetSession()
	}
	return nil
}

// Snapshot is a read-only view of a turn for rendering.
type Snapshot struct {
	TurnID  string
	State   State
	Account AccountID

	Board       [][]Cell
	Width       int
	Height      int
	PendingRows []int

	HasBlock  bool
	BlockKind Kind
	Block     []Point
	Shadow    []Point
	ShadowY   int

	Countdown   time.Duration
	Score       int
	Highscore   int
	Level       int
	Lines       int
	Next        []Kind
	Reserve     Kind
	ReserveUsed bool

	Player     *PlayerStats
	Settlement *Settlement
}

// Snapshot returns the current state for rendering.
func (t *Turn) Snapshot() Snapshot {
	s := Snapshot{
		TurnID:      t.id,
		State:       t.state,
		Account:     t.account,
		Width:       t.width,
		Height:      t.height,
		PendingRows: append([]int(nil), t.pendingRows...),
		Countdown:   t.countdown,
		Score:       t.record.Score,
		Highscore:   t.record.Highscore,
		Level:       t.record.Level,
		Lines:       t.record.Lines,
		Next:        append([]Kind(nil), t.record.Next...),
		Reserve:     t.record.Reserve,
		ReserveUsed: t.reserveUsed,
	}
	if t.record.Board != nil {
		s.Board = t.record.Board.Rows()
	}
	if t.block != nil && (t.state == StateCountdown || t.state == StateActive) {
		s.HasBlock = true
		s.BlockKind = t.block.Kind()
		s.Block = t.block.Cells()
		s.Shadow = t.block.ShadowCells()
		s.ShadowY = t.block.ShadowY()
	}
	if t.player != nil {
		p := *t.player
		s.Player = &p
	}
	if t.settlement != nil {
		st := *t.settlement
		s.Settlement = &st
	}
	return s
}
