package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/vovakirdan/tui-kiosk/internal/core"
	"github.com/vovakirdan/tui-kiosk/internal/lobby"
	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// maxStep caps the time fed into a single Tick.
const maxStep = time.Second

// retryInterval is how often a waiting session retries the lease.
const retryInterval = time.Second

// ErrLeaseLost is reported when the turn lease expired under an idle player.
var ErrLeaseLost = errors.New("tui: turn lease expired")

// phase is the host's own screen flow around a turn.
type phase uint8

const (
	phaseWaiting phase = iota // another session holds the board
	phasePlaying
	phaseSummary
)

// retryMsg asks a waiting session to try the lease again.
type retryMsg struct{}

// Options configures a host Model.
type Options struct {
	Gateway     stacker.Gateway
	Leaderboard Leaderboard
	Lobby       *lobby.Lobby // nil plays without a lease
	Account     stacker.AccountID
	Name        string
	TurnOptions []stacker.Option
	TickRate    time.Duration
	Logger      *log.Logger
	Context     context.Context
	Width       int
	Height      int
}

// Model is the Bubble Tea model that hosts one turn on the shared board.
type Model struct {
	opts     Options
	ctx      context.Context
	logger   *log.Logger
	phase    phase
	turn     *stacker.Turn
	lease    *lobby.Lease
	holder   lobby.Holder
	picker   ColorPicker
	keys     PlayKeyMap
	help     help.Model
	palette  Palette
	lastTick time.Time
	summary  ScoreboardModel
	err      error
	width    int
	height   int
	quitting bool
}

// NewModel creates the host and tries to take the lease straight away.
func NewModel(opts Options) Model {
	if opts.TickRate <= 0 {
		opts.TickRate = 16 * time.Millisecond
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := Model{
		opts:   opts,
		ctx:    ctx,
		logger: logger,
		keys:   DefaultPlayKeyMap(),
		help:   help.New(),
		width:  opts.Width,
		height: opts.Height,
	}
	m.tryStart()
	return m
}

// tryStart acquires the lease and creates the turn, or leaves the model
// waiting for the current holder.
func (m *Model) tryStart() bool {
	if m.opts.Lobby != nil {
		lease, err := m.opts.Lobby.Acquire(m.opts.Account, m.opts.Name)
		var busy *lobby.BusyError
		if errors.As(err, &busy) {
			m.phase = phaseWaiting
			m.holder = busy.Holder
			return false
		}
		m.lease = lease
	}

	turnOpts := append([]stacker.Option{stacker.WithLogger(m.logger)}, m.opts.TurnOptions...)
	m.turn = stacker.NewTurn(m.opts.Gateway, m.opts.Account, turnOpts...)
	m.phase = phasePlaying
	m.lastTick = time.Time{}
	m.logger.Debug("turn started", "turn", m.turn.ID(), "name", m.opts.Name)
	return true
}

// Init starts the tick loop or the wait loop.
func (m Model) Init() tea.Cmd {
	if m.phase == phaseWaiting {
		return m.waitCmd()
	}
	return tickCmd(m.opts.TickRate)
}

// waitCmd blocks until the lease is released or the retry interval passes.
func (m Model) waitCmd() tea.Cmd {
	lb := m.opts.Lobby
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-lb.Freed():
		case <-time.After(retryInterval):
		case <-ctx.Done():
		}
		return retryMsg{}
	}
}

// Update handles messages and advances the turn.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
		m.help.Width = wsm.Width
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.phase {
	case phaseWaiting:
		return m.updateWaiting(msg)
	case phaseSummary:
		updated, cmd := m.summary.Update(msg)
		if sb, ok := updated.(ScoreboardModel); ok {
			m.summary = sb
		}
		if m.summary.done {
			m.quitting = true
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case TickMsg:
		return m.handleTick(time.Time(msg))
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	if m.turn.State() == stacker.StateColorSelect {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateWaiting(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case retryMsg:
		if m.ctx.Err() != nil {
			return m.quit()
		}
		if m.tryStart() {
			return m, tickCmd(m.opts.TickRate)
		}
		return m, m.waitCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m.quit()
		}
	}
	return m, nil
}

// handleTick feeds the real elapsed time into the turn.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	dt := elapsed(m.lastTick, now, maxStep)
	m.lastTick = now

	if m.lease != nil && !m.lease.Valid() {
		m.logger.Info("turn abandoned", "turn", m.turn.ID(), "reason", "lease expired")
		m.err = ErrLeaseLost
		return m.finish()
	}

	before := m.turn.State()
	err := m.turn.Tick(m.ctx, dt)
	after := m.turn.State()

	if err != nil && !errors.Is(err, stacker.ErrInvalidState) {
		m.err = err
		if !after.Terminal() {
			m.logger.Error("turn failed", "turn", m.turn.ID(), "error", err)
			return m.finish()
		}
	}
	if before == stacker.StateLoading && after != stacker.StateLoading {
		m.loadPalette()
		if after == stacker.StateColorSelect {
			m.picker = NewColorPicker()
		}
	}
	if after.Terminal() {
		return m.finish()
	}
	return m, tickCmd(m.opts.TickRate)
}

// handleKey maps keys to turn commands, or to the picker during colour
// selection.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lease != nil {
		m.lease.Renew()
	}

	if m.turn.State() == stacker.StateColorSelect {
		if msg.String() == "esc" && !m.picker.typing {
			return m.quit()
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if color, ok := m.picker.Chosen(); ok {
			if err := m.turn.ChooseColor(m.ctx, color); err != nil {
				m.err = err
				return m.finish()
			}
			m.loadPalette()
		}
		return m, cmd
	}

	if m.keyQuit(msg) {
		return m.quit()
	}
	if cmd, ok := m.keys.Command(msg); ok {
		//nolint:errcheck // Input outside active play is dropped
		m.turn.Do(cmd)
	}
	return m, nil
}

func (m Model) keyQuit(msg tea.KeyMsg) bool {
	for _, k := range m.keys.Quit.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

// loadPalette reads every account's colour for drawing owned cells.
func (m *Model) loadPalette() {
	players, err := m.opts.Gateway.Players(m.ctx)
	if err != nil {
		m.logger.Warn("could not load player colours", "error", err)
		return
	}
	m.palette = PaletteFrom(players)
}

// finish releases the lease and switches to the summary screen.
func (m Model) finish() (tea.Model, tea.Cmd) {
	if m.lease != nil {
		m.lease.Release()
		m.lease = nil
	}
	m.phase = phaseSummary
	m.summary = NewScoreboardModel(m.opts.Leaderboard, m.width, max(m.height-6, 10), false)
	return m, nil
}

// quit leaves without finishing. An unfinished turn writes nothing.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.turn != nil && !m.turn.State().Terminal() && m.phase == phasePlaying {
		m.logger.Info("turn abandoned", "turn", m.turn.ID(), "state", m.turn.State().String())
	}
	if m.lease != nil {
		m.lease.Release()
		m.lease = nil
	}
	m.quitting = true
	return m, tea.Quit
}

// Turn returns the hosted turn, nil while waiting.
func (m Model) Turn() *stacker.Turn {
	return m.turn
}

// Err returns the error that ended the session early, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseWaiting:
		return m.viewWaiting()
	case phaseSummary:
		return m.viewSummary()
	}

	switch m.turn.State() {
	case stacker.StateLoading:
		return "Loading the board..."
	case stacker.StateColorSelect:
		return m.picker.View() + "\n" + m.help.View(m.picker.KeyMap())
	}

	snap := m.turn.Snapshot()
	w, h := ScreenSize(snap.Width, snap.Height)
	screen := core.NewScreen(w, h)
	DrawBoard(screen, snap, m.palette)

	var b strings.Builder
	b.WriteString(RenderScreen(screen))
	b.WriteString("\n")
	b.WriteString(m.statusLine(snap))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) statusLine(snap stacker.Snapshot) string {
	name := m.opts.Name
	if name == "" {
		name = fmt.Sprintf("player %d", snap.Account)
	}
	switch snap.State {
	case stacker.StateCountdown:
		return fmt.Sprintf("%s, get ready: %s", name, snap.BlockKind)
	case stacker.StateClearing:
		return fmt.Sprintf("%d rows cleared!", len(snap.PendingRows))
	}
	return fmt.Sprintf("%s is placing %s", name, snap.BlockKind)
}

func (m Model) viewWaiting() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("The board is busy"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s started a turn %s.\n", m.holder.Name, humanize.Time(m.holder.Since)))
	b.WriteString("You will get the board as soon as they finish.\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("q: leave"))
	return b.String()
}

func (m Model) viewSummary() string {
	var b strings.Builder
	b.WriteString(m.outcome())
	b.WriteString("\n\n")
	b.WriteString(m.summary.View())
	return b.String()
}

// outcome describes how the turn ended.
func (m Model) outcome() string {
	head := lipgloss.NewStyle().Bold(true)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color(string(core.ColorRed)))

	if m.turn == nil {
		return warn.Render("No turn was played.")
	}
	switch {
	case errors.Is(m.err, ErrLeaseLost):
		return warn.Render("Your turn timed out. Nothing was placed.")
	case errors.Is(m.err, stacker.ErrStaleTurn):
		return warn.Render("Someone else changed the board during your turn. Your piece was not saved.")
	case errors.Is(m.err, stacker.ErrBoardDimensions):
		return warn.Render("The stored board does not match this kiosk. Ask an operator to reset it.")
	case m.err != nil:
		return warn.Render("Something went wrong: " + m.err.Error())
	}

	if m.turn.State() == stacker.StateGameOver {
		return head.Render("GAME OVER") + "\nThe stack reached the top. A new game starts with the next player."
	}

	st, ok := m.turn.Settlement()
	if !ok {
		return head.Render("Turn ended")
	}
	if st.Lines == 0 {
		return head.Render("Block placed") + "\nNo lines this time."
	}

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%d %s cleared, +%s points",
		st.Lines, plural(st.Lines, "line", "lines"), humanize.Comma(int64(st.Points)))))
	ids := make([]stacker.AccountID, 0, len(st.Credits))
	for id := range st.Credits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(string(m.palette.For(id)))).Render("██")
		b.WriteString(fmt.Sprintf("\n%s +%d", swatch, st.Credits[id]))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Run starts a local Bubble Tea program hosting one turn.
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Err() != nil && !errors.Is(m.Err(), ErrLeaseLost) {
		return m.Err()
	}
	return nil
}
