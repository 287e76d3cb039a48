package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vovakirdan/tui-kiosk/internal/storage"
)

// Scoreboard layout constants
const (
	maxLeaders   = 50 // max rows to load
	loadTimeout  = 3 * time.Second
	tableMargins = 8 // rows kept for title, help and borders
)

// Leaderboard is the read side the scoreboard needs. *storage.Store
// satisfies it.
type Leaderboard interface {
	TopPlayers(ctx context.Context, limit int, lifetime bool) ([]storage.LeaderboardEntry, error)
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Toggle, k.Quit}}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab", "left", "right"),
			key.WithHelp("tab", "session/lifetime"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "enter", "ctrl+c"),
			key.WithHelp("q", "done"),
		),
	}
}

// ScoreboardModel shows the per-account leaderboard, for the current game
// session or for all time.
type ScoreboardModel struct {
	source   Leaderboard
	lifetime bool
	entries  []storage.LeaderboardEntry
	loadErr  error
	table    table.Model
	help     help.Model
	keys     ScoreboardKeyMap
	width    int
	height   int
	done     bool
}

// NewScoreboardModel creates a scoreboard and loads its first page.
func NewScoreboardModel(source Leaderboard, width, height int, lifetime bool) ScoreboardModel {
	h := help.New()
	h.ShowAll = false

	m := ScoreboardModel{
		source:   source,
		lifetime: lifetime,
		keys:     DefaultScoreboardKeyMap(),
		help:     h,
		width:    width,
		height:   height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

// createTable creates a new table with appropriate columns.
func (m *ScoreboardModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Player", Width: 16},
		{Title: "Score", Width: 9},
		{Title: "Lines", Width: 6},
		{Title: "Blocks", Width: 7},
		{Title: "Points", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-tableMargins, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load fetches rows for the current mode.
func (m *ScoreboardModel) load() {
	m.entries, m.loadErr = nil, nil
	if m.source != nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		m.entries, m.loadErr = m.source.TopPlayers(ctx, maxLeaders, m.lifetime)
	}
	m.table.SetRows(LeaderboardRows(m.entries))
	m.table.GotoTop()
}

// LeaderboardRows formats entries for a table, ranked in order.
func LeaderboardRows(entries []storage.LeaderboardEntry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			e.Name,
			humanize.Comma(int64(e.Score)),
			humanize.Comma(int64(e.Lines)),
			humanize.Comma(int64(e.Blocks)),
			humanize.Comma(int64(e.Points)),
		}
	}
	return rows
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Toggle):
			m.lifetime = !m.lifetime
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.table.SetRows(LeaderboardRows(m.entries))
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.done {
		return ""
	}
	return m.Body() + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.help.View(m.keys))
}

// Body renders the title and table without the help bar.
func (m ScoreboardModel) Body() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	title := "LEADERBOARD - this game"
	if m.lifetime {
		title = "LEADERBOARD - all time"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))
	b.WriteString("\n")
	return b.String()
}

// renderTableContent renders the table or empty message.
func (m ScoreboardModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(1, 4)
	if m.loadErr != nil {
		return emptyStyle.Render("Leaderboard unavailable: " + m.loadErr.Error())
	}
	if len(m.entries) == 0 {
		return emptyStyle.Render("Nobody has placed a block yet.")
	}
	return m.table.View()
}

// RunScoreboard shows the leaderboard until the user leaves.
func RunScoreboard(source Leaderboard, lifetime bool) error {
	p := tea.NewProgram(
		NewScoreboardModel(source, 80, 24, lifetime),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
