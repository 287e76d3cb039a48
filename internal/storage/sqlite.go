// Package storage provides SQLite-based persistence for the shared game,
// player statistics, account names and turn history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

// txTimeout bounds every write transaction. Turns only hold a
// transaction around a settle, never across player input.
const txTimeout = 5 * time.Second

// dsnOptions make every transaction take the write lock when it begins and
// wait for another process (kiosk serve against kiosk reset) instead of
// failing with SQLITE_BUSY.
const dsnOptions = "?_pragma=busy_timeout(5000)&_txlock=immediate"

// ErrEmptyAccountName is returned when resolving a blank account name.
var ErrEmptyAccountName = errors.New("storage: account name is empty")

// Store manages the SQLite database connection.
// It implements stacker.Gateway.
type Store struct {
	db *sql.DB
	conn
}

// TurnEntry is one row of turn history.
type TurnEntry struct {
	ID          int64
	TurnID      string
	Account     stacker.AccountID
	AccountName string
	Kind        stacker.Kind
	Lines       int
	Points      int
	GameOver    bool
	CreatedAt   time.Time
}

// LeaderboardEntry is one account's standing.
type LeaderboardEntry struct {
	Account stacker.AccountID
	Name    string
	Color   string
	Score   int
	Lines   int
	Blocks  int
	Points  int
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps concurrent
	// sessions from failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db, conn: conn{q: db}}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS game (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			score INTEGER NOT NULL DEFAULT 0,
			highscore INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 0,
			lines INTEGER NOT NULL DEFAULT 0,
			next_pieces TEXT NOT NULL,
			reserve INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			board TEXT NOT NULL,
			revision INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS players (
			account_id INTEGER PRIMARY KEY,
			color TEXT NOT NULL,
			session_score INTEGER NOT NULL DEFAULT 0,
			session_blocks INTEGER NOT NULL DEFAULT 0,
			session_lines INTEGER NOT NULL DEFAULT 0,
			session_points INTEGER NOT NULL DEFAULT 0,
			lifetime_score INTEGER NOT NULL DEFAULT 0,
			lifetime_blocks INTEGER NOT NULL DEFAULT 0,
			lifetime_lines INTEGER NOT NULL DEFAULT 0,
			lifetime_points INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			turn_id TEXT NOT NULL,
			account_id INTEGER NOT NULL,
			kind INTEGER NOT NULL,
			lines INTEGER NOT NULL DEFAULT 0,
			points INTEGER NOT NULL DEFAULT 0,
			game_over INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_turns_account ON turns(account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Transact runs fn inside a single SQL transaction. fn's writes are
// committed only if it returns nil.
func (s *Store) Transact(ctx context.Context, fn func(tx stacker.Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	if err := fn(conn{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit transaction: %w", err)
	}
	return nil
}

// ResolveAccount returns the id for name, registering it on first use.
func (s *Store) ResolveAccount(ctx context.Context, name string) (stacker.AccountID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyAccountName
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (name) VALUES (?) ON CONFLICT(name) DO NOTHING",
		name,
	); err != nil {
		return 0, fmt.Errorf("storage: cannot register account: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE name = ?", name,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: cannot resolve account: %w", err)
	}
	return stacker.AccountID(id), nil
}

// AccountName returns the registered name for id.
func (s *Store) AccountName(ctx context.Context, id stacker.AccountID) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM accounts WHERE id = ?", int64(id)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", stacker.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: cannot query account: %w", err)
	}
	return name, nil
}

// RecentTurns returns the latest turns, newest first.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]TurnEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.turn_id, t.account_id, COALESCE(a.name, ''), t.kind,
		        t.lines, t.points, t.game_over, t.created_at
		 FROM turns t
		 LEFT JOIN accounts a ON a.id = t.account_id
		 ORDER BY t.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query turns: %w", err)
	}
	defer rows.Close()

	var entries []TurnEntry
	for rows.Next() {
		var e TurnEntry
		var account int64
		var kind int
		var createdAt any
		if err := rows.Scan(&e.ID, &e.TurnID, &account, &e.AccountName, &kind,
			&e.Lines, &e.Points, &e.GameOver, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Account = stacker.AccountID(account)
		e.Kind = stacker.Kind(kind)
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// TopPlayers returns the best accounts by session score, or by lifetime
// score when lifetime is set.
func (s *Store) TopPlayers(ctx context.Context, limit int, lifetime bool) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	prefix := "session"
	if lifetime {
		prefix = "lifetime"
	}
	query := fmt.Sprintf(
		`SELECT p.account_id, COALESCE(a.name, ''), p.color,
		        p.%[1]s_score, p.%[1]s_lines, p.%[1]s_blocks, p.%[1]s_points
		 FROM players p
		 LEFT JOIN accounts a ON a.id = p.account_id
		 ORDER BY p.%[1]s_score DESC, p.%[1]s_points DESC, p.account_id ASC
		 LIMIT ?`, prefix)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var account int64
		if err := rows.Scan(&account, &e.Name, &e.Color, &e.Score, &e.Lines, &e.Blocks, &e.Points); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Account = stacker.AccountID(account)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// ResetGame replaces the shared game with a fresh width x height board and
// zeroes every session. The stored board is never decoded, so this also
// recovers a record that no longer loads.
func (s *Store) ResetGame(ctx context.Context, width, height int, rng *rand.Rand) error {
	return s.Transact(ctx, func(tx stacker.Store) error {
		c := tx.(conn)

		var highscore, score int
		var revision int64
		err := c.q.QueryRowContext(ctx,
			"SELECT highscore, score, revision FROM game WHERE id = 1",
		).Scan(&highscore, &score, &revision)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("storage: cannot query game: %w", err)
		}

		rec := stacker.NewGameRecord(width, height, rng)
		rec.Highscore = max(highscore, score)
		rec.Revision = revision
		if err := c.SaveGame(ctx, rec); err != nil {
			return err
		}
		return c.ResetSessions(ctx)
	})
}

// querier is the subset of *sql.DB and *sql.Tx used by conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements stacker.Store against either the database or an open
// transaction.
type conn struct {
	q querier
}

// LoadGame reads and decodes the shared game row.
func (c conn) LoadGame(ctx context.Context) (stacker.GameRecord, error) {
	var rec stacker.GameRecord
	var nextJSON, boardJSON string
	var reserve, width, height int

	err := c.q.QueryRowContext(ctx,
		`SELECT score, highscore, level, lines, next_pieces, reserve,
		        width, height, board, revision
		 FROM game WHERE id = 1`,
	).Scan(&rec.Score, &rec.Highscore, &rec.Level, &rec.Lines, &nextJSON, &reserve,
		&width, &height, &boardJSON, &rec.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return stacker.GameRecord{}, stacker.ErrNotFound
	}
	if err != nil {
		return stacker.GameRecord{}, fmt.Errorf("storage: cannot query game: %w", err)
	}

	var next []int
	if err := json.Unmarshal([]byte(nextJSON), &next); err != nil {
		return stacker.GameRecord{}, fmt.Errorf("storage: %w: next pieces: %v", stacker.ErrCorruptBoard, err)
	}
	if rec.Next, err = stacker.DecodeKinds(next); err != nil {
		return stacker.GameRecord{}, fmt.Errorf("storage: cannot decode next pieces: %w", err)
	}
	if rec.Reserve, err = stacker.DecodeKind(reserve); err != nil {
		return stacker.GameRecord{}, fmt.Errorf("storage: cannot decode reserve: %w", err)
	}

	var cells [][]stacker.WireCell
	if err := json.Unmarshal([]byte(boardJSON), &cells); err != nil {
		return stacker.GameRecord{}, fmt.Errorf("storage: %w: board: %v", stacker.ErrCorruptBoard, err)
	}
	if rec.Board, err = stacker.DecodeBoard(cells, width, height); err != nil {
		return stacker.GameRecord{}, fmt.Errorf("storage: cannot decode board: %w", err)
	}

	return rec, nil
}

// SaveGame writes rec and advances the stored revision to rec.Revision+1.
func (c conn) SaveGame(ctx context.Context, rec stacker.GameRecord) error {
	if rec.Board == nil {
		return fmt.Errorf("storage: cannot save game without a board")
	}
	next, err := json.Marshal(stacker.EncodeKinds(rec.Next))
	if err != nil {
		return fmt.Errorf("storage: cannot encode next pieces: %w", err)
	}
	board, err := json.Marshal(stacker.EncodeBoard(rec.Board))
	if err != nil {
		return fmt.Errorf("storage: cannot encode board: %w", err)
	}

	_, err = c.q.ExecContext(ctx,
		`INSERT INTO game
		 (id, score, highscore, level, lines, next_pieces, reserve, width, height, board, revision, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   score = excluded.score,
		   highscore = excluded.highscore,
		   level = excluded.level,
		   lines = excluded.lines,
		   next_pieces = excluded.next_pieces,
		   reserve = excluded.reserve,
		   width = excluded.width,
		   height = excluded.height,
		   board = excluded.board,
		   revision = excluded.revision,
		   updated_at = excluded.updated_at`,
		rec.Score, rec.Highscore, rec.Level, rec.Lines, string(next), int(rec.Reserve),
		rec.Board.Width(), rec.Board.Height(), string(board), rec.Revision+1,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game: %w", err)
	}
	return nil
}

const playerColumns = `account_id, color,
	session_score, session_blocks, session_lines, session_points,
	lifetime_score, lifetime_blocks, lifetime_lines, lifetime_points`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (stacker.PlayerStats, error) {
	var p stacker.PlayerStats
	var account int64
	err := row.Scan(&account, &p.Color,
		&p.SessionScore, &p.SessionBlocks, &p.SessionLines, &p.SessionPoints,
		&p.LifetimeScore, &p.LifetimeBlocks, &p.LifetimeLines, &p.LifetimePoints)
	p.Account = stacker.AccountID(account)
	return p, err
}

// LoadPlayer reads one account's statistics.
func (c conn) LoadPlayer(ctx context.Context, id stacker.AccountID) (stacker.PlayerStats, error) {
	p, err := scanPlayer(c.q.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE account_id = ?", int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return stacker.PlayerStats{}, stacker.ErrNotFound
	}
	if err != nil {
		return stacker.PlayerStats{}, fmt.Errorf("storage: cannot query player: %w", err)
	}
	return p, nil
}

// SavePlayer overwrites an existing statistics row.
func (c conn) SavePlayer(ctx context.Context, p stacker.PlayerStats) error {
	res, err := c.q.ExecContext(ctx,
		`UPDATE players SET color = ?,
		   session_score = ?, session_blocks = ?, session_lines = ?, session_points = ?,
		   lifetime_score = ?, lifetime_blocks = ?, lifetime_lines = ?, lifetime_points = ?
		 WHERE account_id = ?`,
		p.Color,
		p.SessionScore, p.SessionBlocks, p.SessionLines, p.SessionPoints,
		p.LifetimeScore, p.LifetimeBlocks, p.LifetimeLines, p.LifetimePoints,
		int64(p.Account),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot get affected rows: %w", err)
	}
	if n == 0 {
		return stacker.ErrNotFound
	}
	return nil
}

// CreatePlayer registers id with color. An existing row is returned as is.
func (c conn) CreatePlayer(ctx context.Context, id stacker.AccountID, color string) (stacker.PlayerStats, error) {
	if p, err := c.LoadPlayer(ctx, id); err == nil {
		return p, nil
	} else if !errors.Is(err, stacker.ErrNotFound) {
		return stacker.PlayerStats{}, err
	}

	color, err := stacker.NormalizeColor(color)
	if err != nil {
		return stacker.PlayerStats{}, err
	}
	if _, err := c.q.ExecContext(ctx,
		"INSERT INTO players (account_id, color) VALUES (?, ?) ON CONFLICT(account_id) DO NOTHING",
		int64(id), color,
	); err != nil {
		return stacker.PlayerStats{}, fmt.Errorf("storage: cannot create player: %w", err)
	}
	return c.LoadPlayer(ctx, id)
}

// Players returns every statistics row ordered by account id.
func (c conn) Players(ctx context.Context) ([]stacker.PlayerStats, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY account_id")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query players: %w", err)
	}
	defer rows.Close()

	var players []stacker.PlayerStats
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return players, nil
}

// ResetSessions zeroes the session counters of every account.
func (c conn) ResetSessions(ctx context.Context) error {
	_, err := c.q.ExecContext(ctx,
		`UPDATE players SET session_score = 0, session_blocks = 0,
		   session_lines = 0, session_points = 0`)
	if err != nil {
		return fmt.Errorf("storage: cannot reset sessions: %w", err)
	}
	return nil
}

// RecordTurn appends one history row.
func (c conn) RecordTurn(ctx context.Context, out stacker.TurnOutcome) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO turns (turn_id, account_id, kind, lines, points, game_over)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		out.TurnID, int64(out.Account), int(out.Kind), out.Lines, out.Points, out.GameOver,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot record turn: %w", err)
	}
	return nil
}

// parseTimestamp handles both time.Time and string DATETIME values.
func parseTimestamp(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

var (
	_ stacker.Gateway         = (*Store)(nil)
	_ stacker.HistoryRecorder = conn{}
)
