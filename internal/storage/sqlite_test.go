package storage

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	// Reopening runs migrations again without error
	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	store.Close()
}

func TestStoreGameRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.LoadGame(ctx); !errors.Is(err, stacker.ErrNotFound) {
		t.Fatalf("LoadGame() on empty db = %v, expected ErrNotFound", err)
	}

	rec := stacker.NewGameRecord(10, 30, rand.New(rand.NewSource(1)))
	rec.Score, rec.Highscore, rec.Level, rec.Lines = 140, 900, 1, 12
	rec.Reserve = stacker.KindJ
	rec.Board.Set(4, 28, stacker.Occupied(stacker.CellIVertEnd, 3))

	if err := store.SaveGame(ctx, rec); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	got, err := store.LoadGame(ctx)
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if got.Score != 140 || got.Highscore != 900 || got.Level != 1 || got.Lines != 12 {
		t.Errorf("LoadGame() counters = %+v", got)
	}
	if got.Reserve != stacker.KindJ {
		t.Errorf("Reserve = %s, expected J", got.Reserve)
	}
	if len(got.Next) != len(rec.Next) || got.Next[0] != rec.Next[0] {
		t.Errorf("Next = %v, expected %v", got.Next, rec.Next)
	}
	if !reflect.DeepEqual(got.Board.Rows(), rec.Board.Rows()) {
		t.Errorf("board did not survive a round trip")
	}
	if got.Revision != 1 {
		t.Errorf("Revision = %d, expected 1", got.Revision)
	}

	if err := store.SaveGame(ctx, got); err != nil {
		t.Fatalf("SaveGame() update failed: %v", err)
	}
	got, _ = store.LoadGame(ctx)
	if got.Revision != 2 {
		t.Errorf("Revision after update = %d, expected 2", got.Revision)
	}
}

func TestStoreRejectsDamagedBoard(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	rec := stacker.NewGameRecord(10, 30, rand.New(rand.NewSource(1)))
	rec.Score, rec.Highscore = 700, 400
	if err := store.SaveGame(ctx, rec); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	if _, err := store.db.Exec("UPDATE game SET board = '[[[1,-1],[0,-1]]]'"); err != nil {
		t.Fatalf("corrupting board failed: %v", err)
	}
	if _, err := store.LoadGame(ctx); !errors.Is(err, stacker.ErrBoardDimensions) {
		t.Fatalf("LoadGame() = %v, expected ErrBoardDimensions", err)
	}

	if _, err := store.db.Exec("UPDATE game SET board = 'not json'"); err != nil {
		t.Fatalf("corrupting board failed: %v", err)
	}
	if _, err := store.LoadGame(ctx); !errors.Is(err, stacker.ErrCorruptBoard) {
		t.Fatalf("LoadGame() = %v, expected ErrCorruptBoard", err)
	}

	if err := store.ResetGame(ctx, 10, 30, rand.New(rand.NewSource(2))); err != nil {
		t.Fatalf("ResetGame() failed: %v", err)
	}
	got, err := store.LoadGame(ctx)
	if err != nil {
		t.Fatalf("LoadGame() after reset failed: %v", err)
	}
	if got.Score != 0 || got.Highscore != 700 {
		t.Errorf("after reset score=%d highscore=%d, expected 0 and 700", got.Score, got.Highscore)
	}
	if got.Board.FilledCount() != 0 {
		t.Errorf("reset board not empty")
	}
	if got.Revision != 2 {
		t.Errorf("Revision after reset = %d, expected 2", got.Revision)
	}
}

func TestStorePlayers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.LoadPlayer(ctx, 1); !errors.Is(err, stacker.ErrNotFound) {
		t.Fatalf("LoadPlayer() = %v, expected ErrNotFound", err)
	}
	if _, err := store.CreatePlayer(ctx, 1, "blue"); !errors.Is(err, stacker.ErrInvalidColor) {
		t.Errorf("CreatePlayer() with bad colour = %v, expected ErrInvalidColor", err)
	}

	p, err := store.CreatePlayer(ctx, 1, "#FFAA00")
	if err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}
	if p.Color != "#ffaa00" {
		t.Errorf("Color = %q, expected #ffaa00", p.Color)
	}

	p.SessionScore, p.LifetimeScore, p.LifetimePoints = 40, 400, 12
	if err := store.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer() failed: %v", err)
	}

	again, err := store.CreatePlayer(ctx, 1, "#000000")
	if err != nil {
		t.Fatalf("CreatePlayer() second call failed: %v", err)
	}
	if again != p {
		t.Errorf("CreatePlayer() on existing row = %+v, expected %+v", again, p)
	}

	if err := store.SavePlayer(ctx, stacker.PlayerStats{Account: 99}); !errors.Is(err, stacker.ErrNotFound) {
		t.Errorf("SavePlayer() unknown account = %v, expected ErrNotFound", err)
	}

	if _, err := store.CreatePlayer(ctx, 2, "#123456"); err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}
	if err := store.ResetSessions(ctx); err != nil {
		t.Fatalf("ResetSessions() failed: %v", err)
	}

	players, err := store.Players(ctx)
	if err != nil {
		t.Fatalf("Players() failed: %v", err)
	}
	if len(players) != 2 || players[0].Account != 1 || players[1].Account != 2 {
		t.Fatalf("Players() = %+v", players)
	}
	if players[0].SessionScore != 0 || players[0].LifetimeScore != 400 {
		t.Errorf("ResetSessions() left %+v", players[0])
	}
}

func TestStoreTransactRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.CreatePlayer(ctx, 1, "#101010"); err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}

	boom := errors.New("boom")
	err := store.Transact(ctx, func(tx stacker.Store) error {
		p, err := tx.LoadPlayer(ctx, 1)
		if err != nil {
			return err
		}
		p.LifetimeBlocks = 50
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact() = %v, expected boom", err)
	}

	p, err := store.LoadPlayer(ctx, 1)
	if err != nil {
		t.Fatalf("LoadPlayer() failed: %v", err)
	}
	if p.LifetimeBlocks != 0 {
		t.Errorf("rolled back write is visible: LifetimeBlocks = %d", p.LifetimeBlocks)
	}
}

func TestStoreAccounts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	alice, err := store.ResolveAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("ResolveAccount() failed: %v", err)
	}
	bob, err := store.ResolveAccount(ctx, "bob")
	if err != nil {
		t.Fatalf("ResolveAccount() failed: %v", err)
	}
	if alice == bob {
		t.Errorf("distinct names share id %d", alice)
	}

	again, err := store.ResolveAccount(ctx, " alice ")
	if err != nil {
		t.Fatalf("ResolveAccount() failed: %v", err)
	}
	if again != alice {
		t.Errorf("ResolveAccount(alice) = %d, expected %d", again, alice)
	}

	name, err := store.AccountName(ctx, bob)
	if err != nil || name != "bob" {
		t.Errorf("AccountName(%d) = %q, %v", bob, name, err)
	}
	if _, err := store.AccountName(ctx, 404); !errors.Is(err, stacker.ErrNotFound) {
		t.Errorf("AccountName(404) = %v, expected ErrNotFound", err)
	}
	if _, err := store.ResolveAccount(ctx, "  "); !errors.Is(err, ErrEmptyAccountName) {
		t.Errorf("ResolveAccount(blank) = %v, expected ErrEmptyAccountName", err)
	}
}

func TestStoreTopPlayers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	scores := []struct {
		name     string
		session  int
		lifetime int
	}{
		{"ann", 100, 100},
		{"ben", 300, 350},
		{"cat", 200, 900},
	}
	for _, s := range scores {
		id, err := store.ResolveAccount(ctx, s.name)
		if err != nil {
			t.Fatalf("ResolveAccount() failed: %v", err)
		}
		p, err := store.CreatePlayer(ctx, id, "#222222")
		if err != nil {
			t.Fatalf("CreatePlayer() failed: %v", err)
		}
		p.SessionScore, p.LifetimeScore = s.session, s.lifetime
		if err := store.SavePlayer(ctx, p); err != nil {
			t.Fatalf("SavePlayer() failed: %v", err)
		}
	}

	top, err := store.TopPlayers(ctx, 2, false)
	if err != nil {
		t.Fatalf("TopPlayers() failed: %v", err)
	}
	if len(top) != 2 || top[0].Name != "ben" || top[1].Name != "cat" {
		t.Errorf("session leaderboard = %+v", top)
	}

	top, err = store.TopPlayers(ctx, 10, true)
	if err != nil {
		t.Fatalf("TopPlayers() failed: %v", err)
	}
	if len(top) != 3 || top[0].Name != "cat" || top[0].Score != 900 {
		t.Errorf("lifetime leaderboard = %+v", top)
	}
}

func TestStorePlaysTurn(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	owner, err := store.ResolveAccount(ctx, "owner")
	if err != nil {
		t.Fatalf("ResolveAccount() failed: %v", err)
	}
	actor, err := store.ResolveAccount(ctx, "actor")
	if err != nil {
		t.Fatalf("ResolveAccount() failed: %v", err)
	}
	for _, id := range []stacker.AccountID{owner, actor} {
		if _, err := store.CreatePlayer(ctx, id, "#445566"); err != nil {
			t.Fatalf("CreatePlayer() failed: %v", err)
		}
	}

	rec := stacker.NewGameRecord(10, 30, rand.New(rand.NewSource(1)))
	rec.Next = []stacker.Kind{stacker.KindO}
	for x := 1; x <= 6; x++ {
		rec.Board.Set(x, 28, stacker.Occupied(stacker.CellZ, owner))
	}
	if err := store.SaveGame(ctx, rec); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	turn := stacker.NewTurn(store, actor,
		stacker.WithRand(rand.New(rand.NewSource(5))),
		stacker.WithTiming(stacker.Timing{}),
	)
	if err := turn.Begin(ctx); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		turn.Do(stacker.CmdMoveRight)
	}
	turn.Do(stacker.CmdHardDrop)
	if err := turn.Tick(ctx, 0); err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
	if turn.State() != stacker.StateSettled {
		t.Fatalf("State() = %s, expected settled", turn.State())
	}

	o, _ := store.LoadPlayer(ctx, owner)
	a, _ := store.LoadPlayer(ctx, actor)
	if o.SessionPoints != 6 {
		t.Errorf("owner SessionPoints = %d, expected 6", o.SessionPoints)
	}
	if a.SessionPoints != 2 || a.SessionScore != 40 || a.SessionLines != 1 {
		t.Errorf("actor stats = %+v", a)
	}

	history, err := store.RecentTurns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentTurns() failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("RecentTurns() returned %d rows, expected 1", len(history))
	}
	h := history[0]
	if h.TurnID != turn.ID() || h.AccountName != "actor" || h.Lines != 1 || h.Points != 40 || h.GameOver {
		t.Errorf("history row = %+v", h)
	}
}

func TestStoreWaitsForOtherProcess(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "shared.db")

	serving, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer serving.Close()
	admin, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer admin.Close()

	rng := rand.New(rand.NewSource(1))
	if err := serving.SaveGame(ctx, stacker.NewGameRecord(10, 20, rng)); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	locked := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- serving.Transact(ctx, func(tx stacker.Store) error {
			rec, err := tx.LoadGame(ctx)
			if err != nil {
				return err
			}
			rec.Score = 50
			if err := tx.SaveGame(ctx, rec); err != nil {
				return err
			}
			close(locked)
			time.Sleep(200 * time.Millisecond)
			return nil
		})
	}()

	<-locked
	if err := admin.ResetGame(ctx, 10, 20, rng); err != nil {
		t.Fatalf("ResetGame() during another transaction failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("held Transact() failed: %v", err)
	}

	got, err := admin.LoadGame(ctx)
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if got.Score != 0 || got.Highscore != 50 {
		t.Errorf("after reset score = %d highscore = %d, expected 0 and 50", got.Score, got.Highscore)
	}
}
