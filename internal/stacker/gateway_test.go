package stacker

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#ff8800", "#ff8800", false},
		{"#FF8800", "#ff8800", false},
		{" #abc ", "#aabbcc", false},
		{"ff8800", "", true},
		{"#ff88", "", true},
		{"#gg0000", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeColor(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("NormalizeColor(%q) error = %v, expected ErrInvalidColor", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeColor(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("NormalizeColor(%q) = %q, expected %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBoardCodec(t *testing.T) {
	b := NewBoard(10, 30)
	b.Set(3, 28, Occupied(CellIHorizStart, 4))
	b.Set(4, 28, Occupied(CellZ, 0))

	rows := EncodeBoard(b)
	if rows[28][3] != (WireCell{int(CellIHorizStart), 4}) {
		t.Errorf("encoded piece cell = %v", rows[28][3])
	}
	if rows[0][0] != (WireCell{int(CellWall), NoOwner}) || rows[0][1] != (WireCell{int(CellEmpty), NoOwner}) {
		t.Errorf("wall/empty cells must carry NoOwner, got %v %v", rows[0][0], rows[0][1])
	}

	decoded, err := DecodeBoard(rows, 10, 30)
	if err != nil {
		t.Fatalf("DecodeBoard() error: %v", err)
	}
	if !boardsEqual(decoded, b) {
		t.Errorf("decoded board differs from original")
	}
}

func TestDecodeBoardRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(rows [][]WireCell) [][]WireCell
		wantErr error
	}{
		{
			name:    "too few rows",
			mutate:  func(rows [][]WireCell) [][]WireCell { return rows[1:] },
			wantErr: ErrBoardDimensions,
		},
		{
			name: "short row",
			mutate: func(rows [][]WireCell) [][]WireCell {
				rows[5] = rows[5][:9]
				return rows
			},
			wantErr: ErrBoardDimensions,
		},
		{
			name: "unknown cell type",
			mutate: func(rows [][]WireCell) [][]WireCell {
				rows[4][4] = WireCell{99, 1}
				return rows
			},
			wantErr: ErrCorruptBoard,
		},
		{
			name: "missing left wall",
			mutate: func(rows [][]WireCell) [][]WireCell {
				rows[4][0] = WireCell{int(CellEmpty), NoOwner}
				return rows
			},
			wantErr: ErrCorruptBoard,
		},
		{
			name: "wall in playfield",
			mutate: func(rows [][]WireCell) [][]WireCell {
				rows[4][4] = WireCell{int(CellWall), NoOwner}
				return rows
			},
			wantErr: ErrCorruptBoard,
		},
		{
			name: "unowned piece",
			mutate: func(rows [][]WireCell) [][]WireCell {
				rows[4][4] = WireCell{int(CellT), NoOwner}
				return rows
			},
			wantErr: ErrCorruptBoard,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows := tc.mutate(EncodeBoard(NewBoard(10, 30)))
			if _, err := DecodeBoard(rows, 10, 30); !errors.Is(err, tc.wantErr) {
				t.Errorf("DecodeBoard() error = %v, expected %v", err, tc.wantErr)
			}
		})
	}
}

func TestDecodeKinds(t *testing.T) {
	kinds, err := DecodeKinds(EncodeKinds([]Kind{KindL, KindI, KindO}))
	if err != nil || len(kinds) != 3 || kinds[0] != KindL || kinds[1] != KindI {
		t.Errorf("DecodeKinds() = %v, %v", kinds, err)
	}
	if _, err := DecodeKinds([]int{2, 7}); !errors.Is(err, ErrCorruptBoard) {
		t.Errorf("DecodeKinds() with 7 should fail, got %v", err)
	}
}

func TestMemoryGatewayTransactRollsBack(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	if _, err := gw.CreatePlayer(ctx, 1, "#112233"); err != nil {
		t.Fatalf("CreatePlayer() error: %v", err)
	}

	boom := errors.New("boom")
	err := gw.Transact(ctx, func(tx Store) error {
		p, err := tx.LoadPlayer(ctx, 1)
		if err != nil {
			return err
		}
		p.LifetimeScore = 999
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transact() error = %v, expected boom", err)
	}

	p, err := gw.LoadPlayer(ctx, 1)
	if err != nil {
		t.Fatalf("LoadPlayer() error: %v", err)
	}
	if p.LifetimeScore != 0 {
		t.Errorf("failed transaction leaked LifetimeScore = %d", p.LifetimeScore)
	}
}

func TestMemoryGatewayRevision(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	if _, err := gw.LoadGame(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadGame() on empty gateway = %v, expected ErrNotFound", err)
	}

	rec := GameRecord{Board: NewBoard(10, 30)}
	for i := 1; i <= 3; i++ {
		if err := gw.SaveGame(ctx, rec); err != nil {
			t.Fatalf("SaveGame() error: %v", err)
		}
		got, err := gw.LoadGame(ctx)
		if err != nil {
			t.Fatalf("LoadGame() error: %v", err)
		}
		if got.Revision != int64(i) {
			t.Errorf("Revision = %d, expected %d", got.Revision, i)
		}
		rec = got
	}
}

func TestCreatePlayerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	first, err := gw.CreatePlayer(ctx, 5, "#aabbcc")
	if err != nil {
		t.Fatalf("CreatePlayer() error: %v", err)
	}
	second, err := gw.CreatePlayer(ctx, 5, "#000000")
	if err != nil {
		t.Fatalf("CreatePlayer() second call error: %v", err)
	}
	if second.Color != first.Color {
		t.Errorf("second CreatePlayer() changed colour to %s", second.Color)
	}
	if err := gw.SavePlayer(ctx, PlayerStats{Account: 6}); !errors.Is(err, ErrNotFound) {
		t.Errorf("SavePlayer() for unknown account = %v, expected ErrNotFound", err)
	}
}

func TestMemoryGatewayPlayersAndSessions(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	for _, id := range []AccountID{9, 2, 5} {
		p, err := gw.CreatePlayer(ctx, id, "#445566")
		if err != nil {
			t.Fatalf("CreatePlayer(%d) error: %v", id, err)
		}
		p.SessionScore, p.LifetimeScore = 100, 300
		if err := gw.SavePlayer(ctx, p); err != nil {
			t.Fatalf("SavePlayer(%d) error: %v", id, err)
		}
	}
	if err := gw.ResetSessions(ctx); err != nil {
		t.Fatalf("ResetSessions() error: %v", err)
	}

	players, err := gw.Players(ctx)
	if err != nil {
		t.Fatalf("Players() error: %v", err)
	}
	if len(players) != 3 || players[0].Account != 2 || players[1].Account != 5 || players[2].Account != 9 {
		t.Fatalf("Players() = %+v, expected accounts 2, 5, 9", players)
	}
	for _, p := range players {
		if p.SessionScore != 0 || p.LifetimeScore != 300 {
			t.Errorf("account %d after reset: session %d lifetime %d", p.Account, p.SessionScore, p.LifetimeScore)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := gw.LoadPlayer(cancelled, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadPlayer() with cancelled context = %v", err)
	}
}
