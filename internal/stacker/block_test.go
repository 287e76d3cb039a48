package stacker

import "testing"

func TestSpawnPosition(t *testing.T) {
	tests := []struct {
		kind Kind
		x    int
	}{
		{KindI, 3},
		{KindO, 4},
		{KindT, 3},
		{KindL, 3},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			b := NewBlock(NewBoard(10, 30), tc.kind, 1)
			x, y := b.Position()
			if x != tc.x || y != 0 {
				t.Errorf("NewBlock(%s) position = (%d, %d), expected (%d, 0)", tc.kind, x, y, tc.x)
			}
		})
	}
}

func TestCollides(t *testing.T) {
	board := NewBoard(10, 30)
	board.Set(5, 10, Occupied(CellO, 2))
	b := NewBlock(board, KindO, 1)

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"free", 4, 0, false},
		{"above top is allowed", 4, -1, false},
		{"left of board", -1, 5, true},
		{"right of board", 9, 5, true},
		{"left wall", 0, 5, true},
		{"floor", 4, 28, true},
		{"below board", 4, 40, true},
		{"occupied cell", 4, 9, true},
		{"resting on floor", 4, 27, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.Collides(tc.x, tc.y); got != tc.want {
				t.Errorf("Collides(%d, %d) = %t, expected %t", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestCollidesOutOfBoundsEveryOrientation(t *testing.T) {
	board := NewBoard(10, 30)
	w, h := board.Width(), board.Height()

	orientations := []struct {
		name  string
		shape func(Kind) Shape
	}{
		{"spawn", NewShape},
		{"cw", func(k Kind) Shape { return NewShape(k).Rotated(true) }},
		{"ccw", func(k Kind) Shape { return NewShape(k).Rotated(false) }},
	}
	for _, k := range AllKinds {
		for _, o := range orientations {
			t.Run(k.String()+"/"+o.name, func(t *testing.T) {
				b := NewBlock(board, k, 1)
				s := o.shape(k)

				minDX, maxDX, maxDY := w, -1, -1
				for _, c := range s.Filled() {
					minDX = min(minDX, c.DX)
					maxDX = max(maxDX, c.DX)
					maxDY = max(maxDY, c.DY)
				}

				tests := []struct {
					name string
					x, y int
					want bool
				}{
					{"leftmost cell at -1", -minDX - 1, 5, true},
					{"rightmost cell at width", w - maxDX, 5, true},
					{"lowest cell at height", 3, h - maxDY, true},
					{"lowest cell far below", 3, h + 5, true},
					{"against left wall", 1 - minDX, 5, false},
					{"against right wall", w - 2 - maxDX, 5, false},
					{"on the floor", 3, h - 2 - maxDY, false},
					{"entirely above top", 3, -maxDY - 1, false},
				}
				for _, tc := range tests {
					if got := b.shapeCollides(s, tc.x, tc.y); got != tc.want {
						t.Errorf("%s: shapeCollides(%d, %d) = %t, expected %t", tc.name, tc.x, tc.y, got, tc.want)
					}
				}
			})
		}
	}
}

func TestMoveStopsAtWalls(t *testing.T) {
	b := NewBlock(NewBoard(10, 30), KindT, 1)

	moved := 0
	for b.Move(DirLeft, 1) {
		moved++
	}
	if moved != 2 {
		t.Errorf("T moved left %d times, expected 2", moved)
	}
	if x, _ := b.Position(); x != 1 {
		t.Errorf("T stopped at x = %d, expected 1", x)
	}

	moved = 0
	for b.Move(DirRight, 1) {
		moved++
	}
	if x, _ := b.Position(); x != 6 {
		t.Errorf("T stopped at x = %d, expected 6", x)
	}
}

func TestRotateKicksOffWall(t *testing.T) {
	b := NewBlock(NewBoard(10, 30), KindI, 1)
	if !b.Rotate(true) {
		t.Fatalf("I should rotate to vertical at spawn")
	}
	if !b.Move(DirLeft, 4) {
		t.Fatalf("vertical I should slide against the left wall")
	}

	if !b.Rotate(true) {
		t.Fatalf("rotation next to the wall should kick")
	}
	if x, _ := b.Position(); x != 1 {
		t.Errorf("kicked I at x = %d, expected 1", x)
	}
	for _, p := range b.Cells() {
		if p.X < 1 || p.X > 8 {
			t.Errorf("kicked cell %+v outside playable columns", p)
		}
	}
}

func TestRotateAbandonedWhenNothingFits(t *testing.T) {
	b := NewBlock(NewBoard(5, 10), KindI, 1)
	if !b.Rotate(true) {
		t.Fatalf("vertical I fits a three-column well")
	}
	before := b.Shape()

	if b.Rotate(true) {
		t.Fatalf("horizontal I cannot fit three columns")
	}
	if !shapesEqual(b.Shape(), before) {
		t.Errorf("failed rotation changed the shape")
	}
	if x, _ := b.Position(); x != 0 {
		t.Errorf("failed rotation moved the block to x = %d", x)
	}
}

func TestHardDropAndLock(t *testing.T) {
	board := NewBoard(10, 30)
	b := NewBlock(board, KindT, 7)

	if got := b.ShadowY(); got != 27 {
		t.Errorf("ShadowY() = %d, expected 27", got)
	}
	if got := b.HardDrop(); got != 27 {
		t.Errorf("HardDrop() = %d, expected 27", got)
	}
	if b.Fall() {
		t.Errorf("block should rest on the floor after hard drop")
	}

	b.Lock()
	if !b.Locked() || b.Overlap() {
		t.Errorf("Lock() locked=%t overlap=%t", b.Locked(), b.Overlap())
	}
	if board.FilledCount() != 4 {
		t.Errorf("FilledCount() = %d, expected 4", board.FilledCount())
	}
	for _, p := range b.Cells() {
		owner, ok := board.At(p.X, p.Y).Owner()
		if !ok || owner != 7 {
			t.Errorf("cell (%d, %d) owner = %d, expected 7", p.X, p.Y, owner)
		}
	}
	if b.Move(DirLeft, 1) || b.Rotate(true) {
		t.Errorf("locked block must not move")
	}
}

func TestLockOverlap(t *testing.T) {
	t.Run("occupied target", func(t *testing.T) {
		board := NewBoard(10, 30)
		board.Set(4, 1, Occupied(CellJ, 2))
		b := NewBlock(board, KindO, 1)

		b.Lock()
		if !b.Overlap() {
			t.Fatalf("Lock() onto an occupied cell should set overlap")
		}
		if board.FilledCount() != 4 {
			t.Errorf("all cells should still be written, got %d", board.FilledCount())
		}
	})

	t.Run("above the board", func(t *testing.T) {
		board := NewBoard(10, 30)
		b := NewBlock(board, KindO, 1)
		if !b.Move(DirDown, -1) {
			t.Fatalf("block should be allowed above the top edge")
		}

		b.Lock()
		if !b.Overlap() {
			t.Errorf("Lock() above the board should set overlap")
		}
		if board.FilledCount() != 2 {
			t.Errorf("FilledCount() = %d, expected 2", board.FilledCount())
		}
	})
}

func TestSwapKeepsAnchor(t *testing.T) {
	b := NewBlock(NewBoard(10, 30), KindT, 1)
	if !b.Swap(KindI) {
		t.Fatalf("Swap(I) should fit at spawn")
	}
	if b.Kind() != KindI {
		t.Errorf("Kind() = %s, expected I", b.Kind())
	}
	if x, y := b.Position(); x != 3 || y != 0 {
		t.Errorf("Swap moved the anchor to (%d, %d)", x, y)
	}
}
