package stacker

import "testing"

func TestRotationRoundTrip(t *testing.T) {
	for _, k := range AllKinds {
		t.Run(k.String(), func(t *testing.T) {
			s := NewShape(k)

			if got := s.Rotated(true).Rotated(false); !shapesEqual(got, s) {
				t.Errorf("cw then ccw changed %s: %v", k, got.cells)
			}
			if got := s.Rotated(false).Rotated(true); !shapesEqual(got, s) {
				t.Errorf("ccw then cw changed %s: %v", k, got.cells)
			}

			full := s
			for i := 0; i < 4; i++ {
				full = full.Rotated(true)
			}
			if !shapesEqual(full, s) {
				t.Errorf("four clockwise turns changed %s", k)
			}
		})
	}
}

func TestRotateT(t *testing.T) {
	got := NewShape(KindT).Rotated(true).cells
	want := [][]CellType{
		{e, CellT, e},
		{e, CellT, CellT},
		{e, CellT, e},
	}
	if !matrixEqual(got, want) {
		t.Errorf("T rotated clockwise = %v, expected %v", got, want)
	}

	got = NewShape(KindT).Rotated(false).cells
	want = [][]CellType{
		{e, CellT, e},
		{CellT, CellT, e},
		{e, CellT, e},
	}
	if !matrixEqual(got, want) {
		t.Errorf("T rotated counter-clockwise = %v, expected %v", got, want)
	}
}

func TestRotateIToggles(t *testing.T) {
	h := NewShape(KindI)
	v := h.Rotated(true)

	if !matrixEqual(v.cells, iVertical) {
		t.Fatalf("I rotated once = %v, expected vertical", v.cells)
	}
	if !shapesEqual(v, h.Rotated(false)) {
		t.Errorf("I rotation should not depend on direction")
	}
	if !shapesEqual(v.Rotated(true), h) {
		t.Errorf("I rotated twice should be horizontal again")
	}

	segments := map[CellType]int{}
	for _, o := range v.Filled() {
		segments[o.Type]++
	}
	if segments[CellIVertStart] != 1 || segments[CellIVertMid] != 2 || segments[CellIVertEnd] != 1 {
		t.Errorf("vertical I segments = %v", segments)
	}
}

func TestRotateOIsFixed(t *testing.T) {
	o := NewShape(KindO)
	if !shapesEqual(o.Rotated(true), o) || !shapesEqual(o.Rotated(false), o) {
		t.Errorf("O must not change under rotation")
	}
}

func TestEveryKindHasFourCells(t *testing.T) {
	for _, k := range AllKinds {
		if n := len(NewShape(k).Filled()); n != 4 {
			t.Errorf("%s has %d cells, expected 4", k, n)
		}
		for _, o := range NewShape(k).Filled() {
			kind, ok := o.Type.Kind()
			if !ok || kind != k {
				t.Errorf("%s cell type %v maps to kind %v", k, o.Type, kind)
			}
		}
	}
}

func shapesEqual(a, b Shape) bool {
	return a.kind == b.kind && matrixEqual(a.cells, b.cells)
}
