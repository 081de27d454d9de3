package env

import "testing"

func TestNewGridRejectsBadDimensions(t *testing.T) {
	cases := []struct {
		name                string
		width, height, cell int
	}{
		{"zero cell", 100, 100, 0},
		{"zero width", 0, 100, 20},
		{"smaller than a cell", 10, 100, 20},
		{"off pitch", 110, 100, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewGrid(tc.width, tc.height, tc.cell); err == nil {
				t.Fatalf("expected error for %dx%d cell %d", tc.width, tc.height, tc.cell)
			}
		})
	}
}

func TestTranslateComposition(t *testing.T) {
	g := Grid{Width: 200, Height: 200, Cell: 20}
	start := Coord{X: 60, Y: 80}

	for _, a := range Actions {
		for _, b := range Actions {
			va, vb := g.Velocity(a), g.Velocity(b)
			sequential := g.Translate(g.Translate(start, va), vb)
			combined := g.Translate(start, Velocity{DX: va.DX + vb.DX, DY: va.DY + vb.DY})
			if sequential != combined {
				t.Fatalf("%s then %s: sequential %v != combined %v", a, b, sequential, combined)
			}
			swapped := g.Translate(g.Translate(start, vb), va)
			if sequential != swapped {
				t.Fatalf("%s/%s not commutative: %v vs %v", a, b, sequential, swapped)
			}
		}
	}
}

func TestWallCollision(t *testing.T) {
	g := Grid{Width: 60, Height: 40, Cell: 20}
	cases := []struct {
		c    Coord
		want bool
	}{
		{Coord{0, 0}, false},
		{Coord{40, 20}, false},
		{Coord{60, 0}, true},
		{Coord{0, 40}, true},
		{Coord{-20, 0}, true},
		{Coord{0, -20}, true},
		{Coord{10, 0}, true}, // off pitch
	}
	for _, tc := range cases {
		if got := g.IsWallCollision(tc.c); got != tc.want {
			t.Errorf("IsWallCollision(%v) = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestAvailableCellsExcludesOccupied(t *testing.T) {
	g := Grid{Width: 3, Height: 3, Cell: 1}
	occupied := map[Coord]struct{}{{1, 1}: {}, {0, 0}: {}}

	free := g.AvailableCells(occupied)
	if len(free) != 7 {
		t.Fatalf("expected 7 free cells, got %d", len(free))
	}
	for _, c := range free {
		if g.IsBodyCollision(c, occupied) {
			t.Fatalf("occupied cell %v reported as free", c)
		}
	}
	if free[0] != (Coord{1, 0}) {
		t.Fatalf("expected row-major order starting at (1,0), got %v", free[0])
	}
}

func TestActionRoundTrip(t *testing.T) {
	g := Grid{Width: 100, Height: 100, Cell: 20}
	for _, a := range Actions {
		got, ok := g.ActionOf(g.Velocity(a))
		if !ok || got != a {
			t.Fatalf("ActionOf(Velocity(%s)) = %s, %v", a, got, ok)
		}
		parsed, err := ParseAction(a.String())
		if err != nil || parsed != a {
			t.Fatalf("ParseAction(%q) = %s, %v", a.String(), parsed, err)
		}
		if a.Opposite().Opposite() != a {
			t.Fatalf("Opposite is not an involution for %s", a)
		}
	}
	if _, ok := g.ActionOf(Velocity{}); ok {
		t.Fatal("zero velocity should not map to an action")
	}
}
