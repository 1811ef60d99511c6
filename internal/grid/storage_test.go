package grid

import (
	"errors"
	"testing"

	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
)

var syms = []lattice.Symmetry{lattice.Hyperoctahedral, lattice.Reflective}

// key gives every canonical coordinate a distinct value.
func key(c []int) int64 {
	var k int64
	for _, v := range c {
		k = k*100 + int64(v) + 1
	}
	return k
}

func TestOffsetsAreDense(t *testing.T) {
	for _, sym := range syms {
		for dim := 1; dim <= 4; dim++ {
			side := 5
			s := New[int64](numeric.Checked{}, sym, dim, side, 0)
			seen := make(map[[2]int]bool)
			cur := lattice.NewCursor(sym, dim, side)
			for cur.Next() {
				c := cur.Coord()
				off := s.index.offset(c)
				if off < 0 || off >= s.index.shellLen(c[0]) {
					t.Fatalf("%v dim=%d: offset %d of %v outside shell", sym, dim, off, c)
				}
				k := [2]int{c[0], off}
				if seen[k] {
					t.Fatalf("%v dim=%d: offset collision at %v", sym, dim, c)
				}
				seen[k] = true
			}
			if len(seen) != s.Len() {
				t.Errorf("%v dim=%d: visited %d cells, Len=%d", sym, dim, len(seen), s.Len())
			}
		}
	}
}

func TestSetGetAddAndGet(t *testing.T) {
	s := New[int64](numeric.Checked{}, lattice.Hyperoctahedral, 3, 4, 7)
	c := []int{3, 2, 2}
	if got := s.Get(c); got != 7 {
		t.Fatalf("fill = %d, want 7", got)
	}
	s.Set(c, 10)
	v, err := s.AddAndGet(c, -4)
	if err != nil || v != 6 || s.Get(c) != 6 {
		t.Errorf("AddAndGet = %d, %v", v, err)
	}
	if got := s.Get([]int{3, 2, 1}); got != 7 {
		t.Errorf("neighbouring cell disturbed: %d", got)
	}
}

func TestAddAndGetOverflow(t *testing.T) {
	s := New[int64](numeric.Checked{}, lattice.Hyperoctahedral, 1, 2, 1<<62)
	if _, err := s.AddAndGet([]int{0}, 1<<62); !errors.Is(err, numeric.ErrOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if s.Get([]int{0}) != 1<<62 {
		t.Errorf("failed add must not store")
	}
}

func TestGrowByKeepsValues(t *testing.T) {
	for _, sym := range syms {
		for dim := 1; dim <= 3; dim++ {
			s := New[int64](numeric.Checked{}, sym, dim, 3, 0)
			cur := lattice.NewCursor(sym, dim, 3)
			for cur.Next() {
				s.Set(cur.Coord(), key(cur.Coord()))
			}

			g := s.GrowBy(2, -1)
			if g.Side() != 5 {
				t.Fatalf("side = %d, want 5", g.Side())
			}
			g.ForEach(func(c []int, v int64) {
				want := int64(-1)
				if sym.Extent(c) < 3 {
					want = key(c)
				}
				if v != want {
					t.Errorf("%v dim=%d: %v = %d, want %d", sym, dim, c, v, want)
				}
			})
		}
	}
}

func TestLookupOutside(t *testing.T) {
	s := New[int64](numeric.Checked{}, lattice.Hyperoctahedral, 2, 3, 1)
	tests := [][]int{{3, 0}, {1, 2}, {-1, 0}, {1}}
	for _, c := range tests {
		if _, ok := s.Lookup(c); ok {
			t.Errorf("Lookup(%v) should miss", c)
		}
	}
	if v, ok := s.Lookup([]int{2, 1}); !ok || v != 1 {
		t.Errorf("Lookup inside = %d, %v", v, ok)
	}
}

func TestReleaseShell(t *testing.T) {
	s := New[int64](numeric.Checked{}, lattice.Hyperoctahedral, 2, 3, 1)
	s.Release(0)
	if _, ok := s.Lookup([]int{0, 0}); ok {
		t.Errorf("released shell still readable")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("Get on released shell should panic")
		}
	}()
	s.Get([]int{0, 0})
}

func TestCellsRoundTrip(t *testing.T) {
	for _, sym := range syms {
		s := New[int64](numeric.Checked{}, sym, 3, 4, 0)
		s.ForEach(func(c []int, _ int64) { s.Set(c, key(c)) })

		back, err := FromCells[int64](numeric.Checked{}, sym, 3, 4, s.Cells())
		if err != nil {
			t.Fatalf("FromCells: %v", err)
		}
		back.ForEach(func(c []int, v int64) {
			if v != key(c) {
				t.Errorf("%v: %v = %d after round trip", sym, c, v)
			}
		})

		if _, err := FromCells[int64](numeric.Checked{}, sym, 3, 4, s.Cells()[1:]); !errors.Is(err, ErrShape) {
			t.Errorf("short slice: expected ErrShape, got %v", err)
		}
	}
}
