// Package grid stores one value per canonical cell of a symmetric lattice.
//
// Values are kept in shells keyed by the first canonical coordinate, so a
// shell can be released as soon as a sweep has moved past it and growth
// only touches the cells it adds.
package grid

import (
	"errors"
	"fmt"

	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
)

// ErrShape reports a flat cell slice whose length does not match the layout.
var ErrShape = errors.New("grid: cell count does not match layout")

// Storage is a growable fundamental domain. The zero value is not usable.
type Storage[T any] struct {
	ar     numeric.Arith[T]
	sym    lattice.Symmetry
	dim    int
	side   int
	shells [][]T
	index  indexer
}

// New allocates storage of the given side with every cell set to fill.
func New[T any](ar numeric.Arith[T], sym lattice.Symmetry, dim, side int, fill T) *Storage[T] {
	s := &Storage[T]{ar: ar, sym: sym, dim: dim, side: side}
	s.index = newIndexer(sym, dim, side)
	s.shells = make([][]T, side)
	for x := range s.shells {
		s.shells[x] = filled(s.index.shellLen(x), fill)
	}
	return s
}

// FromCells rebuilds storage from the flat canonical-order slice produced
// by Cells.
func FromCells[T any](ar numeric.Arith[T], sym lattice.Symmetry, dim, side int, cells []T) (*Storage[T], error) {
	if dim < 1 || side < 1 {
		return nil, fmt.Errorf("%w: dim=%d side=%d", ErrShape, dim, side)
	}
	idx := newIndexer(sym, dim, side)
	want := 0
	for x := 0; x < side; x++ {
		want += idx.shellLen(x)
	}
	if len(cells) != want {
		return nil, fmt.Errorf("%w: have %d cells, layout needs %d", ErrShape, len(cells), want)
	}
	s := &Storage[T]{ar: ar, sym: sym, dim: dim, side: side, index: idx}
	s.shells = make([][]T, side)
	off := 0
	for x := range s.shells {
		n := idx.shellLen(x)
		s.shells[x] = append([]T(nil), cells[off:off+n]...)
		off += n
	}
	return s, nil
}

func (s *Storage[T]) Dim() int                   { return s.dim }
func (s *Storage[T]) Side() int                  { return s.side }
func (s *Storage[T]) Symmetry() lattice.Symmetry { return s.sym }

// Len returns the number of stored cells.
func (s *Storage[T]) Len() int {
	n := 0
	for x := 0; x < s.side; x++ {
		n += s.index.shellLen(x)
	}
	return n
}

// Contains reports whether c is canonical and inside the current side.
func (s *Storage[T]) Contains(c []int) bool {
	return len(c) == s.dim && s.sym.IsCanonical(c) && s.sym.Extent(c) < s.side
}

// Get returns the value at a canonical coordinate inside the side. Other
// coordinates, or cells of a released shell, panic.
func (s *Storage[T]) Get(c []int) T {
	shell := s.shells[c[0]]
	if shell == nil {
		panic(fmt.Sprintf("grid: read from released shell %d", c[0]))
	}
	return shell[s.index.offset(c)]
}

// Lookup is the checked form of Get.
func (s *Storage[T]) Lookup(c []int) (T, bool) {
	if !s.Contains(c) || s.shells[c[0]] == nil {
		var zero T
		return zero, false
	}
	return s.Get(c), true
}

func (s *Storage[T]) Set(c []int, v T) {
	s.shells[c[0]][s.index.offset(c)] = v
}

// AddAndGet adds delta to the cell at c and returns the new value.
func (s *Storage[T]) AddAndGet(c []int, delta T) (T, error) {
	shell := s.shells[c[0]]
	i := s.index.offset(c)
	v, err := s.ar.Add(shell[i], delta)
	if err != nil {
		return v, err
	}
	shell[i] = v
	return v, nil
}

// GrowBy returns storage of side Side()+k holding the same values, with new
// cells set to fill. It consumes s: s must not be used afterwards.
func (s *Storage[T]) GrowBy(k int, fill T) *Storage[T] {
	if k <= 0 {
		return s
	}
	side := s.side + k
	g := &Storage[T]{ar: s.ar, sym: s.sym, dim: s.dim, side: side}
	g.index = newIndexer(s.sym, s.dim, side)
	g.shells = make([][]T, side)
	if s.index.stable() {
		copy(g.shells, s.shells)
	} else {
		for x := 0; x < s.side; x++ {
			g.shells[x] = g.regrid(s, x, fill)
			s.shells[x] = nil
		}
	}
	for x := s.side; x < side; x++ {
		g.shells[x] = filled(g.index.shellLen(x), fill)
	}
	s.shells = nil
	return g
}

// regrid copies shell x of old into a shell laid out for g.
func (g *Storage[T]) regrid(old *Storage[T], x int, fill T) []T {
	dst := filled(g.index.shellLen(x), fill)
	src := old.shells[x]
	cur := lattice.NewCursor(old.sym, old.dim-1, old.side)
	c := make([]int, old.dim)
	c[0] = x
	for i := 0; cur.Next(); i++ {
		copy(c[1:], cur.Coord())
		dst[g.index.offset(c)] = src[i]
	}
	return dst
}

// Release drops shell x. Later reads of it panic.
func (s *Storage[T]) Release(x int) {
	if x >= 0 && x < len(s.shells) {
		s.shells[x] = nil
	}
}

// ForEach calls fn for every stored cell in canonical order. The coordinate
// slice is reused between calls.
func (s *Storage[T]) ForEach(fn func(c []int, v T)) {
	cur := lattice.NewCursor(s.sym, s.dim, s.side)
	for cur.Next() {
		c := cur.Coord()
		if s.shells[c[0]] == nil {
			continue
		}
		fn(c, s.Get(c))
	}
}

// Cells returns every value in canonical order.
func (s *Storage[T]) Cells() []T {
	out := make([]T, 0, s.Len())
	for _, shell := range s.shells {
		out = append(out, shell...)
	}
	return out
}

func filled[T any](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}
