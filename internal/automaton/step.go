package automaton

import (
	"fmt"

	"github.com/san-kum/topple/internal/grid"
	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
)

// NextStep advances the automaton by one synchronous step and reports
// whether any cell transferred a non-zero share.
//
// A failed step leaves the engine stopped: the error is returned again by
// every later call and readers see only the background.
func (e *Engine[T]) NextStep() (bool, error) {
	if e.err != nil {
		return false, fmt.Errorf("%w: %w", ErrPoisoned, e.err)
	}

	side := e.domain.Side()
	if e.boundsReached {
		side++
	}
	next := grid.New(e.v.Arith, e.v.Symmetry, e.v.Dim, side, e.v.Arith.Zero())

	sw := e.sweep
	sw.reset(e.domain, next, e.bg)
	if err := sw.run(); err != nil {
		e.err = &StepError{Step: e.step + 1, Coord: lattice.Coord(sw.at).Clone(), Wrapped: err}
		e.domain = nil
		return false, e.err
	}

	e.domain = next
	e.step++
	e.changed = sw.changed
	e.changedKnown = true
	e.boundsReached = sw.boundsReached
	return sw.changed, nil
}

// sweep computes one step. Every cell of the extended traversal pushes its
// shares along its outgoing edges; only writes that land on canonical cells
// inside the new side are kept. Each edge into the fundamental domain starts
// at exactly one visited cell, so symmetric images of a share arrive with
// their true multiplicity.
type sweep[T any] struct {
	ar   numeric.Arith[T]
	rule rules.Rule[T]
	sym  lattice.Symmetry
	dim  int

	old  *grid.Storage[T]
	next *grid.Storage[T]
	bg   T
	side int

	nb     *lattice.Neighborhood
	vals   []T
	shares []T
	fold   []int
	at     []int

	changed       bool
	boundsReached bool
}

func newSweep[T any](v Variant[T]) *sweep[T] {
	return &sweep[T]{
		ar:     v.Arith,
		rule:   v.Rule,
		sym:    v.Symmetry,
		dim:    v.Dim,
		nb:     lattice.NewNeighborhood(v.Symmetry, v.Dim),
		vals:   make([]T, 2*v.Dim),
		shares: make([]T, 2*v.Dim),
		fold:   make([]int, v.Dim),
		at:     make([]int, v.Dim),
	}
}

func (sw *sweep[T]) reset(old, next *grid.Storage[T], bg T) {
	sw.old = old
	sw.next = next
	sw.bg = bg
	sw.side = next.Side()
	sw.changed = false
	sw.boundsReached = false
}

func (sw *sweep[T]) run() error {
	cur := lattice.NewExtendedCursor(sw.sym, sw.dim, sw.side)
	shell := -1
	for cur.Next() {
		c := cur.Coord()
		if c[0] != shell {
			// cells from shell x on never read below shell x-1
			shell = c[0]
			sw.old.Release(shell - 2)
		}
		if lattice.MaxAbs(c) >= sw.side {
			continue
		}
		if err := sw.topple(c); err != nil {
			copy(sw.at, c)
			return err
		}
	}
	sw.old = nil
	return nil
}

// read returns the old value of a canonical coordinate.
func (sw *sweep[T]) read(canonical []int) T {
	if sw.sym.Extent(canonical) >= sw.old.Side() {
		return sw.bg
	}
	return sw.old.Get(canonical)
}

func (sw *sweep[T]) topple(c []int) error {
	sw.sym.FoldInto(sw.fold, c)
	value := sw.read(sw.fold)

	nb := sw.nb
	nb.Load(c)
	for k := range sw.vals {
		if j := nb.First[k]; j != k {
			sw.vals[k] = sw.vals[j]
			continue
		}
		sw.vals[k] = sw.read(nb.Folded[k])
	}

	keep, toppled, err := sw.rule.Topple(value, sw.vals, sw.shares)
	if err != nil {
		return err
	}
	if toppled {
		sw.changed = true
	}

	if sw.sym.IsCanonical(c) {
		if _, err := sw.next.AddAndGet(c, keep); err != nil {
			return err
		}
		if toppled && sw.onEdge(c) {
			sw.boundsReached = true
		}
	}
	if !toppled {
		return nil
	}
	for k, share := range sw.shares {
		if sw.ar.Sign(share) == 0 {
			continue
		}
		dst := nb.Raw[k]
		if !sw.sym.IsCanonical(dst) || sw.sym.Extent(dst) >= sw.side {
			continue
		}
		if _, err := sw.next.AddAndGet(dst, share); err != nil {
			return err
		}
		if sw.onEdge(dst) {
			sw.boundsReached = true
		}
	}
	return nil
}

// onEdge reports whether a canonical coordinate lies in the outermost shell.
func (sw *sweep[T]) onEdge(c []int) bool {
	return sw.sym.Extent(c) == sw.side-1
}
