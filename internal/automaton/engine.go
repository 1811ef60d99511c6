package automaton

import (
	"fmt"
	"math/big"

	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/grid"
	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
)

// MaxDimension bounds the lattice dimension. Storage for the smallest
// domain grows as 2^D for reflective symmetry.
const MaxDimension = 32

// Variant fixes everything about an automaton except its state.
type Variant[T any] struct {
	Dim      int
	Symmetry lattice.Symmetry
	Arith    numeric.Arith[T]
	Rule     rules.Rule[T]
}

func (v Variant[T]) validate() error {
	switch {
	case v.Dim < 1 || v.Dim > MaxDimension:
		return invalid("dimension %d outside [1, %d]", v.Dim, MaxDimension)
	case v.Arith == nil:
		return invalid("no arithmetic")
	case v.Rule == nil:
		return invalid("no rule")
	case v.Symmetry != lattice.Hyperoctahedral && v.Symmetry != lattice.Reflective:
		return invalid("unknown symmetry %v", v.Symmetry)
	}
	return nil
}

func (v Variant[T]) layout() string {
	if v.Symmetry == lattice.Hyperoctahedral {
		return checkpoint.LayoutSimplexShells
	}
	return checkpoint.LayoutBoxShells
}

func (v Variant[T]) divisor() int64 {
	if d, ok := v.Rule.(interface{ Divisor() int64 }); ok {
		return d.Divisor()
	}
	return 0
}

// Expect returns the checkpoint identity fields this variant requires.
func (v Variant[T]) Expect() checkpoint.Expect {
	return checkpoint.Expect{
		Model:     v.Rule.Name(),
		Dimension: v.Dim,
		Numeric:   string(v.Arith.Kind()),
		Symmetry:  v.Symmetry.String(),
		Divisor:   v.divisor(),
	}
}

// Engine holds the state of one automaton. See the package documentation
// for concurrency rules.
type Engine[T any] struct {
	v     Variant[T]
	start Initial[T]
	bg    T

	domain        *grid.Storage[T]
	step          int64
	boundsReached bool
	changed       bool
	changedKnown  bool
	err           error

	sweep *sweep[T]
	fold  []int
}

// New validates v and start and builds an engine at step 0. Nothing is
// allocated for an invalid configuration.
func New[T any](v Variant[T], start Initial[T]) (*Engine[T], error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	if err := start.validate(); err != nil {
		return nil, err
	}
	if start.Kind == KindRandomRegion {
		start.Background = v.Arith.Zero()
	}
	e := newEngine(v, start)
	e.domain = start.domain(v.Arith, v.Symmetry, v.Dim)
	return e, nil
}

func newEngine[T any](v Variant[T], start Initial[T]) *Engine[T] {
	return &Engine[T]{
		v:     v,
		start: start,
		bg:    start.Background,
		sweep: newSweep(v),
		fold:  make([]int, v.Dim),
	}
}

func (e *Engine[T]) Step() int64 { return e.step }
func (e *Engine[T]) Dim() int    { return e.v.Dim }

// Side is the current side of the fundamental domain.
func (e *Engine[T]) Side() int {
	if e.domain == nil {
		return 0
	}
	return e.domain.Side()
}

func (e *Engine[T]) Background() T { return e.bg }

// Initial returns the configuration the engine started from.
func (e *Engine[T]) Initial() Initial[T] { return e.start }

// Changed reports whether the last step moved anything. known is false
// before the first step.
func (e *Engine[T]) Changed() (changed, known bool) {
	return e.changed, e.changedKnown
}

// BoundsReached reports whether the next step will grow the domain.
func (e *Engine[T]) BoundsReached() bool { return e.boundsReached }

// Err returns the error that stopped the engine, if any.
func (e *Engine[T]) Err() error { return e.err }

// At returns the value at any lattice coordinate. Coordinates beyond the
// domain, and every coordinate of a stopped engine, read as background.
func (e *Engine[T]) At(c []int) T {
	if len(c) != e.v.Dim {
		panic(fmt.Sprintf("automaton: coordinate %v has dimension %d, want %d", c, len(c), e.v.Dim))
	}
	if e.domain == nil {
		return e.bg
	}
	e.v.Symmetry.FoldInto(e.fold, c)
	if e.v.Symmetry.Extent(e.fold) >= e.domain.Side() {
		return e.bg
	}
	return e.domain.Get(e.fold)
}

// Value is At as an exact big.Int.
func (e *Engine[T]) Value(c []int) *big.Int {
	return e.v.Arith.Big(e.At(c))
}

func (e *Engine[T]) BackgroundValue() *big.Int {
	return e.v.Arith.Big(e.bg)
}

// Format renders a value in decimal.
func (e *Engine[T]) Format(v T) string { return e.v.Arith.Format(v) }

// ForEach visits every stored canonical cell.
func (e *Engine[T]) ForEach(fn func(c []int, v T)) {
	if e.domain != nil {
		e.domain.ForEach(fn)
	}
}

// Identity returns the compatibility tag written into checkpoints.
func (e *Engine[T]) Identity() checkpoint.Identity {
	return checkpoint.Identity{
		Model:     e.v.Rule.Name(),
		Dimension: e.v.Dim,
		Numeric:   string(e.v.Arith.Kind()),
		Symmetry:  e.v.Symmetry.String(),
		Layout:    e.v.layout(),
		Bounds:    checkpoint.BoundsReachedFlag,
		Divisor:   e.v.divisor(),
		Initial:   e.start.describe(e.v.Arith),
	}
}
