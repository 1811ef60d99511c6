package automaton

import (
	"math/big"

	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/lattice"
)

// Model is an engine seen without its value type. Runners, metrics and the
// CLI work against Model so one code path serves every representation.
type Model interface {
	Identity() checkpoint.Identity
	Dim() int
	Step() int64
	Side() int
	Changed() (changed, known bool)
	BoundsReached() bool
	NextStep() (bool, error)
	Err() error

	// Value reads any lattice coordinate.
	Value(c []int) *big.Int
	BackgroundValue() *big.Int
	Stats() Stats

	Marshal() ([]byte, error)
	BackUp(path string) error
}

var (
	_ Model = (*Engine[int64])(nil)
	_ Model = (*Engine[*big.Int])(nil)
)

// Stats summarises the whole lattice, not just the fundamental domain.
type Stats struct {
	Step int64
	Side int
	// Cells is the number of stored canonical cells.
	Cells int
	// Active counts lattice cells that differ from the background.
	Active *big.Int
	// Mass is the sum over the lattice of (value - background).
	Mass *big.Int
	Min  *big.Int
	Max  *big.Int
	// Peak is a canonical coordinate holding Max.
	Peak lattice.Coord
}

// Stats computes Stats in one pass over the domain.
func (e *Engine[T]) Stats() Stats {
	st := Stats{
		Step:   e.step,
		Side:   e.Side(),
		Active: new(big.Int),
		Mass:   new(big.Int),
	}
	if e.domain == nil {
		return st
	}
	ar := e.v.Arith
	sym := e.v.Symmetry
	bg := ar.Big(e.bg)
	st.Min = new(big.Int).Set(bg)
	st.Max = new(big.Int).Set(bg)
	st.Peak = make(lattice.Coord, e.v.Dim)

	diff := new(big.Int)
	e.domain.ForEach(func(c []int, v T) {
		st.Cells++
		if ar.Cmp(v, e.bg) == 0 {
			return
		}
		val := ar.Big(v)
		orbit := sym.OrbitSize(c)
		st.Active.Add(st.Active, orbit)
		diff.Sub(val, bg)
		st.Mass.Add(st.Mass, diff.Mul(diff, orbit))
		if val.Cmp(st.Min) < 0 {
			st.Min.Set(val)
		}
		if val.Cmp(st.Max) > 0 {
			st.Max.Set(val)
			copy(st.Peak, c)
		}
	})
	return st
}
