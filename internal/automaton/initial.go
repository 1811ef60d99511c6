package automaton

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/grid"
	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
)

type InitialKind string

const (
	KindSingleSource InitialKind = "single-source"
	KindRandomRegion InitialKind = "random-region"
)

// Region is a centred hypercube of uniformly random values in [Min, Max].
// Side is the edge length; an even side is rounded up to the next odd one so
// the region stays symmetric about the origin.
type Region struct {
	Side int
	Min  int64
	Max  int64
	Seed uint64
}

// HalfExtent is the number of cells from the origin to the region edge,
// origin included.
func (r Region) HalfExtent() int { return (r.Side + 2) / 2 }

// Initial is an immutable initial configuration.
type Initial[T any] struct {
	Kind       InitialKind
	Source     T
	Background T
	Region     Region
}

// SingleSource places source at the origin and background everywhere else.
func SingleSource[T any](source, background T) Initial[T] {
	return Initial[T]{Kind: KindSingleSource, Source: source, Background: background}
}

// RandomRegion fills a symmetric region with seeded random values. Cells
// outside the region hold zero.
func RandomRegion[T any](r Region) Initial[T] {
	return Initial[T]{Kind: KindRandomRegion, Region: r}
}

func (in Initial[T]) validate() error {
	switch in.Kind {
	case KindSingleSource:
		return nil
	case KindRandomRegion:
		r := in.Region
		if r.Side < 1 {
			return invalid("random region side %d must be at least 1", r.Side)
		}
		if r.Min > r.Max {
			return invalid("random region min %d greater than max %d", r.Min, r.Max)
		}
		if r.Min < 0 && r.Max > math.MaxInt64+r.Min {
			return invalid("random region range [%d, %d] is too big", r.Min, r.Max)
		}
		return nil
	}
	return invalid("unknown initial configuration %q", in.Kind)
}

// domain builds the initial fundamental domain. The outermost shell always
// holds the background so the first step sees room to spill.
func (in Initial[T]) domain(ar numeric.Arith[T], sym lattice.Symmetry, dim int) *grid.Storage[T] {
	if in.Kind == KindSingleSource {
		return grid.New(ar, sym, dim, 1, in.Source).GrowBy(1, in.Background)
	}
	r := in.Region
	s := grid.New(ar, sym, dim, r.HalfExtent(), ar.Zero())
	rng := rand.New(rand.NewPCG(r.Seed, 0))
	span := uint64(r.Max-r.Min) + 1
	s.ForEach(func(c []int, _ T) {
		s.Set(c, ar.FromInt64(r.Min+int64(rng.Uint64N(span))))
	})
	return s.GrowBy(1, ar.Zero())
}

func (in Initial[T]) describe(ar numeric.Arith[T]) checkpoint.Initial {
	out := checkpoint.Initial{Type: string(in.Kind)}
	switch in.Kind {
	case KindSingleSource:
		out.Source = ar.Format(in.Source)
		out.Background = ar.Format(in.Background)
	case KindRandomRegion:
		out.Side = in.Region.Side
		out.Min = in.Region.Min
		out.Max = in.Region.Max
		out.Seed = in.Region.Seed
	}
	return out
}

func parseInitial[T any](ar numeric.Arith[T], d checkpoint.Initial) (Initial[T], error) {
	switch InitialKind(d.Type) {
	case KindSingleSource:
		src, err := ar.Parse(d.Source)
		if err != nil {
			return Initial[T]{}, err
		}
		bg, err := ar.Parse(d.Background)
		if err != nil {
			return Initial[T]{}, err
		}
		return SingleSource(src, bg), nil
	case KindRandomRegion:
		in := RandomRegion[T](Region{Side: d.Side, Min: d.Min, Max: d.Max, Seed: d.Seed})
		in.Background = ar.Zero()
		return in, in.validate()
	}
	return Initial[T]{}, invalid("unknown initial configuration %q", d.Type)
}
