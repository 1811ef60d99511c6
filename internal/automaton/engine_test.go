package automaton

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
)

func sunflower(t testing.TB, dim int, divisor int64) Variant[int64] {
	t.Helper()
	r, err := rules.NewSunflower[int64](numeric.Checked{}, dim, divisor)
	if err != nil {
		t.Fatal(err)
	}
	return Variant[int64]{Dim: dim, Arith: numeric.Checked{}, Rule: r}
}

func TestOneDimensionalFixture(t *testing.T) {
	e, err := New(sunflower(t, 1, 3), SingleSource[int64](10, 0))
	if err != nil {
		t.Fatal(err)
	}
	if _, known := e.Changed(); known {
		t.Fatal("changed must be unknown before the first step")
	}

	changed, err := e.NextStep()
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("first step should change")
	}
	want := map[int]int64{-2: 0, -1: 3, 0: 4, 1: 3, 2: 0}
	for x, v := range want {
		if got := e.At([]int{x}); got != v {
			t.Errorf("At(%d) = %d, want %d", x, got, v)
		}
	}
	if !e.BoundsReached() {
		t.Error("share landed on the outer shell, bounds should be reached")
	}
	if e.Step() != 1 || e.Side() != 2 {
		t.Errorf("step=%d side=%d", e.Step(), e.Side())
	}

	if _, err := e.NextStep(); err != nil {
		t.Fatal(err)
	}
	if e.Side() != 3 {
		t.Errorf("side after growth = %d, want 3", e.Side())
	}
}

func TestStabilizesBelowDivisor(t *testing.T) {
	for _, v := range []int64{4, -4, 0} {
		e, err := New(sunflower(t, 2, 0), SingleSource[int64](v, 0))
		if err != nil {
			t.Fatal(err)
		}
		changed, err := e.NextStep()
		if err != nil {
			t.Fatal(err)
		}
		if changed {
			t.Errorf("source %d: nothing should topple", v)
		}
		if got := e.At([]int{0, 0}); got != v {
			t.Errorf("source %d: origin = %d", v, got)
		}
		if c, known := e.Changed(); c || !known {
			t.Errorf("Changed() = %v, %v", c, known)
		}
		if e.BoundsReached() || e.Side() != 2 {
			t.Errorf("domain should not grow: side=%d", e.Side())
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	v := sunflower(t, 2, 0)
	tests := []struct {
		name  string
		v     Variant[int64]
		start Initial[int64]
	}{
		{"dimension zero", Variant[int64]{Dim: 0, Arith: numeric.Checked{}, Rule: v.Rule}, SingleSource[int64](1, 0)},
		{"no rule", Variant[int64]{Dim: 2, Arith: numeric.Checked{}}, SingleSource[int64](1, 0)},
		{"region side", v, RandomRegion[int64](Region{Side: 0, Min: 0, Max: 5})},
		{"region order", v, RandomRegion[int64](Region{Side: 3, Min: 5, Max: 1})},
		{"region range", v, RandomRegion[int64](Region{Side: 3, Min: math.MinInt64, Max: 1})},
		{"unknown kind", v, Initial[int64]{Kind: "checkerboard"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.v, tt.start); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRandomRegionIsReproducible(t *testing.T) {
	v := sunflower(t, 2, 0)
	v.Symmetry = lattice.Reflective
	r := Region{Side: 5, Min: -20, Max: 60, Seed: 7}

	a, err := New(v, RandomRegion[int64](r))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := New(v, RandomRegion[int64](r))
	if a.Side() != r.HalfExtent()+1 {
		t.Errorf("side = %d, want %d", a.Side(), r.HalfExtent()+1)
	}

	for x := -4; x <= 4; x++ {
		for y := -4; y <= 4; y++ {
			c := []int{x, y}
			va, vb := a.At(c), b.At(c)
			if va != vb {
				t.Fatalf("%v differs between identical seeds", c)
			}
			if lattice.MaxAbs(c) >= r.HalfExtent() && va != 0 {
				t.Errorf("%v outside region holds %d", c, va)
			}
			if va < r.Min || va > r.Max {
				t.Errorf("%v = %d outside [%d, %d]", c, va, r.Min, r.Max)
			}
		}
	}
}

// failing refuses to topple any cell above a limit.
type failing struct {
	rules.Rule[int64]
	limit int64
}

func (f failing) Topple(v int64, nb, shares []int64) (int64, bool, error) {
	if v > f.limit {
		return 0, false, numeric.ErrOverflow
	}
	return f.Rule.Topple(v, nb, shares)
}

func TestFailedStepPoisons(t *testing.T) {
	v := sunflower(t, 2, 0)
	v.Rule = failing{Rule: v.Rule, limit: 50}

	e, err := New(v, SingleSource[int64](100, 0))
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.NextStep()
	var se *StepError
	if !errors.As(err, &se) || !errors.Is(err, numeric.ErrOverflow) {
		t.Fatalf("expected StepError wrapping ErrOverflow, got %v", err)
	}
	if se.Step != 1 {
		t.Errorf("StepError.Step = %d", se.Step)
	}

	if _, err := e.NextStep(); !errors.Is(err, ErrPoisoned) || !errors.Is(err, numeric.ErrOverflow) {
		t.Errorf("second step: %v", err)
	}
	if e.Step() != 0 {
		t.Errorf("step advanced to %d", e.Step())
	}
	if got := e.At([]int{0, 0}); got != 0 {
		t.Errorf("stopped engine reads %d, want background", got)
	}
	if _, err := e.Marshal(); !errors.Is(err, ErrPoisoned) {
		t.Errorf("Marshal on stopped engine: %v", err)
	}
}

func TestStats(t *testing.T) {
	e, err := New(sunflower(t, 2, 0), SingleSource[int64](1000, 0))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := e.NextStep(); err != nil {
			t.Fatal(err)
		}
	}
	st := e.Stats()
	if st.Mass.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("mass = %v, want 1000", st.Mass)
	}
	if st.Step != 3 || st.Side != e.Side() {
		t.Errorf("stats step/side = %d/%d", st.Step, st.Side)
	}
	if st.Active.Sign() <= 0 || st.Max.Cmp(big.NewInt(1000)) >= 0 {
		t.Errorf("active=%v max=%v", st.Active, st.Max)
	}
	if e.Value(st.Peak).Cmp(st.Max) != 0 {
		t.Errorf("peak %v does not hold max %v", st.Peak, st.Max)
	}
}

func TestBigIntVariant(t *testing.T) {
	ar := numeric.Big{}
	rule := rules.NewAether[*big.Int](ar, 3)
	source, _ := new(big.Int).SetString("-1000000000000000000000000", 10)
	e, err := New(Variant[*big.Int]{Dim: 3, Arith: ar, Rule: rule}, SingleSource(source, ar.Zero()))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := e.NextStep(); err != nil {
			t.Fatal(err)
		}
	}
	if e.Stats().Mass.Cmp(source) != 0 {
		t.Errorf("mass = %v, want %v", e.Stats().Mass, source)
	}
}

func BenchmarkStep2D(b *testing.B) {
	e, err := New(sunflower(b, 2, 0), SingleSource[int64](1_000_000, 0))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.NextStep(); err != nil {
			b.Fatal(err)
		}
	}
}
