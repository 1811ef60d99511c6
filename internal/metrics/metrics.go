// Package metrics summarises toppling runs. Every metric implements
// sim.Metric and observes one Sample per step.
package metrics

import (
	"math/big"

	"github.com/san-kum/topple/internal/sim"
)

// MassDrift is the largest absolute difference between the lattice sum and
// its value at the first observed step. It stays zero for a correct engine.
type MassDrift struct {
	name    string
	initial *big.Int
	max     *big.Int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift", max: new(big.Int)}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s sim.Sample) {
	if s.Mass == nil {
		return
	}
	if m.initial == nil {
		m.initial = new(big.Int).Set(s.Mass)
		return
	}
	d := new(big.Int).Sub(s.Mass, m.initial)
	d.Abs(d)
	if d.Cmp(m.max) > 0 {
		m.max.Set(d)
	}
}

func (m *MassDrift) Value() float64 {
	f, _ := new(big.Float).SetInt(m.max).Float64()
	return f
}

// Drift returns the exact drift.
func (m *MassDrift) Drift() *big.Int { return new(big.Int).Set(m.max) }

func (m *MassDrift) Reset() {
	m.initial = nil
	m.max.SetInt64(0)
}

// ActiveCells reports the number of non-background lattice cells at the
// last observed step.
type ActiveCells struct {
	name   string
	active *big.Int
}

func NewActiveCells() *ActiveCells {
	return &ActiveCells{name: "active_cells", active: new(big.Int)}
}

func (a *ActiveCells) Name() string { return a.name }

func (a *ActiveCells) Observe(s sim.Sample) {
	if s.Active != nil {
		a.active.Set(s.Active)
	}
}

func (a *ActiveCells) Value() float64 {
	f, _ := new(big.Float).SetInt(a.active).Float64()
	return f
}

func (a *ActiveCells) Reset() { a.active.SetInt64(0) }

// Growth counts how many observed steps enlarged the domain.
type Growth struct {
	name  string
	grows int
}

func NewGrowth() *Growth {
	return &Growth{name: "growth"}
}

func (g *Growth) Name() string { return g.name }

func (g *Growth) Observe(s sim.Sample) {
	if s.Grew {
		g.grows++
	}
}

func (g *Growth) Value() float64 { return float64(g.grows) }
func (g *Growth) Reset()         { g.grows = 0 }

// ToppledSteps is the fraction of observed steps in which some cell toppled.
type ToppledSteps struct {
	name    string
	toppled int
	samples int
}

func NewToppledSteps() *ToppledSteps {
	return &ToppledSteps{name: "toppled_steps"}
}

func (t *ToppledSteps) Name() string { return t.name }

func (t *ToppledSteps) Observe(s sim.Sample) {
	if s.Initial {
		return
	}
	if s.Changed {
		t.toppled++
	}
	t.samples++
}

func (t *ToppledSteps) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return float64(t.toppled) / float64(t.samples)
}

func (t *ToppledSteps) Reset() {
	t.toppled = 0
	t.samples = 0
}

// StepTime is the mean wall time per step in seconds.
type StepTime struct {
	name    string
	total   float64
	samples int
}

func NewStepTime() *StepTime {
	return &StepTime{name: "step_seconds"}
}

func (t *StepTime) Name() string { return t.name }

func (t *StepTime) Observe(s sim.Sample) {
	if s.Elapsed > 0 {
		t.total += s.Elapsed.Seconds()
		t.samples++
	}
}

func (t *StepTime) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.total / float64(t.samples)
}

func (t *StepTime) Reset() {
	t.total = 0
	t.samples = 0
}

// Standard returns a fresh set of the metrics every run records.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewMassDrift(),
		NewActiveCells(),
		NewGrowth(),
		NewToppledSteps(),
		NewStepTime(),
	}
}
