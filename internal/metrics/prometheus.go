package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/sim"
)

// Collector exports run progress as Prometheus metrics. It is a sim.Observer
// and a sim.CheckpointObserver; series are labelled with the run name.
type Collector struct {
	step        *prometheus.GaugeVec
	side        *prometheus.GaugeVec
	active      *prometheus.GaugeVec
	mass        *prometheus.GaugeVec
	steps       *prometheus.CounterVec
	toppled     *prometheus.CounterVec
	growths     *prometheus.CounterVec
	checkpoints *prometheus.CounterVec
	stepSeconds *prometheus.HistogramVec

	run string
}

// NewCollector registers the topple metrics with reg. Several collectors may
// share one registry as long as their run names differ.
func NewCollector(reg prometheus.Registerer, run string) (*Collector, error) {
	c := &Collector{
		step: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "topple",
			Name:      "step",
			Help:      "Step number of the engine.",
		}, []string{"run"}),
		side: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "topple",
			Name:      "domain_side",
			Help:      "Side of the stored fundamental domain.",
		}, []string{"run"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "topple",
			Name:      "active_cells",
			Help:      "Lattice cells holding a value other than the background.",
		}, []string{"run"}),
		mass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "topple",
			Name:      "mass",
			Help:      "Sum of value minus background over the lattice.",
		}, []string{"run"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topple",
			Name:      "steps_total",
			Help:      "Steps computed.",
		}, []string{"run"}),
		toppled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topple",
			Name:      "toppled_steps_total",
			Help:      "Steps in which at least one cell toppled.",
		}, []string{"run"}),
		growths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topple",
			Name:      "domain_growths_total",
			Help:      "Steps that enlarged the domain.",
		}, []string{"run"}),
		checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topple",
			Name:      "checkpoints_total",
			Help:      "Checkpoints written.",
		}, []string{"run"}),
		stepSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "topple",
			Name:      "step_duration_seconds",
			Help:      "Wall time of a single step.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}, []string{"run"}),
		run: run,
	}

	for _, col := range []prometheus.Collector{
		c.step, c.side, c.active, c.mass,
		c.steps, c.toppled, c.growths, c.checkpoints, c.stepSeconds,
	} {
		if err := reg.Register(col); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			if err := c.adopt(are); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// adopt swaps in a vector already registered by another collector.
func (c *Collector) adopt(are prometheus.AlreadyRegisteredError) error {
	switch existing := are.ExistingCollector.(type) {
	case *prometheus.GaugeVec:
		for _, g := range []**prometheus.GaugeVec{&c.step, &c.side, &c.active, &c.mass} {
			if *g == are.NewCollector {
				*g = existing
				return nil
			}
		}
	case *prometheus.CounterVec:
		for _, cv := range []**prometheus.CounterVec{&c.steps, &c.toppled, &c.growths, &c.checkpoints} {
			if *cv == are.NewCollector {
				*cv = existing
				return nil
			}
		}
	case *prometheus.HistogramVec:
		c.stepSeconds = existing
		return nil
	}
	return are
}

func (c *Collector) OnStep(_ automaton.Model, s sim.Sample) {
	c.step.WithLabelValues(c.run).Set(float64(s.Step))
	c.side.WithLabelValues(c.run).Set(float64(s.Side))
	c.active.WithLabelValues(c.run).Set(toFloat(s.Active))
	c.mass.WithLabelValues(c.run).Set(toFloat(s.Mass))
	if s.Initial {
		return
	}
	c.steps.WithLabelValues(c.run).Inc()
	if s.Changed {
		c.toppled.WithLabelValues(c.run).Inc()
	}
	if s.Grew {
		c.growths.WithLabelValues(c.run).Inc()
	}
	c.stepSeconds.WithLabelValues(c.run).Observe(s.Elapsed.Seconds())
}

func (c *Collector) OnCheckpoint(automaton.Model, string) {
	c.checkpoints.WithLabelValues(c.run).Inc()
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
