package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/metrics"
	"github.com/san-kum/topple/internal/sim"
)

// Experiment couples a model with the runner and the run settings of a
// configuration.
type Experiment struct {
	cfg    *config.Config
	model  automaton.Model
	runner *sim.Runner
}

// New builds a fresh engine for cfg. The standard metrics are attached.
func New(reg *Registry, cfg *config.Config, log *slog.Logger) (*Experiment, error) {
	m, err := reg.BuildConfig(cfg)
	if err != nil {
		return nil, err
	}
	return setup(cfg, m, log), nil
}

// Resume restores the checkpoint at path. Run settings come from cfg; when
// cfg is nil they are defaults and the automaton description comes from the
// checkpoint alone. A non-nil cfg must describe the same automaton.
func Resume(reg *Registry, path string, cfg *config.Config, log *slog.Logger) (*Experiment, error) {
	var want checkpoint.Expect
	if cfg != nil {
		s, err := SpecFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		want = checkpoint.Expect{
			Model:     s.Model,
			Dimension: s.Dim,
			Numeric:   string(s.Numeric),
			Symmetry:  s.Symmetry.String(),
			Divisor:   s.Divisor,
		}
	}
	m, err := reg.Restore(path, want)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = ConfigFromIdentity(m.Identity())
	}
	return setup(cfg, m, log), nil
}

func setup(cfg *config.Config, m automaton.Model, log *slog.Logger) *Experiment {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := sim.New(log.With("model", cfg.Model, "grid", cfg.Grid))
	for _, mt := range metrics.Standard() {
		r.AddMetric(mt)
	}
	return &Experiment{cfg: cfg, model: m, runner: r}
}

func (e *Experiment) Model() automaton.Model { return e.model }
func (e *Experiment) Runner() *sim.Runner    { return e.runner }
func (e *Experiment) Config() *config.Config { return e.cfg }

// SimConfig translates the run settings. checkpointDir is used unless the
// configuration names its own directory.
func (e *Experiment) SimConfig(checkpointDir string) sim.Config {
	dir := checkpointDir
	if e.cfg.Checkpoint.Dir != "" {
		dir = e.cfg.Checkpoint.Dir
	}
	return sim.Config{
		Steps:              e.cfg.Steps,
		FirstStep:          e.cfg.FirstStep,
		UntilStable:        e.cfg.UntilStable,
		CheckpointEvery:    e.cfg.Checkpoint.EverySteps,
		CheckpointInterval: e.cfg.Checkpoint.Every,
		CheckpointDir:      dir,
		Trace:              true,
	}
}

func (e *Experiment) Run(ctx context.Context, checkpointDir string) (*sim.Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.runner.Run(ctx, e.model, e.SimConfig(checkpointDir))
}
