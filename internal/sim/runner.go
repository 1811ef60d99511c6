package sim

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
)

// Runner drives a model step by step. It is not safe for concurrent use
// except for RequestCheckpoint.
type Runner struct {
	log       *slog.Logger
	metrics   []Metric
	observers []Observer
	requests  chan struct{}
	now       func() time.Time
}

func New(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		log:       log,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		requests:  make(chan struct{}, 1),
		now:       time.Now,
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// RequestCheckpoint asks the running loop to checkpoint after the current
// step. It never blocks; requests made before the loop drains coalesce.
func (r *Runner) RequestCheckpoint() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

func (r *Runner) Run(ctx context.Context, m automaton.Model, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Metrics:     make(map[string]float64),
		Checkpoints: make([]string, 0),
	}
	for _, mt := range r.metrics {
		mt.Reset()
	}

	start := r.now()
	lastCheckpoint := start
	model := m.Identity().Model

	if m.Step() < cfg.FirstStep {
		r.log.Info("skipping ahead", "from", m.Step(), "to", cfg.FirstStep)
	}
	for m.Step() < cfg.FirstStep {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := m.NextStep(); err != nil {
			return result, &SimError{Step: m.Step() + 1, Err: err}
		}
		result.StepsTaken++
	}

	observing := len(r.metrics) > 0 || len(r.observers) > 0 || cfg.Trace
	if observing {
		r.publish(m, result, Sample{Stats: m.Stats(), Initial: true}, cfg)
	}

	end := m.Step() + cfg.Steps
	for cfg.Steps == 0 || m.Step() < end {
		select {
		case <-ctx.Done():
			result.FinalStep = m.Step()
			result.Elapsed = r.now().Sub(start)
			return result, ctx.Err()
		default:
		}

		side := m.Side()
		stepStart := r.now()
		changed, err := m.NextStep()
		if err != nil {
			r.log.Error("step failed", "step", m.Step()+1, "error", err)
			result.FinalStep = m.Step()
			return result, &SimError{Step: m.Step() + 1, Err: err}
		}
		result.StepsTaken++

		grew := m.Side() > side
		if grew {
			r.log.Debug("domain grew", "step", m.Step(), "side", m.Side())
		}
		if observing {
			s := Sample{Stats: m.Stats(), Changed: changed, Grew: grew, Elapsed: r.now().Sub(stepStart)}
			r.publish(m, result, s, cfg)
		}

		due := cfg.CheckpointEvery > 0 && m.Step()%cfg.CheckpointEvery == 0
		if cfg.CheckpointInterval > 0 && r.now().Sub(lastCheckpoint) >= cfg.CheckpointInterval {
			due = true
		}
		select {
		case <-r.requests:
			due = true
		default:
		}
		if due && cfg.CheckpointDir != "" {
			path, err := r.checkpoint(m, model, cfg.CheckpointDir)
			if err != nil {
				return result, err
			}
			result.Checkpoints = append(result.Checkpoints, path)
			lastCheckpoint = r.now()
		}

		if cfg.UntilStable && !changed {
			result.Stable = true
			r.log.Info("configuration is stable", "step", m.Step())
			break
		}
	}

	for _, mt := range r.metrics {
		result.Metrics[mt.Name()] = mt.Value()
	}
	result.FinalStep = m.Step()
	result.Elapsed = r.now().Sub(start)
	return result, nil
}

func (r *Runner) publish(m automaton.Model, result *Result, s Sample, cfg Config) {
	for _, mt := range r.metrics {
		mt.Observe(s)
	}
	for _, obs := range r.observers {
		obs.OnStep(m, s)
	}
	if cfg.Trace {
		result.Trace = append(result.Trace, s)
	}
}

func (r *Runner) checkpoint(m automaton.Model, model, dir string) (string, error) {
	path := filepath.Join(dir, checkpoint.Name(model, m.Step()))
	if err := m.BackUp(path); err != nil {
		r.log.Error("checkpoint failed", "path", path, "error", err)
		return "", fmt.Errorf("checkpoint at step %d: %w", m.Step(), err)
	}
	r.log.Info("checkpoint written", "path", path, "step", m.Step(), "side", m.Side())
	for _, obs := range r.observers {
		if co, ok := obs.(CheckpointObserver); ok {
			co.OnCheckpoint(m, path)
		}
	}
	return path, nil
}

func validateConfig(cfg Config) error {
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", cfg.Steps)
	}
	if cfg.Steps == 0 && !cfg.UntilStable {
		return fmt.Errorf("steps must be positive unless running until stable")
	}
	if cfg.FirstStep < 0 {
		return fmt.Errorf("first step must be non-negative, got %d", cfg.FirstStep)
	}
	if cfg.CheckpointEvery < 0 || cfg.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint period must be non-negative")
	}
	if (cfg.CheckpointEvery > 0 || cfg.CheckpointInterval > 0) && cfg.CheckpointDir == "" {
		return fmt.Errorf("checkpoint directory required for periodic checkpoints")
	}
	return nil
}
