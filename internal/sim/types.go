package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/topple/internal/automaton"
)

// Sample is what observers and metrics see after every step.
type Sample struct {
	automaton.Stats
	// Initial marks the sample taken before the first step of a run; it
	// carries no change information.
	Initial bool
	Changed bool
	Grew    bool
	Elapsed time.Duration
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(m automaton.Model, s Sample)
}

// CheckpointObserver is notified after each checkpoint written by the runner.
type CheckpointObserver interface {
	OnCheckpoint(m automaton.Model, path string)
}

type ObserverFunc func(m automaton.Model, s Sample)

func (f ObserverFunc) OnStep(m automaton.Model, s Sample) { f(m, s) }

type Config struct {
	// Steps is the number of observed steps to run, counted from the later
	// of the model's current step and FirstStep. Zero means no limit, which
	// requires UntilStable.
	Steps int64
	// FirstStep advances silently to this absolute step before observation
	// starts.
	FirstStep int64
	// UntilStable stops after the first step that changes nothing.
	UntilStable bool

	CheckpointEvery    int64
	CheckpointInterval time.Duration
	CheckpointDir      string

	// Trace keeps one Sample per observed step in the result.
	Trace bool
}

type Result struct {
	StepsTaken  int64
	FinalStep   int64
	Stable      bool
	Trace       []Sample
	Metrics     map[string]float64
	Checkpoints []string
	Elapsed     time.Duration
}

// SimError reports a failed step inside a run.
type SimError struct {
	Step int64
	Err  error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *SimError) Unwrap() error { return e.Err }
