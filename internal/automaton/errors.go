package automaton

import (
	"errors"
	"fmt"

	"github.com/san-kum/topple/internal/lattice"
)

var (
	// ErrInvalidConfig indicates an engine that cannot be built as described.
	ErrInvalidConfig = errors.New("automaton: invalid configuration")

	// ErrPoisoned is returned by operations on an engine whose step failed.
	ErrPoisoned = errors.New("automaton: engine stopped after a failed step")
)

// StepError wraps a failure inside a step with its location.
type StepError struct {
	Step    int64
	Coord   lattice.Coord
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d at %v: %v", e.Step, e.Coord, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
