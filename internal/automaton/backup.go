package automaton

import (
	"fmt"
	"time"

	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/grid"
)

func (e *Engine[T]) snapshot() (checkpoint.Header, checkpoint.Payload[T], error) {
	if e.err != nil {
		return checkpoint.Header{}, checkpoint.Payload[T]{}, fmt.Errorf("%w: %w", ErrPoisoned, e.err)
	}
	h := checkpoint.Header{Identity: e.Identity(), SavedAt: time.Now().UTC()}
	p := checkpoint.Payload[T]{
		Step:          e.step,
		Side:          e.domain.Side(),
		BoundsReached: e.boundsReached,
		Changed:       e.changed,
		ChangedKnown:  e.changedKnown,
		Cells:         e.domain.Cells(),
	}
	return h, p, nil
}

// Marshal encodes the complete engine state.
func (e *Engine[T]) Marshal() ([]byte, error) {
	h, p, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return checkpoint.Marshal(h, p)
}

// BackUp writes the engine state to path.
func (e *Engine[T]) BackUp(path string) error {
	h, p, err := e.snapshot()
	if err != nil {
		return err
	}
	return checkpoint.WriteFile(path, h, p)
}

// Unmarshal rebuilds an engine of variant v from Marshal output. A snapshot
// of another model, dimension or representation fails with
// checkpoint.ErrIncompatible; unreadable bytes fail with
// checkpoint.ErrCorrupt.
func Unmarshal[T any](data []byte, v Variant[T]) (*Engine[T], error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	h, p, err := checkpoint.Unmarshal[T](data, v.Expect())
	if err != nil {
		return nil, err
	}
	return fromSnapshot(v, h, p)
}

// Restore reads an engine of variant v from a file written by BackUp.
func Restore[T any](path string, v Variant[T]) (*Engine[T], error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	h, p, err := checkpoint.ReadFile[T](path, v.Expect())
	if err != nil {
		return nil, err
	}
	e, err := fromSnapshot(v, h, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

func fromSnapshot[T any](v Variant[T], h checkpoint.Header, p checkpoint.Payload[T]) (*Engine[T], error) {
	if h.Identity.Layout != v.layout() {
		return nil, &checkpoint.MismatchError{Field: "layout", Want: v.layout(), Got: h.Identity.Layout}
	}
	start, err := parseInitial(v.Arith, h.Identity.Initial)
	if err != nil {
		return nil, fmt.Errorf("%w: initial configuration: %w", checkpoint.ErrCorrupt, err)
	}
	domain, err := grid.FromCells(v.Arith, v.Symmetry, v.Dim, p.Side, p.Cells)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", checkpoint.ErrCorrupt, err)
	}

	e := newEngine(v, start)
	e.domain = domain
	e.step = p.Step
	e.boundsReached = p.BoundsReached
	e.changed = p.Changed
	e.changedKnown = p.ChangedKnown
	return e, nil
}
