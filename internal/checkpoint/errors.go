package checkpoint

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatible indicates a readable checkpoint written by a different
	// model, dimension, representation or format.
	ErrIncompatible = errors.New("checkpoint: incompatible snapshot")

	// ErrCorrupt indicates bytes that cannot be decoded or whose contents
	// contradict their own header.
	ErrCorrupt = errors.New("checkpoint: corrupt snapshot")
)

// MismatchError names the identity field that failed validation.
type MismatchError struct {
	Field string
	Want  any
	Got   any
}

func mismatch(field string, want, got any) *MismatchError {
	return &MismatchError{Field: field, Want: want, Got: got}
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checkpoint: %s mismatch: want %v, got %v", e.Field, e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error { return ErrIncompatible }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
