// Package rules implements the local toppling rules. A rule looks at one
// cell and its axis neighbours and decides how much the cell keeps and how
// much each neighbour receives.
package rules

import (
	"fmt"
	"strings"

	"github.com/san-kum/topple/internal/numeric"
)

// Rule computes one cell's toppling. shares has one slot per neighbour and
// is overwritten. keep plus the sum of shares always equals value, and a
// cell whose neighbours all hold its own value keeps everything.
//
// toppled reports whether any share is non-zero.
type Rule[T any] interface {
	Name() string
	Topple(value T, neighbors []T, shares []T) (keep T, toppled bool, err error)
}

// Names lists the rules known to New.
func Names() []string { return []string{SunflowerName, AetherName} }

// Params configures rule construction.
type Params struct {
	// Divisor overrides the Sunflower divisor. Zero selects 2D+1.
	Divisor int64
}

// New builds the named rule for a lattice of the given dimension.
func New[T any](name string, ar numeric.Arith[T], dim int, p Params) (Rule[T], error) {
	switch strings.ToLower(name) {
	case SunflowerName:
		r, err := NewSunflower(ar, dim, p.Divisor)
		if err != nil {
			return nil, err
		}
		return r, nil
	case AetherName:
		return NewAether(ar, dim), nil
	}
	return nil, fmt.Errorf("unknown rule: %s", name)
}

func clearShares[T any](ar numeric.Arith[T], shares []T) {
	z := ar.Zero()
	for i := range shares {
		shares[i] = z
	}
}
