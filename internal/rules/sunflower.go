package rules

import (
	"fmt"

	"github.com/san-kum/topple/internal/numeric"
)

const SunflowerName = "sunflower"

// Sunflower splits value/N to every neighbour whose value differs from the
// cell. Shares meant for equal neighbours stay in the cell.
type Sunflower[T any] struct {
	ar      numeric.Arith[T]
	divisor int64
}

// NewSunflower returns the rule with divisor N. N = 0 selects 2D+1; any other
// N below 2D would let a cell give away more than it holds.
func NewSunflower[T any](ar numeric.Arith[T], dim int, divisor int64) (*Sunflower[T], error) {
	if divisor == 0 {
		divisor = int64(2*dim + 1)
	}
	if divisor < int64(2*dim) {
		return nil, fmt.Errorf("sunflower divisor %d below neighbour count %d", divisor, 2*dim)
	}
	return &Sunflower[T]{ar: ar, divisor: divisor}, nil
}

func (s *Sunflower[T]) Name() string   { return SunflowerName }
func (s *Sunflower[T]) Divisor() int64 { return s.divisor }

func (s *Sunflower[T]) Topple(value T, neighbors []T, shares []T) (T, bool, error) {
	clearShares(s.ar, shares)

	given := 0
	for _, n := range neighbors {
		if s.ar.Cmp(n, value) != 0 {
			given++
		}
	}
	if given == 0 {
		return value, false, nil
	}

	share, _ := s.ar.QuoRem(value, s.divisor)
	if s.ar.Sign(share) == 0 {
		return value, false, nil
	}
	for i, n := range neighbors {
		if s.ar.Cmp(n, value) != 0 {
			shares[i] = share
		}
	}
	out, err := s.ar.MulInt(share, int64(given))
	if err != nil {
		return value, false, err
	}
	keep, err := s.ar.Sub(value, out)
	if err != nil {
		return value, false, err
	}
	return keep, true, nil
}
