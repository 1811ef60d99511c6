package rules

import (
	"sort"

	"github.com/san-kum/topple/internal/numeric"
)

const AetherName = "aether"

// Aether levels a cell against its lower neighbours. Neighbours are taken
// from the highest lower value down; at each distinct value the excess above
// it is split evenly among the cell and every neighbour not yet passed.
type Aether[T any] struct {
	ar  numeric.Arith[T]
	rel []int
}

func NewAether[T any](ar numeric.Arith[T], dim int) *Aether[T] {
	return &Aether[T]{ar: ar, rel: make([]int, 0, 2*dim)}
}

func (a *Aether[T]) Name() string { return AetherName }

func (a *Aether[T]) Topple(value T, neighbors []T, shares []T) (T, bool, error) {
	clearShares(a.ar, shares)

	rel := a.rel[:0]
	for i, n := range neighbors {
		if a.ar.Cmp(n, value) < 0 {
			rel = append(rel, i)
		}
	}
	if len(rel) == 0 {
		return value, false, nil
	}
	sort.SliceStable(rel, func(i, j int) bool {
		return a.ar.Cmp(neighbors[rel[i]], neighbors[rel[j]]) > 0
	})

	toppled := false
	count := int64(len(rel) + 1)
	var prev T
	for j, idx := range rel {
		n := neighbors[idx]
		if j == 0 || a.ar.Cmp(n, prev) != 0 {
			excess, err := a.ar.Sub(value, n)
			if err != nil {
				return value, false, err
			}
			share, rem := a.ar.QuoRem(excess, count)
			if a.ar.Sign(share) != 0 {
				toppled = true
				for _, k := range rel[j:] {
					if shares[k], err = a.ar.Add(shares[k], share); err != nil {
						return value, false, err
					}
				}
				if value, err = a.ar.Add(n, rem); err != nil {
					return value, false, err
				}
				if value, err = a.ar.Add(value, share); err != nil {
					return value, false, err
				}
			}
			prev = n
		}
		count--
	}
	a.rel = rel
	return value, toppled, nil
}
