package lattice

import (
	"fmt"
	"math/big"
	"strings"
)

// Coord is a lattice coordinate, one integer per axis.
type Coord []int

func (c Coord) Clone() Coord {
	out := make(Coord, len(c))
	copy(out, c)
	return out
}

func (c Coord) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Symmetry identifies the group under which a configuration is invariant.
type Symmetry uint8

const (
	// Hyperoctahedral allows every axis permutation and sign flip. Canonical
	// coordinates satisfy c[0] >= c[1] >= ... >= c[D-1] >= 0.
	Hyperoctahedral Symmetry = iota
	// Reflective allows sign flips only. Canonical coordinates satisfy
	// c[i] >= 0 for every axis.
	Reflective
)

func (s Symmetry) String() string {
	switch s {
	case Hyperoctahedral:
		return "hyperoctahedral"
	case Reflective:
		return "reflective"
	default:
		return fmt.Sprintf("symmetry(%d)", uint8(s))
	}
}

func ParseSymmetry(name string) (Symmetry, error) {
	switch strings.ToLower(name) {
	case "hyperoctahedral", "full", "":
		return Hyperoctahedral, nil
	case "reflective", "orthant":
		return Reflective, nil
	}
	return 0, fmt.Errorf("unknown symmetry: %s", name)
}

// Transform records how a coordinate was folded. Negated is indexed by the
// original axis. Perm[i] is the original axis that landed at canonical
// position i.
type Transform struct {
	Negated []bool
	Perm    []int
}

// Apply maps a canonical coordinate back into the original orientation.
func (t Transform) Apply(canonical Coord) Coord {
	out := make(Coord, len(canonical))
	for i, axis := range t.Perm {
		v := canonical[i]
		if t.Negated[axis] {
			v = -v
		}
		out[axis] = v
	}
	return out
}

// Fold returns the canonical representative of c together with the
// transform that reproduces c from it.
func (s Symmetry) Fold(c Coord) (Coord, Transform) {
	d := len(c)
	t := Transform{Negated: make([]bool, d), Perm: make([]int, d)}
	abs := make([]int, d)
	for i, v := range c {
		if v < 0 {
			t.Negated[i] = true
			v = -v
		}
		abs[i] = v
		t.Perm[i] = i
	}
	if s == Hyperoctahedral {
		// stable insertion sort keeps the permutation deterministic for ties
		for i := 1; i < d; i++ {
			for j := i; j > 0 && abs[t.Perm[j]] > abs[t.Perm[j-1]]; j-- {
				t.Perm[j], t.Perm[j-1] = t.Perm[j-1], t.Perm[j]
			}
		}
	}
	canon := make(Coord, d)
	for i, axis := range t.Perm {
		canon[i] = abs[axis]
	}
	return canon, t
}

// FoldInto writes the canonical form of src into dst without allocating.
// dst and src may alias.
func (s Symmetry) FoldInto(dst, src []int) {
	for i, v := range src {
		if v < 0 {
			v = -v
		}
		dst[i] = v
	}
	if s != Hyperoctahedral {
		return
	}
	for i := 1; i < len(dst); i++ {
		v := dst[i]
		j := i
		for ; j > 0 && dst[j-1] < v; j-- {
			dst[j] = dst[j-1]
		}
		dst[j] = v
	}
}

// IsCanonical reports whether c is its own canonical representative.
func (s Symmetry) IsCanonical(c []int) bool {
	for i, v := range c {
		if v < 0 {
			return false
		}
		if s == Hyperoctahedral && i > 0 && v > c[i-1] {
			return false
		}
	}
	return true
}

// Extent returns the largest absolute coordinate of a canonical coordinate.
func (s Symmetry) Extent(canonical []int) int {
	if len(canonical) == 0 {
		return 0
	}
	if s == Hyperoctahedral {
		return canonical[0]
	}
	return MaxAbs(canonical)
}

// MaxAbs returns max_i |c[i]|.
func MaxAbs(c []int) int {
	m := 0
	for _, v := range c {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

// OrbitSize returns the number of lattice cells that fold onto the given
// canonical coordinate.
func (s Symmetry) OrbitSize(canonical []int) *big.Int {
	nonzero := 0
	for _, v := range canonical {
		if v != 0 {
			nonzero++
		}
	}
	size := new(big.Int).Lsh(big.NewInt(1), uint(nonzero))
	if s != Hyperoctahedral {
		return size
	}
	// distinct arrangements of the multiset of absolute values
	perms := new(big.Int).MulRange(1, int64(len(canonical)))
	run := 1
	for i := 1; i <= len(canonical); i++ {
		if i < len(canonical) && canonical[i] == canonical[i-1] {
			run++
			continue
		}
		if run > 1 {
			perms.Quo(perms, new(big.Int).MulRange(1, int64(run)))
		}
		run = 1
	}
	return size.Mul(size, perms)
}
