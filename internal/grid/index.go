package grid

import "github.com/san-kum/topple/internal/lattice"

// indexer maps a canonical coordinate to its slot inside shell c[0].
type indexer interface {
	shellLen(x int) int
	offset(c []int) int
	// stable reports whether offsets are independent of side, in which case
	// growth can keep existing shells untouched.
	stable() bool
}

func newIndexer(sym lattice.Symmetry, dim, side int) indexer {
	if sym == lattice.Hyperoctahedral {
		return newSimplexIndex(dim, side)
	}
	return newBoxIndex(dim, side)
}

// simplexIndex numbers the non-increasing tuples (c[1], ..., c[D-1]) with
// c[1] <= c[0]. Slot = sum over i >= 1 of C(c[i]+D-i-1, D-i), the count of
// smaller tuples.
type simplexIndex struct {
	dim int
	// pc[d][s] = C(s+d-1, d): non-increasing d-tuples with entries below s.
	pc [][]int
}

func newSimplexIndex(dim, side int) *simplexIndex {
	pc := make([][]int, dim)
	for d := range pc {
		pc[d] = make([]int, side+1)
		for s := range pc[d] {
			switch {
			case d == 0:
				pc[d][s] = 1
			case s == 0:
				pc[d][s] = 0
			default:
				pc[d][s] = pc[d][s-1] + pc[d-1][s]
			}
		}
	}
	return &simplexIndex{dim: dim, pc: pc}
}

func (ix *simplexIndex) shellLen(x int) int { return ix.pc[ix.dim-1][x+1] }

func (ix *simplexIndex) offset(c []int) int {
	off := 0
	for i := 1; i < ix.dim; i++ {
		off += ix.pc[ix.dim-i][c[i]]
	}
	return off
}

func (ix *simplexIndex) stable() bool { return true }

// boxIndex numbers (c[1], ..., c[D-1]) in [0, side)^(D-1) row-major.
type boxIndex struct {
	dim    int
	side   int
	stride []int
}

func newBoxIndex(dim, side int) *boxIndex {
	stride := make([]int, dim)
	acc := 1
	for i := dim - 1; i >= 1; i-- {
		stride[i] = acc
		acc *= side
	}
	stride[0] = acc
	return &boxIndex{dim: dim, side: side, stride: stride}
}

func (ix *boxIndex) shellLen(int) int { return ix.stride[0] }

func (ix *boxIndex) offset(c []int) int {
	off := 0
	for i := 1; i < ix.dim; i++ {
		off += c[i] * ix.stride[i]
	}
	return off
}

func (ix *boxIndex) stable() bool { return ix.dim == 1 }
