// Package lattice provides coordinate geometry for symmetric hypercubic
// lattices of arbitrary dimension.
//
// A configuration that is invariant under a symmetry group only needs one
// stored value per orbit. The package maps any coordinate to the canonical
// member of its orbit and back:
//
//   - [Symmetry]: the symmetry group (hyperoctahedral or reflective)
//   - [Transform]: the sign flips and permutation produced by folding
//   - [Cursor]: ordered traversal of the fundamental domain
//   - [Neighborhood]: axis neighbours of a cell, folded
//
// # Example
//
//	canon, tr := lattice.Hyperoctahedral.Fold([]int{-3, 5, 0})
//	// canon == [5 3 0]
//	orig := tr.Apply(canon)
//	// orig == [-3 5 0]
//
// Values of type Coord are plain slices; functions never retain them.
package lattice
