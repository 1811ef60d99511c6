package lattice

// Neighborhood holds the 2·D axis neighbours of one cell. Neighbour k is
// the cell displaced by +1 (k even) or -1 (k odd) along axis k/2.
//
// A Neighborhood is reused across cells; Load overwrites every field.
type Neighborhood struct {
	sym Symmetry
	dim int

	// Raw[k] is the unfolded neighbour coordinate.
	Raw [][]int
	// Folded[k] is the canonical form of Raw[k].
	Folded [][]int
	// First[k] is the lowest index j such that Folded[j] equals Folded[k].
	// First[k] != k marks a neighbour that merges with an earlier one under
	// the symmetry, such as (1,1) and (1,-1) around (1,0).
	First []int
}

func NewNeighborhood(sym Symmetry, dim int) *Neighborhood {
	n := &Neighborhood{
		sym:    sym,
		dim:    dim,
		Raw:    make([][]int, 2*dim),
		Folded: make([][]int, 2*dim),
		First:  make([]int, 2*dim),
	}
	for k := range n.Raw {
		n.Raw[k] = make([]int, dim)
		n.Folded[k] = make([]int, dim)
	}
	return n
}

func (n *Neighborhood) Len() int { return 2 * n.dim }

// Axis returns the axis and direction of neighbour k.
func Axis(k int) (axis, dir int) {
	if k%2 == 0 {
		return k / 2, 1
	}
	return k / 2, -1
}

// Load computes the neighbours of c.
func (n *Neighborhood) Load(c []int) {
	for k := range n.Raw {
		axis, dir := Axis(k)
		raw := n.Raw[k]
		copy(raw, c)
		raw[axis] += dir
		n.sym.FoldInto(n.Folded[k], raw)
		n.First[k] = k
		for j := 0; j < k; j++ {
			if n.First[j] == j && equal(n.Folded[j], n.Folded[k]) {
				n.First[k] = j
				break
			}
		}
	}
}

// Neighbors returns the folded axis neighbours of c and, for each, whether
// it folds onto the same canonical cell as an earlier neighbour.
func (s Symmetry) Neighbors(c Coord) ([]Coord, []bool) {
	n := NewNeighborhood(s, len(c))
	n.Load(c)
	out := make([]Coord, n.Len())
	merged := make([]bool, n.Len())
	for k := range out {
		out[k] = Coord(n.Folded[k]).Clone()
		merged[k] = n.First[k] != k
	}
	return out, merged
}

func equal(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
