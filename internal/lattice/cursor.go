package lattice

// Cursor walks coordinates in lexicographic order, last axis fastest.
//
// A plain cursor visits every canonical coordinate with extent < side. An
// extended cursor also visits the mirror cells directly outside the
// fundamental domain: every entry may be -1, and for the hyperoctahedral
// group an entry may exceed its predecessor by one. Every lattice edge that
// ends on a canonical cell starts at exactly one visited cell, so a step that
// pushes along edges from visited cells and keeps only canonical writes
// reproduces the full lattice update.
type Cursor struct {
	sym      Symmetry
	side     int
	lo       int
	c        []int
	started  bool
	finished bool
}

func NewCursor(sym Symmetry, dim, side int) *Cursor {
	return newCursor(sym, dim, side, 0)
}

func NewExtendedCursor(sym Symmetry, dim, side int) *Cursor {
	return newCursor(sym, dim, side, -1)
}

func newCursor(sym Symmetry, dim, side, lo int) *Cursor {
	cur := &Cursor{sym: sym, side: side, lo: lo, c: make([]int, dim)}
	if side <= 0 || dim <= 0 {
		cur.finished = true
	}
	return cur
}

// Coord returns the current coordinate. The slice is reused by Next.
func (cur *Cursor) Coord() []int { return cur.c }

func (cur *Cursor) upper(axis int) int {
	if axis == 0 || cur.sym != Hyperoctahedral {
		return cur.side - 1
	}
	if cur.lo < 0 {
		return cur.c[axis-1] + 1
	}
	return cur.c[axis-1]
}

// Next advances to the following coordinate and reports whether one exists.
func (cur *Cursor) Next() bool {
	if cur.finished {
		return false
	}
	if !cur.started {
		cur.started = true
		for i := range cur.c {
			cur.c[i] = cur.lo
		}
		return true
	}
	for axis := len(cur.c) - 1; axis >= 0; axis-- {
		if cur.c[axis] < cur.upper(axis) {
			cur.c[axis]++
			for j := axis + 1; j < len(cur.c); j++ {
				cur.c[j] = cur.lo
			}
			return true
		}
	}
	cur.finished = true
	return false
}
