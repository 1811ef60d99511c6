package viz

import (
	"math/big"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/topple/internal/automaton"
)

// Slice is a square cut through the lattice spanned by the first two axes,
// centred on the origin. Further axes are held at Offset. A one dimensional
// lattice gives a single row.
type Slice struct {
	Radius     int
	Offset     []int
	Rows       [][]*big.Int
	Background *big.Int
	// Spread is the largest |value - background| in the slice.
	Spread *big.Int
}

// TakeSlice reads the slice of m within radius of the origin. offset sets
// axes 2 and up and may be shorter than needed.
func TakeSlice(m automaton.Model, radius int, offset []int) Slice {
	dim := m.Dim()
	s := Slice{
		Radius:     radius,
		Offset:     offset,
		Background: m.BackgroundValue(),
		Spread:     new(big.Int),
	}
	c := make([]int, dim)
	for i := 2; i < dim && i-2 < len(offset); i++ {
		c[i] = offset[i-2]
	}

	rows := 2*radius + 1
	if dim == 1 {
		rows = 1
	}
	diff := new(big.Int)
	for r := 0; r < rows; r++ {
		row := make([]*big.Int, 0, 2*radius+1)
		if dim > 1 {
			c[1] = radius - r
		}
		for x := -radius; x <= radius; x++ {
			c[0] = x
			v := m.Value(c)
			row = append(row, v)
			diff.Sub(v, s.Background)
			if diff.CmpAbs(s.Spread) > 0 {
				s.Spread.Abs(diff)
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// level maps v to -n..n where n is the ramp length; zero is background.
func (s Slice) level(v *big.Int, n int) int {
	d := new(big.Int).Sub(v, s.Background)
	if d.Sign() == 0 || s.Spread.Sign() == 0 {
		return 0
	}
	ratio, _ := new(big.Rat).SetFrac(new(big.Int).Abs(d), s.Spread).Float64()
	l := int(ratio*float64(n-1)) + 1
	if d.Sign() < 0 {
		return -l
	}
	return l
}

// Color picks the colour of v in t. ok is false for background cells,
// which get t.Zero.
func (s Slice) Color(v *big.Int, t Theme) (c lipgloss.Color, ok bool) {
	l := s.level(v, len(t.Hot))
	switch {
	case l > 0:
		return t.Hot[l-1], true
	case l < 0:
		return t.Cold[-l-1], true
	}
	return t.Zero, false
}

// Render draws two terminal columns per cell coloured by t.
func (s Slice) Render(t Theme) string {
	var b strings.Builder
	for _, row := range s.Rows {
		for _, v := range row {
			c, ok := s.Color(v, t)
			switch {
			case !ok:
				b.WriteString(lipgloss.NewStyle().Foreground(c).Render("· "))
			case v.Cmp(s.Background) > 0:
				b.WriteString(lipgloss.NewStyle().Foreground(c).Render("██"))
			default:
				b.WriteString(lipgloss.NewStyle().Foreground(c).Render("▓▓"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Braille draws every non-background cell as one dot.
func (s Slice) Braille() string {
	width := 2*s.Radius + 1
	c := NewCanvas(width, len(s.Rows))
	for y, row := range s.Rows {
		for x, v := range row {
			if v.Cmp(s.Background) != 0 {
				c.Set(x, y)
			}
		}
	}
	return c.String()
}
