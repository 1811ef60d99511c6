// Package export writes slices and traces as SVG images.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/topple/internal/sim"
	"github.com/san-kum/topple/internal/viz"
)

// SliceToSVG draws every non-background cell of s as a square of side cell
// pixels, coloured like the terminal view.
func SliceToSVG(s viz.Slice, t viz.Theme, cell float64) string {
	cols := 2*s.Radius + 1
	width := float64(cols) * cell
	height := float64(len(s.Rows)) * cell

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, string(t.Zero)))

	for y, row := range s.Rows {
		for x, v := range row {
			c, ok := s.Color(v, t)
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s</title></rect>
`, float64(x)*cell, float64(y)*cell, cell, cell, string(c), v.String()))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TraceToSVG plots one trace column against the step number.
func TraceToSVG(trace []sim.Sample, f viz.Field, width, height int, strokeColor string) string {
	if len(trace) < 2 {
		return ""
	}
	ys := viz.Series(trace, f)

	minX, maxX := float64(trace[0].Step), float64(trace[len(trace)-1].Step)
	minY, maxY := ys[0], ys[0]
	for _, y := range ys {
		minY = min(minY, y)
		maxY = max(maxY, y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<title>%s</title>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, f, strokeColor))

	for i, s := range trace {
		x := (float64(s.Step) - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteFile writes svg to path, or to w when path is "-".
func WriteFile(path string, w io.Writer, svg string) error {
	if path == "-" {
		_, err := io.WriteString(w, svg)
		return err
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
