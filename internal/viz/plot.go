package viz

import (
	"fmt"
	"math/big"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/topple/internal/sim"
)

// Field selects a trace column for plotting.
type Field string

const (
	FieldMass   Field = "mass"
	FieldActive Field = "active"
	FieldSide   Field = "side"
	FieldCells  Field = "cells"
	FieldMin    Field = "min"
	FieldMax    Field = "max"
)

var Fields = []Field{FieldActive, FieldMass, FieldSide, FieldCells, FieldMin, FieldMax}

func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field: %s", s)
}

// Series extracts one column of a trace as float64.
func Series(trace []sim.Sample, f Field) []float64 {
	out := make([]float64, 0, len(trace))
	for _, s := range trace {
		var v float64
		switch f {
		case FieldMass:
			v = toFloat(s.Mass)
		case FieldActive:
			v = toFloat(s.Active)
		case FieldSide:
			v = float64(s.Side)
		case FieldCells:
			v = float64(s.Cells)
		case FieldMin:
			v = toFloat(s.Min)
		case FieldMax:
			v = toFloat(s.Max)
		}
		out = append(out, v)
	}
	return out
}

// PlotTrace charts field over the steps of trace.
func PlotTrace(trace []sim.Sample, f Field, width, height int) string {
	data := Series(trace, f)
	if len(data) == 0 {
		return ""
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	caption := string(f)
	if len(trace) > 0 {
		caption = fmt.Sprintf("%s, steps %d to %d", f, trace[0].Step, trace[len(trace)-1].Step)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
