package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/topple/internal/sim"
)

type ExportData struct {
	Run   RunMetadata   `json:"run"`
	Trace []ExportPoint `json:"trace"`
}

// ExportPoint is one trace row. Big values are decimal strings.
type ExportPoint struct {
	Step    int64  `json:"step"`
	Side    int    `json:"side"`
	Cells   int    `json:"cells"`
	Active  string `json:"active"`
	Mass    string `json:"mass"`
	Min     string `json:"min"`
	Max     string `json:"max"`
	Changed bool   `json:"changed"`
	Grew    bool   `json:"grew"`
}

func ExportJSON(w io.Writer, meta RunMetadata, trace []sim.Sample) error {
	data := ExportData{Run: meta, Trace: make([]ExportPoint, len(trace))}
	for i, s := range trace {
		data.Trace[i] = ExportPoint{
			Step:    s.Step,
			Side:    s.Side,
			Cells:   s.Cells,
			Active:  bigString(s.Active),
			Mass:    bigString(s.Mass),
			Min:     bigString(s.Min),
			Max:     bigString(s.Max),
			Changed: s.Changed,
			Grew:    s.Grew,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, trace []sim.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, trace)
}
