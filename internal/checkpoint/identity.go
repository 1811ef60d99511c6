// Package checkpoint reads and writes engine snapshots.
//
// A checkpoint is a zstd stream holding one JSON header line followed by a
// gob-encoded payload. The header names the model that produced the payload
// so that a restore can refuse an incompatible file before decoding cells,
// and so tools can list checkpoints without decoding them.
package checkpoint

import "time"

// FormatVersion is bumped whenever the payload layout changes.
const FormatVersion = 1

// Storage layout and growth scheme tags.
const (
	LayoutSimplexShells = "simplex-shells"
	LayoutBoxShells     = "box-shells"
	BoundsReachedFlag   = "bounds-reached-flag"
)

// Initial describes the initial configuration. Values are decimal strings so
// that the same header serves every numeric representation.
type Initial struct {
	Type       string `json:"type"`
	Source     string `json:"source,omitempty"`
	Background string `json:"background,omitempty"`
	Side       int    `json:"side,omitempty"`
	Min        int64  `json:"min,omitempty"`
	Max        int64  `json:"max,omitempty"`
	Seed       uint64 `json:"seed,omitempty"`
}

// Identity is the compatibility tag of a snapshot.
type Identity struct {
	Model     string  `json:"model"`
	Dimension int     `json:"dimension"`
	Numeric   string  `json:"numeric"`
	Symmetry  string  `json:"symmetry"`
	Layout    string  `json:"layout"`
	Bounds    string  `json:"bounds"`
	Divisor   int64   `json:"divisor,omitempty"`
	Initial   Initial `json:"initial"`
}

type Header struct {
	Format   int       `json:"format"`
	Identity Identity  `json:"identity"`
	Step     int64     `json:"step"`
	Side     int       `json:"side"`
	Cells    int       `json:"cells"`
	SavedAt  time.Time `json:"saved_at"`
}

// Payload is the mutable engine state.
type Payload[T any] struct {
	Step          int64
	Side          int
	BoundsReached bool
	Changed       bool
	ChangedKnown  bool
	Cells         []T
}

// Expect lists the identity fields a restoring engine insists on. Empty
// strings and zero values are not checked.
type Expect struct {
	Model     string
	Dimension int
	Numeric   string
	Symmetry  string
	Divisor   int64
}

// Check compares the header against want and the formats this package
// understands.
func (h Header) Check(want Expect) error {
	id := h.Identity
	switch {
	case h.Format != FormatVersion:
		return mismatch("format", FormatVersion, h.Format)
	case want.Model != "" && id.Model != want.Model:
		return mismatch("model", want.Model, id.Model)
	case want.Dimension != 0 && id.Dimension != want.Dimension:
		return mismatch("dimension", want.Dimension, id.Dimension)
	case want.Numeric != "" && id.Numeric != want.Numeric:
		return mismatch("numeric", want.Numeric, id.Numeric)
	case want.Symmetry != "" && id.Symmetry != want.Symmetry:
		return mismatch("symmetry", want.Symmetry, id.Symmetry)
	case want.Divisor != 0 && id.Divisor != want.Divisor:
		return mismatch("divisor", want.Divisor, id.Divisor)
	case id.Layout != LayoutSimplexShells && id.Layout != LayoutBoxShells:
		return mismatch("layout", LayoutSimplexShells+"|"+LayoutBoxShells, id.Layout)
	case id.Bounds != BoundsReachedFlag:
		return mismatch("bounds", BoundsReachedFlag, id.Bounds)
	}
	return nil
}
