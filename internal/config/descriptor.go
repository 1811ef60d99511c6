package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParseGrid reads a grid descriptor such as "3d_infinite".
func ParseGrid(s string) (int, error) {
	dims, kind, ok := strings.Cut(strings.ToLower(s), "_")
	if !ok || kind != "infinite" || !strings.HasSuffix(dims, "d") {
		return 0, fmt.Errorf("invalid grid %q: want {D}d_infinite", s)
	}
	d, err := strconv.Atoi(strings.TrimSuffix(dims, "d"))
	if err != nil || d < 1 {
		return 0, fmt.Errorf("invalid grid %q: bad dimension", s)
	}
	return d, nil
}

// GridName is the inverse of ParseGrid.
func GridName(dim int) string {
	return fmt.Sprintf("%dd_infinite", dim)
}

const (
	SingleSource = "single-source"
	RandomRegion = "random-region"
)

// InitialSpec is a parsed initial configuration descriptor. Source and
// Background stay decimal strings so that values beyond int64 survive until
// the numeric representation is known.
type InitialSpec struct {
	Kind       string
	Source     string
	Background string

	Side int
	Min  int64
	Max  int64
	Seed uint64
}

// ParseInitial reads "single-source_{value}[_{background}]" or
// "random-region_{side}_{min}_{max}[_{seed}]". Values may be negative.
func ParseInitial(s string) (InitialSpec, error) {
	switch {
	case strings.HasPrefix(s, SingleSource+"_"):
		parts := strings.Split(strings.TrimPrefix(s, SingleSource+"_"), "_")
		if len(parts) < 1 || len(parts) > 2 {
			return InitialSpec{}, fmt.Errorf("invalid initial %q: want %s_{value}[_{background}]", s, SingleSource)
		}
		spec := InitialSpec{Kind: SingleSource, Source: parts[0], Background: "0"}
		if len(parts) == 2 {
			spec.Background = parts[1]
		}
		for _, v := range []string{spec.Source, spec.Background} {
			if _, ok := new(big.Int).SetString(v, 10); !ok {
				return InitialSpec{}, fmt.Errorf("invalid initial %q: %q is not an integer", s, v)
			}
		}
		return spec, nil

	case strings.HasPrefix(s, RandomRegion+"_"):
		parts := strings.Split(strings.TrimPrefix(s, RandomRegion+"_"), "_")
		if len(parts) < 3 || len(parts) > 4 {
			return InitialSpec{}, fmt.Errorf("invalid initial %q: want %s_{side}_{min}_{max}[_{seed}]", s, RandomRegion)
		}
		spec := InitialSpec{Kind: RandomRegion}
		var err error
		if spec.Side, err = strconv.Atoi(parts[0]); err != nil {
			return InitialSpec{}, fmt.Errorf("invalid initial %q: side: %w", s, err)
		}
		if spec.Min, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
			return InitialSpec{}, fmt.Errorf("invalid initial %q: min: %w", s, err)
		}
		if spec.Max, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
			return InitialSpec{}, fmt.Errorf("invalid initial %q: max: %w", s, err)
		}
		if len(parts) == 4 {
			if spec.Seed, err = strconv.ParseUint(parts[3], 10, 64); err != nil {
				return InitialSpec{}, fmt.Errorf("invalid initial %q: seed: %w", s, err)
			}
		}
		return spec, nil
	}
	return InitialSpec{}, fmt.Errorf("unknown initial configuration %q", s)
}

func (s InitialSpec) String() string {
	if s.Kind == RandomRegion {
		return fmt.Sprintf("%s_%d_%d_%d_%d", RandomRegion, s.Side, s.Min, s.Max, s.Seed)
	}
	if s.Background == "" || s.Background == "0" {
		return fmt.Sprintf("%s_%s", SingleSource, s.Source)
	}
	return fmt.Sprintf("%s_%s_%s", SingleSource, s.Source, s.Background)
}

// Folder names the initial configuration without its background.
func (s InitialSpec) Folder() string {
	if s.Kind == RandomRegion {
		return s.String()
	}
	return fmt.Sprintf("%s_%s", SingleSource, s.Source)
}

func (s InitialSpec) BackgroundFolder() string {
	bg := s.Background
	if bg == "" {
		bg = "0"
	}
	return "background_" + bg
}
