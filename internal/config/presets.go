package config

import "sort"

var Presets = map[string]map[string]*Config{
	"sunflower": {
		"pile": {
			Model: "sunflower", Grid: "2d_infinite", Numeric: "int64", Symmetry: "hyperoctahedral",
			Initial: "single-source_100000", UntilStable: true,
		},
		"pile-3d": {
			Model: "sunflower", Grid: "3d_infinite", Numeric: "int64", Symmetry: "hyperoctahedral",
			Initial: "single-source_1000000", Steps: 2000,
		},
		"background": {
			Model: "sunflower", Grid: "2d_infinite", Numeric: "int64", Symmetry: "hyperoctahedral",
			Initial: "single-source_50000_3", Steps: 500,
		},
		"slow": {
			Model: "sunflower", Grid: "2d_infinite", Numeric: "int64", Symmetry: "hyperoctahedral",
			Divisor: 12, Initial: "single-source_100000", UntilStable: true,
		},
	},
	"aether": {
		"hole": {
			Model: "aether", Grid: "2d_infinite", Numeric: "int64", Symmetry: "hyperoctahedral",
			Initial: "single-source_-250000", Steps: 1000,
		},
		"random": {
			Model: "aether", Grid: "2d_infinite", Numeric: "int64", Symmetry: "reflective",
			Initial: "random-region_21_-100_100_1", UntilStable: true,
		},
		"deep-4d": {
			Model: "aether", Grid: "4d_infinite", Numeric: "bigint", Symmetry: "hyperoctahedral",
			Initial: "single-source_-1000000000000000000000", Steps: 200,
			Checkpoint: CheckpointConfig{EverySteps: 50},
		},
	},
}

// GetPreset returns a copy of the named preset with default logging, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	out := *cfg
	if out.Log == (LogConfig{}) {
		out.Log = DefaultConfig().Log
	}
	return &out
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
