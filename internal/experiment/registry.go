package experiment

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
)

// Spec is a fully parsed automaton description.
type Spec struct {
	Model    string
	Dim      int
	Numeric  numeric.Kind
	Symmetry lattice.Symmetry
	Divisor  int64
	Initial  config.InitialSpec
}

// SpecFromConfig parses the descriptors of cfg.
func SpecFromConfig(cfg *config.Config) (Spec, error) {
	if err := cfg.Validate(); err != nil {
		return Spec{}, err
	}
	dim, _ := cfg.Dimension()
	kind, _ := numeric.ParseKind(cfg.Numeric)
	sym, _ := lattice.ParseSymmetry(cfg.Symmetry)
	in, _ := config.ParseInitial(cfg.Initial)
	return Spec{
		Model:    cfg.Model,
		Dim:      dim,
		Numeric:  kind,
		Symmetry: sym,
		Divisor:  cfg.Divisor,
		Initial:  in,
	}, nil
}

// ConfigFromIdentity reconstructs the configuration that produced a
// checkpoint. Run settings such as steps keep their defaults.
func ConfigFromIdentity(id checkpoint.Identity) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Model = id.Model
	cfg.Grid = config.GridName(id.Dimension)
	cfg.Numeric = id.Numeric
	cfg.Symmetry = id.Symmetry
	cfg.Initial = initialSpec(id.Initial).String()
	if id.Model == rules.SunflowerName && id.Divisor != int64(2*id.Dimension+1) {
		cfg.Divisor = id.Divisor
	}
	return cfg
}

func initialSpec(in checkpoint.Initial) config.InitialSpec {
	if in.Type == config.RandomRegion {
		return config.InitialSpec{Kind: config.RandomRegion, Side: in.Side, Min: in.Min, Max: in.Max, Seed: in.Seed}
	}
	return config.InitialSpec{Kind: config.SingleSource, Source: in.Source, Background: in.Background}
}

type factory struct {
	build   func(s Spec) (automaton.Model, error)
	restore func(path string, s Spec) (automaton.Model, error)
}

// Registry maps numeric representations to typed engine construction, so
// callers can work with automaton.Model alone.
type Registry struct {
	numerics map[numeric.Kind]factory
}

func NewRegistry() *Registry {
	r := &Registry{numerics: make(map[numeric.Kind]factory)}
	r.numerics[numeric.Int64] = newFactory[int64](numeric.Checked{})
	r.numerics[numeric.BigInt] = newFactory[*big.Int](numeric.Big{})
	return r
}

func newFactory[T any](ar numeric.Arith[T]) factory {
	return factory{
		build: func(s Spec) (automaton.Model, error) {
			v, err := variant(ar, s)
			if err != nil {
				return nil, err
			}
			start, err := initial(ar, s.Initial)
			if err != nil {
				return nil, err
			}
			e, err := automaton.New(v, start)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
		restore: func(path string, s Spec) (automaton.Model, error) {
			v, err := variant(ar, s)
			if err != nil {
				return nil, err
			}
			e, err := automaton.Restore(path, v)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
	}
}

func variant[T any](ar numeric.Arith[T], s Spec) (automaton.Variant[T], error) {
	rule, err := rules.New(s.Model, ar, s.Dim, rules.Params{Divisor: s.Divisor})
	if err != nil {
		return automaton.Variant[T]{}, fmt.Errorf("%w: %w", automaton.ErrInvalidConfig, err)
	}
	return automaton.Variant[T]{Dim: s.Dim, Symmetry: s.Symmetry, Arith: ar, Rule: rule}, nil
}

func initial[T any](ar numeric.Arith[T], in config.InitialSpec) (automaton.Initial[T], error) {
	if in.Kind == config.RandomRegion {
		return automaton.RandomRegion[T](automaton.Region{Side: in.Side, Min: in.Min, Max: in.Max, Seed: in.Seed}), nil
	}
	src, err := ar.Parse(in.Source)
	if err != nil {
		return automaton.Initial[T]{}, fmt.Errorf("%w: source: %w", automaton.ErrInvalidConfig, err)
	}
	bg := ar.Zero()
	if in.Background != "" {
		if bg, err = ar.Parse(in.Background); err != nil {
			return automaton.Initial[T]{}, fmt.Errorf("%w: background: %w", automaton.ErrInvalidConfig, err)
		}
	}
	return automaton.SingleSource(src, bg), nil
}

// Build constructs a fresh engine at step 0.
func (r *Registry) Build(s Spec) (automaton.Model, error) {
	f, ok := r.numerics[s.Numeric]
	if !ok {
		return nil, fmt.Errorf("unknown numeric: %s", s.Numeric)
	}
	return f.build(s)
}

// BuildConfig is Build for a run configuration.
func (r *Registry) BuildConfig(cfg *config.Config) (automaton.Model, error) {
	s, err := SpecFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return r.Build(s)
}

// Restore reads a checkpoint of any known model and representation. The
// header decides which typed engine is built; want, when non-zero, is
// checked first so a caller can insist on a model or dimension.
func (r *Registry) Restore(path string, want checkpoint.Expect) (automaton.Model, error) {
	h, err := checkpoint.Inspect(path)
	if err != nil {
		return nil, err
	}
	if err := h.Check(want); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	id := h.Identity
	kind, err := numeric.ParseKind(id.Numeric)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, &checkpoint.MismatchError{Field: "numeric", Want: "int64|bigint", Got: id.Numeric})
	}
	sym, err := lattice.ParseSymmetry(id.Symmetry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, &checkpoint.MismatchError{Field: "symmetry", Want: "hyperoctahedral|reflective", Got: id.Symmetry})
	}
	f, ok := r.numerics[kind]
	if !ok {
		return nil, fmt.Errorf("unknown numeric: %s", kind)
	}
	s := Spec{
		Model:    id.Model,
		Dim:      id.Dimension,
		Numeric:  kind,
		Symmetry: sym,
		Divisor:  id.Divisor,
		Initial:  initialSpec(id.Initial),
	}
	return f.restore(path, s)
}

func (r *Registry) ListModels() []string {
	names := rules.Names()
	sort.Strings(names)
	return names
}

func (r *Registry) ListNumerics() []string {
	names := make([]string, 0, len(r.numerics))
	for k := range r.numerics {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}
