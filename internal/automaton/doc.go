// Package automaton runs symmetric toppling automata on unbounded
// hypercubic lattices.
//
// Configurations that start symmetric stay symmetric, so an [Engine] stores
// only the fundamental domain of the lattice and reads any other cell by
// folding its coordinate. The package defines:
//
//   - [Variant]: dimension, symmetry, arithmetic and rule of an automaton
//   - [Initial]: single-source or random-region starting configuration
//   - [Engine]: the stepping state machine
//   - [Model]: the representation-independent view used by runners and tools
//
// # Example
//
//	ar := numeric.Checked{}
//	rule, _ := rules.NewSunflower[int64](ar, 2, 0)
//	e, _ := automaton.New(automaton.Variant[int64]{
//		Dim: 2, Arith: ar, Rule: rule,
//	}, automaton.SingleSource[int64](1000, 0))
//	for changed := true; changed; {
//		changed, _ = e.NextStep()
//	}
//
// # Thread Safety
//
// Engines are NOT safe for concurrent use. NextStep, readers and BackUp must
// be called from one goroutine, or serialised by the caller.
package automaton
