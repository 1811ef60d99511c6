package automaton

import (
	"fmt"
	"math/big"
	"path/filepath"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
)

// dense is a brute-force simulator over the whole box [-r, r]^D. It knows
// nothing about symmetry and serves as the reference for the engine.
type dense struct {
	dim    int
	r      int
	rule   rules.Rule[int64]
	bg     int64
	cells  map[string]int64
	coords []lattice.Coord
}

func newDense(dim, r int, rule rules.Rule[int64], bg int64, at func(c []int) int64) *dense {
	d := &dense{dim: dim, r: r, rule: rule, bg: bg, cells: map[string]int64{}}
	c := make(lattice.Coord, dim)
	var fill func(axis int)
	fill = func(axis int) {
		if axis == dim {
			cc := c.Clone()
			d.coords = append(d.coords, cc)
			d.cells[key(cc)] = at(cc)
			return
		}
		for x := -r; x <= r; x++ {
			c[axis] = x
			fill(axis + 1)
		}
	}
	fill(0)
	return d
}

func key(c []int) string {
	b := make([]byte, 0, 4*len(c))
	for _, v := range c {
		b = strconv.AppendInt(b, int64(v), 10)
		b = append(b, ',')
	}
	return string(b)
}

func (d *dense) get(c lattice.Coord) int64 {
	if v, ok := d.cells[key(c)]; ok {
		return v
	}
	return d.bg
}

func (d *dense) step() {
	next := make(map[string]int64, len(d.cells))
	vals := make([]int64, 2*d.dim)
	shares := make([]int64, 2*d.dim)
	nbs := make([]lattice.Coord, 2*d.dim)
	for _, c := range d.coords {
		for k := range nbs {
			axis, dir := lattice.Axis(k)
			nbs[k] = c.Clone()
			nbs[k][axis] += dir
			vals[k] = d.get(nbs[k])
		}
		keep, _, err := d.rule.Topple(d.get(c), vals, shares)
		Expect(err).NotTo(HaveOccurred())
		next[key(c)] += keep
		for k, s := range shares {
			if _, inside := d.cells[key(nbs[k])]; inside {
				next[key(nbs[k])] += s
			}
		}
	}
	d.cells = next
}

func stepN(m Model, n int) {
	for i := 0; i < n; i++ {
		_, err := m.NextStep()
		Expect(err).NotTo(HaveOccurred())
	}
}

func mustSunflower(dim int, sym lattice.Symmetry) Variant[int64] {
	r, err := rules.NewSunflower[int64](numeric.Checked{}, dim, 0)
	Expect(err).NotTo(HaveOccurred())
	return Variant[int64]{Dim: dim, Symmetry: sym, Arith: numeric.Checked{}, Rule: r}
}

func aether(dim int, sym lattice.Symmetry) Variant[int64] {
	return Variant[int64]{Dim: dim, Symmetry: sym, Arith: numeric.Checked{}, Rule: rules.NewAether[int64](numeric.Checked{}, dim)}
}

type scenario struct {
	name  string
	v     Variant[int64]
	start Initial[int64]
}

func scenarios() []scenario {
	region := Region{Side: 3, Min: -30, Max: 90, Seed: 11}
	return []scenario{
		{"sunflower 1D", mustSunflower(1, lattice.Hyperoctahedral), SingleSource[int64](500, 0)},
		{"sunflower 2D", mustSunflower(2, lattice.Hyperoctahedral), SingleSource[int64](2000, 0)},
		{"sunflower 3D", mustSunflower(3, lattice.Hyperoctahedral), SingleSource[int64](3000, 0)},
		{"sunflower 2D background", mustSunflower(2, lattice.Hyperoctahedral), SingleSource[int64](1500, 40)},
		{"sunflower 2D negative", mustSunflower(2, lattice.Hyperoctahedral), SingleSource[int64](-900, 0)},
		{"sunflower 2D reflective", mustSunflower(2, lattice.Reflective), SingleSource[int64](800, 0)},
		{"aether 2D", aether(2, lattice.Hyperoctahedral), SingleSource[int64](-1200, 0)},
		{"aether 3D", aether(3, lattice.Hyperoctahedral), SingleSource[int64](-700, 0)},
		{"aether 2D random region", aether(2, lattice.Reflective), RandomRegion[int64](region)},
		{"sunflower 3D random region", mustSunflower(3, lattice.Reflective), RandomRegion[int64](region)},
	}
}

const steps = 12

var _ = Describe("Engine", func() {
	for _, sc := range scenarios() {
		sc := sc

		Describe(sc.name, func() {
			var e *Engine[int64]

			BeforeEach(func() {
				var err error
				e, err = New(sc.v, sc.start)
				Expect(err).NotTo(HaveOccurred())
			})

			It("matches a brute-force simulation of the full lattice", func() {
				r := e.Side() + steps + 1
				ref := newDense(sc.v.Dim, r, sc.v.Rule, e.Background(), func(c []int) int64 { return e.At(c) })
				for i := 0; i < steps; i++ {
					stepN(e, 1)
					ref.step()
					for _, c := range ref.coords {
						Expect(e.At(c)).To(Equal(ref.get(c)), "step %d at %v", i+1, c)
					}
				}
			})

			It("conserves the lattice sum", func() {
				mass := e.Stats().Mass
				for i := 0; i < steps; i++ {
					stepN(e, 1)
					Expect(e.Stats().Mass.Cmp(mass)).To(BeZero(), "step %d", i+1)
				}
			})

			It("reads every coordinate through its canonical form", func() {
				stepN(e, steps/2)
				side := e.Side()
				cur := lattice.NewExtendedCursor(lattice.Reflective, sc.v.Dim, side+1)
				for cur.Next() {
					c := lattice.Coord(cur.Coord()).Clone()
					canon, tr := sc.v.Symmetry.Fold(c)
					Expect(tr.Apply(canon)).To(Equal(c))
					again, _ := sc.v.Symmetry.Fold(canon)
					Expect(again).To(Equal(canon))
					Expect(e.At(c)).To(Equal(e.At(canon)))
				}
			})

			It("grows by exactly one after touching the outer shell", func() {
				for i := 0; i < steps; i++ {
					side, grow := e.Side(), e.BoundsReached()
					stepN(e, 1)
					if grow {
						Expect(e.Side()).To(Equal(side + 1))
					} else {
						Expect(e.Side()).To(Equal(side))
					}
				}
			})

			for _, k := range []int{0, 1, 10} {
				k := k
				It(fmt.Sprintf("resumes exactly from a checkpoint taken after %d steps", k), func() {
					stepN(e, k)
					data, err := e.Marshal()
					Expect(err).NotTo(HaveOccurred())

					restored, err := Unmarshal(data, sc.v)
					Expect(err).NotTo(HaveOccurred())
					Expect(restored.Step()).To(Equal(e.Step()))
					Expect(restored.Identity()).To(Equal(e.Identity()))

					for i := 0; i < 5; i++ {
						a, errA := e.NextStep()
						b, errB := restored.NextStep()
						Expect(errA).NotTo(HaveOccurred())
						Expect(errB).NotTo(HaveOccurred())
						Expect(b).To(Equal(a))
						Expect(restored.Side()).To(Equal(e.Side()))
						Expect(restored.BoundsReached()).To(Equal(e.BoundsReached()))
						var want, got []int64
						e.ForEach(func(_ []int, v int64) { want = append(want, v) })
						restored.ForEach(func(_ []int, v int64) { got = append(got, v) })
						Expect(got).To(Equal(want))
					}
				})
			}
		})
	}

	Describe("stabilisation", func() {
		It("never changes when every value is below the divisor", func() {
			for dim := 1; dim <= 4; dim++ {
				v := mustSunflower(dim, lattice.Hyperoctahedral)
				e, err := New(v, SingleSource[int64](int64(2*dim), 0))
				Expect(err).NotTo(HaveOccurred())
				changed, err := e.NextStep()
				Expect(err).NotTo(HaveOccurred())
				Expect(changed).To(BeFalse())
				Expect(e.At(make([]int, dim))).To(Equal(int64(2 * dim)))
			}
		})
	})

	Describe("checkpoint identity", func() {
		It("refuses a checkpoint of another dimension", func() {
			e, err := New(mustSunflower(3, lattice.Hyperoctahedral), SingleSource[int64](100, 0))
			Expect(err).NotTo(HaveOccurred())
			data, err := e.Marshal()
			Expect(err).NotTo(HaveOccurred())

			_, err = Unmarshal(data, mustSunflower(2, lattice.Hyperoctahedral))
			Expect(err).To(MatchError(checkpoint.ErrIncompatible))
			Expect(err).NotTo(MatchError(checkpoint.ErrCorrupt))
		})

		It("refuses a checkpoint of another model", func() {
			e, err := New(aether(2, lattice.Hyperoctahedral), SingleSource[int64](-100, 0))
			Expect(err).NotTo(HaveOccurred())
			data, err := e.Marshal()
			Expect(err).NotTo(HaveOccurred())

			_, err = Unmarshal(data, mustSunflower(2, lattice.Hyperoctahedral))
			var me *checkpoint.MismatchError
			Expect(err).To(BeAssignableToTypeOf(me))
		})

		It("refuses garbage as corrupt", func() {
			_, err := Unmarshal([]byte("not a checkpoint"), mustSunflower(2, lattice.Hyperoctahedral))
			Expect(err).To(MatchError(checkpoint.ErrCorrupt))
		})

		It("round-trips through a file with big integers", func() {
			ar := numeric.Big{}
			v := Variant[*big.Int]{Dim: 2, Arith: ar, Rule: rules.NewAether[*big.Int](ar, 2)}
			e, err := New(v, SingleSource[*big.Int](big.NewInt(-5000), ar.Zero()))
			Expect(err).NotTo(HaveOccurred())
			stepN(e, 7)

			path := filepath.Join(GinkgoT().TempDir(), checkpoint.Name("aether", e.Step()))
			Expect(e.BackUp(path)).To(Succeed())

			restored, err := Restore(path, v)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Stats().Mass.Cmp(big.NewInt(-5000))).To(BeZero())
			stepN(e, 3)
			stepN(restored, 3)
			Expect(restored.Value([]int{1, -2}).Cmp(e.Value([]int{1, -2}))).To(BeZero())
		})
	})
})
