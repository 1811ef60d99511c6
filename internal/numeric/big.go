package numeric

import (
	"fmt"
	"math/big"
)

// Big is arbitrary-precision arithmetic. Every operation allocates its
// result, so a *big.Int handed out is never modified afterwards and may be
// shared between cells.
type Big struct{}

var bigZero = new(big.Int)

func (Big) Kind() Kind                 { return BigInt }
func (Big) Zero() *big.Int             { return bigZero }
func (Big) FromInt64(v int64) *big.Int { return big.NewInt(v) }
func (Big) Format(v *big.Int) string   { return v.String() }
func (Big) Sign(a *big.Int) int        { return a.Sign() }
func (Big) Cmp(a, b *big.Int) int      { return a.Cmp(b) }

func (Big) Parse(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("parse bigint %q: invalid syntax", s)
	}
	return v, nil
}

func (Big) Add(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return a, nil
	}
	return new(big.Int).Add(a, b), nil
}

func (Big) Sub(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return a, nil
	}
	return new(big.Int).Sub(a, b), nil
}

func (Big) MulInt(a *big.Int, k int64) (*big.Int, error) {
	return new(big.Int).Mul(a, big.NewInt(k)), nil
}

func (Big) QuoRem(a *big.Int, k int64) (*big.Int, *big.Int) {
	return new(big.Int).QuoRem(a, big.NewInt(k), new(big.Int))
}

func (Big) Big(v *big.Int) *big.Int { return new(big.Int).Set(v) }

func (Big) Float64(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
