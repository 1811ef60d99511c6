// Package numeric supplies the integer arithmetic used by the toppling
// engine: checked 64-bit integers and arbitrary-precision integers behind a
// single generic interface.
package numeric

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	_ Arith[int64]    = Checked{}
	_ Arith[*big.Int] = Big{}
)

// ErrOverflow is returned when a fixed-width result does not fit.
var ErrOverflow = errors.New("numeric: integer overflow")

// Kind names a value representation. It is persisted in checkpoints.
type Kind string

const (
	Int64  Kind = "int64"
	BigInt Kind = "bigint"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Int64, "":
		return Int64, nil
	case BigInt, "big":
		return BigInt, nil
	}
	return "", fmt.Errorf("unknown numeric type: %s", s)
}

// Arith is integer arithmetic over values of type T. Implementations treat
// values as immutable: results never alias their inputs' storage.
//
// Divisors passed to QuoRem are always positive. Quotients truncate toward
// zero and remainders take the sign of the dividend.
type Arith[T any] interface {
	Kind() Kind
	Zero() T
	FromInt64(v int64) T
	Parse(s string) (T, error)
	Format(v T) string

	Add(a, b T) (T, error)
	Sub(a, b T) (T, error)
	MulInt(a T, k int64) (T, error)
	QuoRem(a T, k int64) (q, r T)

	Cmp(a, b T) int
	Sign(a T) int

	// Big returns a fresh copy of v as a big.Int.
	Big(v T) *big.Int
	Float64(v T) float64
}
