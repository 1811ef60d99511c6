package numeric

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Checked is int64 arithmetic that reports overflow instead of wrapping.
type Checked struct{}

func (Checked) Kind() Kind              { return Int64 }
func (Checked) Zero() int64             { return 0 }
func (Checked) FromInt64(v int64) int64 { return v }
func (Checked) Format(v int64) string   { return strconv.FormatInt(v, 10) }
func (Checked) Sign(a int64) int {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}

func (Checked) Parse(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse int64 %q: %w", s, err)
	}
	return v, nil
}

func (Checked) Add(a, b int64) (int64, error) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return s, nil
}

func (Checked) Sub(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, fmt.Errorf("%w: %d - %d", ErrOverflow, a, b)
	}
	return a - b, nil
}

func (Checked) MulInt(a int64, k int64) (int64, error) {
	if a == 0 || k == 0 {
		return 0, nil
	}
	p := a * k
	if p/k != a || (a == -1 && k == math.MinInt64) || (k == -1 && a == math.MinInt64) {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, a, k)
	}
	return p, nil
}

func (Checked) QuoRem(a int64, k int64) (int64, int64) {
	return a / k, a % k
}

func (Checked) Cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (Checked) Big(v int64) *big.Int    { return big.NewInt(v) }
func (Checked) Float64(v int64) float64 { return float64(v) }
