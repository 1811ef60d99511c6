package numeric

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestCheckedOverflow(t *testing.T) {
	var c Checked
	tests := []struct {
		name string
		op   func() (int64, error)
		want int64
		err  bool
	}{
		{"add", func() (int64, error) { return c.Add(2, 3) }, 5, false},
		{"add overflow", func() (int64, error) { return c.Add(math.MaxInt64, 1) }, 0, true},
		{"add underflow", func() (int64, error) { return c.Add(math.MinInt64, -1) }, 0, true},
		{"sub", func() (int64, error) { return c.Sub(-2, 3) }, -5, false},
		{"sub overflow", func() (int64, error) { return c.Sub(math.MaxInt64, -1) }, 0, true},
		{"sub underflow", func() (int64, error) { return c.Sub(math.MinInt64, 1) }, 0, true},
		{"mul", func() (int64, error) { return c.MulInt(-7, 3) }, -21, false},
		{"mul overflow", func() (int64, error) { return c.MulInt(math.MaxInt64/2+1, 2) }, 0, true},
		{"mul min by -1", func() (int64, error) { return c.MulInt(math.MinInt64, -1) }, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if tt.err {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQuoRemTruncates(t *testing.T) {
	tests := []struct {
		a, k, q, r int64
	}{
		{10, 3, 3, 1},
		{-10, 3, -3, -1},
		{2, 5, 0, 2},
		{-2, 5, 0, -2},
	}
	for _, tt := range tests {
		q, r := Checked{}.QuoRem(tt.a, tt.k)
		if q != tt.q || r != tt.r {
			t.Errorf("int64 %d/%d = %d r %d, want %d r %d", tt.a, tt.k, q, r, tt.q, tt.r)
		}
		bq, br := Big{}.QuoRem(big.NewInt(tt.a), tt.k)
		if bq.Int64() != tt.q || br.Int64() != tt.r {
			t.Errorf("big %d/%d = %v r %v, want %d r %d", tt.a, tt.k, bq, br, tt.q, tt.r)
		}
	}
}

func TestBigDoesNotMutate(t *testing.T) {
	var b Big
	a := big.NewInt(41)
	sum, _ := b.Add(a, big.NewInt(1))
	if a.Int64() != 41 || sum.Int64() != 42 {
		t.Errorf("Add mutated input: a=%v sum=%v", a, sum)
	}
	diff, _ := b.Sub(a, b.Zero())
	if diff.Cmp(a) != 0 {
		t.Errorf("Sub by zero = %v", diff)
	}
	if b.Zero().Sign() != 0 {
		t.Errorf("zero is not zero")
	}
}

func TestParseFormat(t *testing.T) {
	v, err := Big{}.Parse("-123456789012345678901234567890")
	if err != nil {
		t.Fatal(err)
	}
	if (Big{}).Format(v) != "-123456789012345678901234567890" {
		t.Errorf("round trip failed: %v", v)
	}
	if _, err := (Big{}).Parse("12x"); err == nil {
		t.Error("expected parse error")
	}
	if _, err := (Checked{}).Parse("99999999999999999999"); err == nil {
		t.Error("expected range error")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": Int64, "int64": Int64, "bigint": BigInt, "big": BigInt} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("float"); err == nil {
		t.Error("expected error for float")
	}
}
