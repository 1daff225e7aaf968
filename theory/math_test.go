package theory

import (
	"math"
	"testing"
)

func TestLogBase(t *testing.T) {
	if got := LogBase(2, 8); math.Abs(got-3) > 1e-12 {
		t.Fatalf("expected log2(8) = 3, got %v", got)
	}
	if got := LogBase(10, 1000); math.Abs(got-3) > 1e-12 {
		t.Fatalf("expected log10(1000) = 3, got %v", got)
	}
	if got := LogBase(2, -1); !math.IsNaN(got) {
		t.Fatalf("expected NaN for negative input, got %v", got)
	}
	if got := LogBase(2, 0); !math.IsInf(got, -1) {
		t.Fatalf("expected -Inf for zero, got %v", got)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for n, want := range map[float64]bool{
		1:    true,
		2:    true,
		4:    true,
		1024: true,
		0:    false,
		6:    false,
		-4:   false,
		2.5:  false,
		// the bit test only means something for integers, so the inverse
		// of an octave is not one
		0.5: false,
	} {
		if got := IsPowerOfTwo(n); got != want {
			t.Errorf("IsPowerOfTwo(%v): expected %v, got %v", n, want, got)
		}
	}
}

func TestFractionKnownRatios(t *testing.T) {
	for _, tc := range []struct {
		x    float64
		want Ratio
	}{
		{1.5, Ratio{0, 3, 2}},
		{440.0 / 660.0, Ratio{0, 2, 3}},
		{0.75, Ratio{0, 3, 4}},
		{3, Ratio{0, 3, 1}},
		{1, Ratio{0, 1, 1}},
		{math.Pi, Ratio{0, 355, 113}},
		{math.Sqrt2, Ratio{0, 1393, 985}},
		{-0.5, Ratio{0, -1, 2}},
	} {
		if got := Fraction(tc.x, MaxDenominator); got != tc.want {
			t.Errorf("Fraction(%v): expected %v, got %v", tc.x, tc.want, got)
		}
	}
}

func TestFractionIsBestApproximation(t *testing.T) {
	for _, x := range []float64{
		0.1234, 1.0594630943592953, 1.2599, 1.333333, 1.41, 1.618033988749895,
		1.7817974362806785, 2.5198, 7.0 / 5.0, 880.0 / 523.25, 0.001, 12.3456789,
	} {
		got := Fraction(x, MaxDenominator)
		if got.Quotient != 0 {
			t.Fatalf("Fraction(%v): expected improper form, got %v", x, got)
		}
		if got.Denominator < 1 || got.Denominator > MaxDenominator {
			t.Fatalf("Fraction(%v): denominator out of range: %v", x, got)
		}
		gotErr := math.Abs(got.Float() - x)

		best := math.Inf(1)
		for d := 1; d <= MaxDenominator; d++ {
			n := math.Round(x * float64(d))
			if e := math.Abs(n/float64(d) - x); e < best {
				best = e
			}
		}
		if gotErr > best+1e-15 {
			t.Errorf("Fraction(%v) = %v with error %g, brute force found %g", x, got, gotErr, best)
		}
	}
}

func TestFractionNonFinite(t *testing.T) {
	if got := Fraction(math.NaN(), MaxDenominator); got != (Ratio{}) {
		t.Fatalf("expected zero ratio for NaN, got %v", got)
	}
	if got := Fraction(math.Inf(1), MaxDenominator); got != (Ratio{}) {
		t.Fatalf("expected zero ratio for Inf, got %v", got)
	}
}

func TestRatioMixed(t *testing.T) {
	if got := (Ratio{0, 3, 2}).Mixed(); got != (Ratio{1, 1, 2}) {
		t.Fatalf("expected 1 1/2, got %v", got)
	}
	if got := (Ratio{1, 1, 2}).Improper(); got != (Ratio{0, 3, 2}) {
		t.Fatalf("expected 3/2, got %v", got)
	}
	if got := (Ratio{0, 2, 3}).Mixed(); got != (Ratio{0, 2, 3}) {
		t.Fatalf("expected 2/3 unchanged, got %v", got)
	}
	if s := (Ratio{1, 1, 2}).String(); s != "1 1/2" {
		t.Fatalf("unexpected string %q", s)
	}
}
