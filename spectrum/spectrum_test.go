package spectrum

import (
	"errors"
	"math"
	"testing"
)

const rate = 44100

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func TestPeak(t *testing.T) {
	for _, f := range []float64{110, 440, 660, 1234.5} {
		s, err := Analyze(sine(f, 1<<15), rate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := s.Peak(); math.Abs(got-f) > 1 {
			t.Errorf("expected peak at %v, got %v", f, got)
		}
	}
}

func TestAnalyzeUsesPowerOfTwoPrefix(t *testing.T) {
	s, err := Analyze(sine(440, 5000), rate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Magnitudes) != 4096/2+1 {
		t.Fatalf("expected 2049 bins, got %d", len(s.Magnitudes))
	}
	if math.Abs(s.BinWidth-rate/4096.0) > 1e-9 {
		t.Fatalf("unexpected bin width %v", s.BinWidth)
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	if _, err := Analyze([]float64{1}, rate); !errors.Is(err, ErrBadSize) {
		t.Fatalf("expected ErrBadSize, got %v", err)
	}
}

func TestSilence(t *testing.T) {
	s, err := Analyze(make([]float64, 1024), rate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Peak() != 0 {
		t.Fatalf("expected no peak in silence, got %v", s.Peak())
	}
}

func TestPartials(t *testing.T) {
	a := sine(220, 1<<14)
	b := sine(660, 1<<14)
	for i := range a {
		a[i] += 0.5 * b[i]
	}
	s, err := Analyze(a, rate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := s.Partials(220, 4)
	if len(p) != 4 {
		t.Fatalf("expected 4 partials, got %d", len(p))
	}
	if p[0] <= p[2] || p[2] <= 10*p[1] || p[2] <= 10*p[3] {
		t.Fatalf("expected strong 1st and 3rd partials, got %v", p)
	}
	if r := p[2] / p[0]; math.Abs(r-0.5) > 0.1 {
		t.Fatalf("expected 3rd partial at half the fundamental, got ratio %v", r)
	}

	if high := s.Partials(15000, 3); high[1] != 0 || high[2] != 0 {
		t.Fatalf("expected partials above nyquist to be 0, got %v", high)
	}
}
