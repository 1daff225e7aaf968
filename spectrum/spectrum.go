// Package spectrum finds the pitch and the partial strengths of rendered
// audio.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/ktye/fft"
)

// ErrBadSize is returned for fewer than two samples.
var ErrBadSize = errors.New("need at least two samples")

// Spectrum holds the magnitudes of a Hann windowed power of two prefix of
// the analysed samples.
type Spectrum struct {
	// Magnitudes has one entry per bin from 0 Hz up to Nyquist.
	Magnitudes []float64
	// BinWidth is the frequency step between bins.
	BinWidth float64
}

// Analyze transforms the longest power of two prefix of samples.
func Analyze(samples []float64, sampleRate float64) (*Spectrum, error) {
	if len(samples) < 2 {
		return nil, ErrBadSize
	}
	size := 1
	for size*2 <= len(samples) {
		size *= 2
	}

	f, err := fft.New(size)
	if err != nil {
		return nil, fmt.Errorf("can't create fft of size %d: %w", size, err)
	}
	buf := make([]complex128, size)
	for i := range buf {
		w := (1 - math.Cos(2*math.Pi*float64(i)/float64(size))) / 2
		buf[i] = complex(samples[i]*w, 0)
	}
	buf = f.Transform(buf)

	mags := make([]float64, size/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(buf[i]) / float64(size)
	}
	return &Spectrum{Magnitudes: mags, BinWidth: sampleRate / float64(size)}, nil
}

// Peak is the frequency of the strongest bin above DC, refined by a
// parabola through it and its neighbours. It is 0 for silence.
func (s *Spectrum) Peak() float64 {
	best := 0
	for i := 1; i < len(s.Magnitudes); i++ {
		if s.Magnitudes[i] > s.Magnitudes[best] || best == 0 {
			best = i
		}
	}
	if best == 0 || s.Magnitudes[best] == 0 {
		return 0
	}
	return s.refine(best) * s.BinWidth
}

func (s *Spectrum) refine(i int) float64 {
	if i <= 0 || i >= len(s.Magnitudes)-1 {
		return float64(i)
	}
	a, b, c := s.Magnitudes[i-1], s.Magnitudes[i], s.Magnitudes[i+1]
	d := a - 2*b + c
	if d == 0 {
		return float64(i)
	}
	return float64(i) + 0.5*(a-c)/d
}

// Magnitude is the strongest bin within one bin of freq.
func (s *Spectrum) Magnitude(freq float64) float64 {
	i := int(math.Floor(freq/s.BinWidth + 0.5))
	var m float64
	for j := i - 1; j <= i+1; j++ {
		if j >= 0 && j < len(s.Magnitudes) {
			m = math.Max(m, s.Magnitudes[j])
		}
	}
	return m
}

// Partials returns the magnitudes at the first n multiples of fundamental,
// 0 for those above Nyquist.
func (s *Spectrum) Partials(fundamental float64, n int) []float64 {
	out := make([]float64, n)
	for k := range out {
		f := fundamental * float64(k+1)
		if f/s.BinWidth >= float64(len(s.Magnitudes)) {
			break
		}
		out[k] = s.Magnitude(f)
	}
	return out
}
