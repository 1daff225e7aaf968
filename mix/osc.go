package mix

import (
	"math"

	"git.disy.net/goetz/overtones/tones"
)

// Oscillator is a phase accumulating tone generator. It is rendered from
// Start until Stop while connected to a gain stage.
type Oscillator struct {
	g         *Graph
	frequency float64
	detune    float64
	waveform  tones.Waveform
	phase     float64 // in [0, 1)
	inc       float64 // phase per frame
	started   bool
	stopped   bool
	tracked   bool
	out       *Gain
}

var _ tones.Oscillator = (*Oscillator)(nil)

// Frequency is the rendered frequency, detune included.
func (o *Oscillator) Frequency() float64 {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	return o.frequency * math.Pow(2, o.detune/1200)
}

func (o *Oscillator) setFrequency(f float64) {
	o.frequency = f
	o.inc = f * math.Pow(2, o.detune/1200) / o.g.sampleRate
}

// SetFrequency retunes the oscillator from the next rendered frame on; at
// is not honoured beyond that.
func (o *Oscillator) SetFrequency(frequency, at float64) {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	o.setFrequency(frequency)
}

// Start begins rendering. Starting twice or after Stop does nothing.
func (o *Oscillator) Start() {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()

	if o.started {
		return
	}
	o.started = true
	o.g.track(o)
}

// Stop ends rendering for good.
func (o *Oscillator) Stop() error {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()

	if !o.started {
		return ErrNotStarted
	}
	o.stopped = true
	o.g.untrack(o)
	return nil
}

func (o *Oscillator) Connect(dst tones.Gain) {
	d, ok := dst.(*Gain)
	if !ok || d.g != o.g {
		return
	}
	o.g.mu.Lock()
	defer o.g.mu.Unlock()

	o.out = d
	if o.started && !o.stopped {
		o.g.track(o)
	}
}

// Disconnect also takes the oscillator out of rendering until it is
// connected again.
func (o *Oscillator) Disconnect(dst tones.Gain) error {
	d, _ := dst.(*Gain)
	o.g.mu.Lock()
	defer o.g.mu.Unlock()

	if o.out == nil || o.out != d {
		return ErrNotConnected
	}
	o.out = nil
	o.g.untrack(o)
	return nil
}

// next returns the current sample and advances the phase. g.mu must be
// held.
func (o *Oscillator) next() float64 {
	v := wave(o.waveform, o.phase)
	o.phase += o.inc
	o.phase -= math.Floor(o.phase)
	return v
}

// wave evaluates one period of w at phase p in [0, 1).
func wave(w tones.Waveform, p float64) float64 {
	switch w {
	case tones.Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case tones.Sawtooth:
		return 2 * (p - 0.5)
	case tones.Triangle:
		return 1 - 4*math.Abs(p-0.5)
	}
	return math.Sin(2 * math.Pi * p)
}
