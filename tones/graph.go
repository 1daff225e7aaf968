// Package tones is the synthesis side of overtones: ADSR envelopes, sounds
// with a play/fade/stop lifecycle, the registry of live sounds, and the
// factory that builds and sequences them.
//
// Nothing here generates samples. Sounds drive gain automation on a Graph
// supplied by the host (see package mix for a software one).
package tones

import "fmt"

// Graph is the host audio environment sounds are rendered through. Times are
// seconds on the graph's own monotonic clock.
type Graph interface {
	CurrentTime() float64
	NewGain() Gain
	NewOscillator(frequency, detune float64, waveform Waveform) Oscillator
	// Master is the shared output mix every sound connects into.
	Master() Gain
	// AfterFunc runs f once d seconds of graph time have passed. f is never
	// called from within AfterFunc itself, nor with any graph lock held.
	AfterFunc(d float64, f func()) Timer
}

// Param is an automatable value.
type Param interface {
	SetValueAtTime(value, at float64)
	// SetTargetAtTime starts an exponential approach towards target at time
	// start; after one timeConstant the remaining distance is 1/e.
	SetTargetAtTime(target, start, timeConstant float64)
	CancelScheduledValues(from float64)
}

// Gain is an amplitude stage.
type Gain interface {
	Param
	Connect(dst Gain)
	// Disconnect fails when the node is not connected to dst.
	Disconnect(dst Gain) error
}

// Oscillator is a tone generator feeding a gain stage.
type Oscillator interface {
	SetFrequency(frequency, at float64)
	Start()
	Stop() error
	Connect(dst Gain)
	Disconnect(dst Gain) error
}

// Timer is a pending AfterFunc.
type Timer interface {
	// Stop reports whether the call stopped the timer before it fired.
	Stop() bool
}

// Waveform is the shape of an oscillator.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
	Custom   Waveform = "custom"
)

// ParseWaveform accepts the waveform names, with "" meaning Sine.
func ParseWaveform(s string) (Waveform, error) {
	switch w := Waveform(s); w {
	case "":
		return Sine, nil
	case Sine, Square, Sawtooth, Triangle, Custom:
		return w, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}
