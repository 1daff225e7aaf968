package tones

import (
	"fmt"
	"math"
	"sync"
)

// Property names an Envelope setting for SetProperty.
type Property string

const (
	Attack    Property = "attack"
	Decay     Property = "decay"
	Sustain   Property = "sustain"
	Release   Property = "release"
	Volume    Property = "volume"
	MaxVolume Property = "maxVolume"
)

// Envelope is the ADSR amplitude contour of a sound and the gain node it
// drives. Times are kept in seconds. A negative sustain holds the sound
// until it is faded out or stopped.
type Envelope struct {
	node Gain

	mu        sync.RWMutex
	attack    float64
	decay     float64
	sustain   float64
	release   float64
	volume    float64
	maxVolume float64
	duration  float64
}

// EnvelopeValues is a consistent copy of an Envelope's settings.
type EnvelopeValues struct {
	Attack    float64
	Decay     float64
	Sustain   float64
	Release   float64
	Volume    float64
	MaxVolume float64
	Duration  float64
}

// Held reports whether the sustain phase lasts until stopped.
func (v EnvelopeValues) Held() bool {
	return v.Sustain < 0
}

// NewEnvelope allocates a silent gain node on g. The times are given in
// milliseconds.
func NewEnvelope(g Graph, attack, decay, sustain, release float64) *Envelope {
	node := g.NewGain()
	node.SetValueAtTime(0, g.CurrentTime())

	e := &Envelope{
		node:    node,
		attack:  attack / 1000,
		decay:   decay / 1000,
		sustain: sustain / 1000,
		release: release / 1000,
	}
	e.duration = e.calculateDuration()
	return e
}

// Node is the gain stage shaped by the envelope.
func (e *Envelope) Node() Gain {
	return e.node
}

// calculateDuration must be called with mu held.
func (e *Envelope) calculateDuration() float64 {
	return e.attack + e.decay + math.Max(e.sustain, 0) + e.release
}

// Duration is attack + decay + sustain + release, not counting a held
// sustain.
func (e *Envelope) Duration() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.duration
}

// Values returns a copy of all settings taken under one lock.
func (e *Envelope) Values() EnvelopeValues {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return EnvelopeValues{
		Attack:    e.attack,
		Decay:     e.decay,
		Sustain:   e.sustain,
		Release:   e.release,
		Volume:    e.volume,
		MaxVolume: e.maxVolume,
		Duration:  e.duration,
	}
}

// SetProperty changes one setting and returns the recomputed duration.
// Times are in seconds here.
func (e *Envelope) SetProperty(p Property, v float64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch p {
	case Attack:
		e.attack = v
	case Decay:
		e.decay = v
	case Sustain:
		e.sustain = v
	case Release:
		e.release = v
	case Volume:
		e.volume = v
	case MaxVolume:
		e.maxVolume = v
	default:
		return e.duration, fmt.Errorf("%w: %q", ErrUnknownProperty, p)
	}
	e.duration = e.calculateDuration()
	return e.duration, nil
}

// stretchHold rescales the hold phase by n. Without a sustain phase the
// attack is folded into it.
func (e *Envelope) stretchHold(n float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sustain != 0 {
		e.sustain *= n
	} else {
		e.sustain = (e.attack + e.sustain) * n
	}
	e.duration = e.calculateDuration()
	return e.duration
}

func (e *Envelope) setVolumes(volume, maxVolume float64) {
	e.mu.Lock()
	e.volume = volume
	e.maxVolume = maxVolume
	e.mu.Unlock()
}
