// Package mix is a small software audio graph for tones: gain stages with
// scheduled automation, oscillators and a master bus, rendered on a sample
// clock. It plays through portaudio (Process), any beep sink (Stream) or
// straight into a WAV file.
package mix

import (
	"errors"
	"math"
	"sync"

	"git.disy.net/goetz/overtones/tones"
)

var (
	// ErrNotConnected is returned when disconnecting from a node that is
	// not the current destination.
	ErrNotConnected = errors.New("not connected")
	// ErrNotStarted is returned when stopping an oscillator that was never
	// started.
	ErrNotStarted = errors.New("oscillator not started")
)

// maxChain bounds how many gain stages a signal passes through, so a
// connection loop renders silence instead of spinning.
const maxChain = 16

var _ tones.Graph = (*Graph)(nil)

// Graph implements tones.Graph. All nodes share the graph lock; timer
// callbacks always run with it released.
type Graph struct {
	mu         sync.Mutex
	sampleRate float64
	frame      int64
	master     *Gain
	oscs       []*Oscillator
	timers     []*timer

	// scratch is only used by Process
	scratch [][2]float64
}

// New returns an empty graph at sampleRate with the master gain at 1.
func New(sampleRate float64) *Graph {
	g := &Graph{sampleRate: sampleRate}
	g.master = g.newGain()
	g.master.value = 1
	return g
}

func (g *Graph) SampleRate() float64 {
	return g.sampleRate
}

// CurrentTime is the number of rendered frames in seconds.
func (g *Graph) CurrentTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now()
}

func (g *Graph) now() float64 {
	return float64(g.frame) / g.sampleRate
}

func (g *Graph) newGain() *Gain {
	return &Gain{g: g, frame: -1}
}

func (g *Graph) NewGain() tones.Gain {
	return g.newGain()
}

// NewOscillator returns a stopped oscillator; detune is in cents. Custom
// waveforms render as sine.
func (g *Graph) NewOscillator(frequency, detune float64, waveform tones.Waveform) tones.Oscillator {
	o := &Oscillator{g: g, detune: detune, waveform: waveform}
	o.setFrequency(frequency)
	return o
}

func (g *Graph) Master() tones.Gain {
	return g.master
}

// Volume is the current master gain.
func (g *Graph) Volume() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.master.value
}

// track adds o to the rendered oscillators, with g.mu held.
func (g *Graph) track(o *Oscillator) {
	if o.tracked {
		return
	}
	o.tracked = true
	g.oscs = append(g.oscs, o)
}

// untrack removes o from the rendered oscillators, with g.mu held.
func (g *Graph) untrack(o *Oscillator) {
	if !o.tracked {
		return
	}
	o.tracked = false
	for i, x := range g.oscs {
		if x == o {
			copy(g.oscs[i:], g.oscs[i+1:])
			g.oscs[len(g.oscs)-1] = nil
			g.oscs = g.oscs[:len(g.oscs)-1]
			return
		}
	}
}

// Voices is the number of oscillators currently rendered.
func (g *Graph) Voices() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.oscs)
}

// level is the product of the gains from n down to the master, or 0 when
// the chain does not reach it. g.mu must be held.
func (g *Graph) level(n *Gain, t float64) float64 {
	v := 1.0
	for i := 0; n != nil && i < maxChain; i++ {
		n.step(g.frame, t)
		v *= n.value
		if n == g.master {
			return v
		}
		n = n.out
	}
	return 0
}

// renderLocked mixes len(out) frames and advances the clock. g.mu must be
// held.
func (g *Graph) renderLocked(out [][2]float64) {
	for i := range out {
		t := g.now()
		var sum float64
		for _, o := range g.oscs {
			v := o.next()
			if o.out == nil {
				continue
			}
			sum += v * g.level(o.out, t)
		}
		out[i][0] = sum
		out[i][1] = sum
		g.frame++
	}
}

// clamp keeps a sample in [-1, 1].
func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
