package mix

import (
	"math"

	"git.disy.net/goetz/overtones/tones"
)

type eventKind int

const (
	setValue eventKind = iota
	setTarget
)

type automation struct {
	kind  eventKind
	value float64
	at    float64
	tau   float64
}

// Gain is an amplitude stage with WebAudio style automation: events are
// applied in time order as the clock reaches them, a target event starts an
// exponential approach that lasts until the next event.
type Gain struct {
	g      *Graph
	value  float64
	events []automation
	out    *Gain

	targeting bool
	target    float64
	k         float64 // per frame factor of the running approach
	frame     int64   // last frame stepped
}

var _ tones.Gain = (*Gain)(nil)

// Value is the gain as of the last rendered frame.
func (n *Gain) Value() float64 {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	return n.value
}

// Pending is the number of automation events not reached yet.
func (n *Gain) Pending() int {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	return len(n.events)
}

func (n *Gain) SetValueAtTime(value, at float64) {
	n.schedule(automation{kind: setValue, value: value, at: at})
}

func (n *Gain) SetTargetAtTime(target, start, timeConstant float64) {
	n.schedule(automation{kind: setTarget, value: target, at: start, tau: timeConstant})
}

// schedule inserts e after every event at the same time or earlier.
func (n *Gain) schedule(e automation) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	i := len(n.events)
	for i > 0 && n.events[i-1].at > e.at {
		i--
	}
	n.events = append(n.events, automation{})
	copy(n.events[i+1:], n.events[i:])
	n.events[i] = e
}

// CancelScheduledValues drops the events at or after from. An approach
// that already started keeps running.
func (n *Gain) CancelScheduledValues(from float64) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	kept := n.events[:0]
	for _, e := range n.events {
		if e.at < from {
			kept = append(kept, e)
		}
	}
	n.events = kept
}

func (n *Gain) Connect(dst tones.Gain) {
	d, ok := dst.(*Gain)
	if !ok || d.g != n.g {
		return
	}
	n.g.mu.Lock()
	n.out = d
	n.g.mu.Unlock()
}

func (n *Gain) Disconnect(dst tones.Gain) error {
	d, _ := dst.(*Gain)
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	if n.out == nil || n.out != d {
		return ErrNotConnected
	}
	n.out = nil
	return nil
}

// step applies the events due at t and advances a running approach by one
// frame. Stepping twice in the same frame does nothing. g.mu must be held.
func (n *Gain) step(frame int64, t float64) {
	if n.frame == frame {
		return
	}
	n.frame = frame

	const eps = 1e-9
	for len(n.events) > 0 && n.events[0].at <= t+eps {
		e := n.events[0]
		n.events = n.events[1:]
		switch e.kind {
		case setValue:
			n.value = e.value
			n.targeting = false
		case setTarget:
			if e.tau <= 0 {
				n.value = e.value
				n.targeting = false
				continue
			}
			n.targeting = true
			n.target = e.value
			n.k = math.Exp(-1 / (n.g.sampleRate * e.tau))
		}
	}
	if n.targeting {
		n.value = n.target + (n.value-n.target)*n.k
	}
}
