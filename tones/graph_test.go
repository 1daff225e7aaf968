package tones

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

var errNotConnected = errors.New("not connected")

type paramEvent struct {
	kind  string // "value", "target" or "cancel"
	value float64
	at    float64
	tau   float64
}

// fakeGraph records what sounds schedule and runs timers on a manual clock.
type fakeGraph struct {
	mu     sync.Mutex
	now    float64
	seq    int
	timers []*fakeTimer
	master *fakeGain
	gains  []*fakeGain
	oscs   []*fakeOsc
	starts []*fakeOsc
}

func newFakeGraph() *fakeGraph {
	g := &fakeGraph{}
	g.master = &fakeGain{g: g}
	return g
}

func (g *fakeGraph) CurrentTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now
}

func (g *fakeGraph) NewGain() Gain {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &fakeGain{g: g}
	g.gains = append(g.gains, n)
	return n
}

func (g *fakeGraph) NewOscillator(frequency, detune float64, waveform Waveform) Oscillator {
	g.mu.Lock()
	defer g.mu.Unlock()
	o := &fakeOsc{g: g, frequency: frequency, detune: detune, waveform: waveform}
	g.oscs = append(g.oscs, o)
	return o
}

func (g *fakeGraph) Master() Gain { return g.master }

func (g *fakeGraph) AfterFunc(d float64, f func()) Timer {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	t := &fakeTimer{g: g, at: g.now + d, f: f, id: g.seq}
	g.timers = append(g.timers, t)
	return t
}

// advance moves the clock forward by d seconds, firing due timers in order.
func (g *fakeGraph) advance(d float64) {
	g.mu.Lock()
	target := g.now + d
	for {
		sort.SliceStable(g.timers, func(i, j int) bool {
			if g.timers[i].at != g.timers[j].at {
				return g.timers[i].at < g.timers[j].at
			}
			return g.timers[i].id < g.timers[j].id
		})
		if len(g.timers) == 0 || g.timers[0].at > target+1e-12 {
			break
		}
		t := g.timers[0]
		g.timers = g.timers[1:]
		t.fired = true
		if t.at > g.now {
			g.now = t.at
		}
		g.mu.Unlock()
		t.f()
		g.mu.Lock()
	}
	g.now = target
	g.mu.Unlock()
}

func (g *fakeGraph) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}

func (g *fakeGraph) startOrder() []*fakeOsc {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*fakeOsc, len(g.starts))
	copy(out, g.starts)
	return out
}

type fakeTimer struct {
	g     *fakeGraph
	at    float64
	f     func()
	id    int
	fired bool
}

func (t *fakeTimer) Stop() bool {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.fired {
		return false
	}
	for i, x := range t.g.timers {
		if x == t {
			t.g.timers = append(t.g.timers[:i], t.g.timers[i+1:]...)
			return true
		}
	}
	return false
}

type fakeGain struct {
	g      *fakeGraph
	events []paramEvent
	out    Gain
}

func (n *fakeGain) SetValueAtTime(value, at float64) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	n.events = append(n.events, paramEvent{kind: "value", value: value, at: at})
}

func (n *fakeGain) SetTargetAtTime(target, start, timeConstant float64) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	n.events = append(n.events, paramEvent{kind: "target", value: target, at: start, tau: timeConstant})
}

func (n *fakeGain) CancelScheduledValues(from float64) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	n.events = append(n.events, paramEvent{kind: "cancel", at: from})
}

func (n *fakeGain) Connect(dst Gain) {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	n.out = dst
}

func (n *fakeGain) Disconnect(dst Gain) error {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	if n.out != dst {
		return errNotConnected
	}
	n.out = nil
	return nil
}

func (n *fakeGain) history() []paramEvent {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	out := make([]paramEvent, len(n.events))
	copy(out, n.events)
	return out
}

type fakeOsc struct {
	g          *fakeGraph
	frequency  float64
	detune     float64
	waveform   Waveform
	started    bool
	startedAt  float64
	stops      int
	out        Gain
	failDetach bool
}

func (o *fakeOsc) SetFrequency(frequency, at float64) {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	o.frequency = frequency
}

func (o *fakeOsc) Start() {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	o.started = true
	o.startedAt = o.g.now
	o.g.starts = append(o.g.starts, o)
}

func (o *fakeOsc) Stop() error {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	o.stops++
	return nil
}

func (o *fakeOsc) Connect(dst Gain) {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	o.out = dst
}

func (o *fakeOsc) Disconnect(dst Gain) error {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	if o.failDetach || o.out != dst {
		return errNotConnected
	}
	o.out = nil
	return nil
}

func (o *fakeOsc) isStarted() bool {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	return o.started
}

func (o *fakeOsc) stopCount() int {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	return o.stops
}

func oscOf(s *Sound) *fakeOsc   { return s.osc.(*fakeOsc) }
func gainOf(s *Sound) *fakeGain { return s.env.node.(*fakeGain) }

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}

// waitFor polls cond, for state changed by sequence goroutines.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
