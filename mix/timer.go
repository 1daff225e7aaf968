package mix

import (
	"math"

	"git.disy.net/goetz/overtones/tones"
)

// timer fires once the clock reaches frame at.
type timer struct {
	g     *Graph
	at    int64
	f     func()
	fired bool
}

// AfterFunc schedules f on the sample clock. f runs from the rendering
// goroutine, never from within AfterFunc, with the graph unlocked.
func (g *Graph) AfterFunc(d float64, f func()) tones.Timer {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := int64(math.Round(d * g.sampleRate))
	if n < 0 {
		n = 0
	}
	t := &timer{g: g, at: g.frame + n, f: f}

	i := len(g.timers)
	for i > 0 && g.timers[i-1].at > t.at {
		i--
	}
	g.timers = append(g.timers, nil)
	copy(g.timers[i+1:], g.timers[i:])
	g.timers[i] = t
	return t
}

func (t *timer) Stop() bool {
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

// Pending is the number of timers that have not fired.
func (g *Graph) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}

// due pops the timers that have reached the clock. g.mu must be held.
func (g *Graph) due() []func() {
	var fs []func()
	for len(g.timers) > 0 && g.timers[0].at <= g.frame {
		t := g.timers[0]
		g.timers = g.timers[1:]
		t.fired = true
		fs = append(fs, t.f)
	}
	return fs
}

// framesUntilTimer caps n at the distance to the next timer. g.mu must be
// held.
func (g *Graph) framesUntilTimer(n int) int {
	if len(g.timers) == 0 {
		return n
	}
	if d := g.timers[0].at - g.frame; d < int64(n) {
		return int(d)
	}
	return n
}
