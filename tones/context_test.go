package tones

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegistry(t *testing.T) {
	c, _, _ := newTestContext()
	r := c.Registry()

	a := c.CreateSound(110)
	b := c.CreateSound(220)
	d := c.CreateSound(330)

	if r.Add(a) {
		t.Fatalf("expected a sound to be registered only once")
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 sounds, got %d", r.Len())
	}

	got := r.FindLast(func(s *Sound) bool { return s.Frequency() < 300 })
	if got != b {
		t.Fatalf("expected the last match to be 220Hz, got %v", got)
	}
	if r.FindLast(func(s *Sound) bool { return s.IsPlaying() }) != nil {
		t.Fatalf("expected no playing sound")
	}

	if !r.Remove(b) || r.Remove(b) {
		t.Fatalf("expected a single successful removal")
	}
	sounds := r.Sounds()
	if len(sounds) != 2 || sounds[0] != a || sounds[1] != d {
		t.Fatalf("expected insertion order kept, got %v", sounds)
	}
}

func TestStopAll(t *testing.T) {
	c, _, _ := newTestContext()
	for _, f := range []float64{110, 220, 330} {
		c.PlayFrequency(f)
	}
	c.CreateSound(440)

	if n := c.StopAll(); n != 4 {
		t.Fatalf("expected 4 sounds stopped, got %d", n)
	}
	if c.Registry().Len() != 0 {
		t.Fatalf("expected empty registry, got %d", c.Registry().Len())
	}
}

func TestFadeAllOnlyFadesPlaying(t *testing.T) {
	c, g, _ := newTestContext()
	held, _ := c.PlayFrequency(110, Held())
	idle := c.CreateSound(220)

	done := c.FadeAll()
	if len(done) != 1 {
		t.Fatalf("expected one fade, got %d", len(done))
	}
	if !held.IsStopping() || idle.State() != Created {
		t.Fatalf("unexpected states %v / %v", held.State(), idle.State())
	}

	g.advance(2)
	if !isClosed(done[0]) || c.Registry().Contains(held) {
		t.Fatalf("expected held sound faded and removed")
	}
	if !c.Registry().Contains(idle) {
		t.Fatalf("expected idle sound untouched")
	}
}

func TestMaxSoundsStopsOldest(t *testing.T) {
	c, _, buf := newTestContext(WithMaxSounds(2))
	a, _ := c.PlayFrequency(110)
	b, _ := c.PlayFrequency(220)
	idle := c.CreateSound(440)
	d, _ := c.PlayFrequency(330)

	if c.Registry().Contains(a) || a.State() != Removed {
		t.Fatalf("expected the oldest sound stopped")
	}
	if !b.IsPlaying() || !d.IsPlaying() {
		t.Fatalf("expected newer sounds kept")
	}
	if !c.Registry().Contains(idle) || idle.State() != Created {
		t.Fatalf("expected the unplayed sound left alone")
	}
	if !strings.Contains(buf.String(), "sound limit 2 reached") {
		t.Fatalf("expected eviction logged, got %q", buf.String())
	}

	c.SetMaxSounds(0)
	for i := 0; i < 10; i++ {
		c.PlayFrequency(440)
	}
	if c.Registry().Len() != 13 {
		t.Fatalf("expected no cap, got %d sounds", c.Registry().Len())
	}
}

func TestMaxSoundsKeepsQueuedSequence(t *testing.T) {
	c, g, _ := newTestContext(WithMaxSounds(3))
	freqs := []float64{110, 220, 330, 440, 550}
	errc := c.PlayFrequenciesSequence(context.Background(), freqs, SequenceOptions{
		Sound: []Option{WithEnvelope(0, 0, 100, 0)},
	})
	if n := c.Registry().Len(); n != len(freqs) {
		t.Fatalf("expected every note queued, got %d", n)
	}

	for i := range freqs {
		waitFor(t, "next tone", func() bool { return len(g.startOrder()) == i+1 })
		g.advance(0.1)
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, o := range g.startOrder() {
		if o.frequency != freqs[i] {
			t.Fatalf("expected %v played in order, got %v at %d", freqs, o.frequency, i)
		}
	}
}

func TestContextsAreIndependent(t *testing.T) {
	c1, _, _ := newTestContext()
	c2, _, _ := newTestContext()
	s := c1.CreateSound(440)

	if c2.Registry().Contains(s) || c2.Registry().Len() != 0 {
		t.Fatalf("expected contexts not to share registries")
	}
}

func TestDefaults(t *testing.T) {
	o := DefaultSoundOptions()
	o.Release = 100
	o.Waveform = Sawtooth
	c, _, _ := newTestContext(WithDefaults(o))

	s := c.CreateSound(440)
	if !near(s.Duration(), 0.15+0.2+0.1) || s.Waveform() != Sawtooth {
		t.Fatalf("expected context defaults applied, got %v %v", s.Duration(), s.Waveform())
	}

	c.SetDefaults(DefaultSoundOptions())
	if s := c.CreateSound(440); !near(s.Duration(), 1.6) {
		t.Fatalf("expected new defaults applied, got %v", s.Duration())
	}
}

func TestPlaySequenceIsStrictlySequential(t *testing.T) {
	c, g, _ := newTestContext()
	a := c.CreateSound(110, WithSustain(100))
	b := c.CreateSound(220, WithSustain(200))
	d := c.CreateSound(330, WithSustain(300))

	errc := c.PlaySequence(context.Background(), []*Sound{a, b, d}, SequenceOptions{})

	waitFor(t, "first sound", a.IsPlaying)
	if b.State() != Created || d.State() != Created {
		t.Fatalf("expected later sounds to wait, got %v / %v", b.State(), d.State())
	}

	// a is audible for 0.15+0.2+0.1
	g.advance(0.44)
	if b.State() != Created {
		t.Fatalf("expected b to wait for a")
	}
	g.advance(0.01)
	waitFor(t, "second sound", b.IsPlaying)
	if d.State() != Created {
		t.Fatalf("expected d to wait for b")
	}

	g.advance(0.55)
	waitFor(t, "third sound", func() bool { return d.State() != Created })
	g.advance(0.65)

	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := g.startOrder()
	if len(order) != 3 || order[0] != oscOf(a) || order[1] != oscOf(b) || order[2] != oscOf(d) {
		t.Fatalf("expected start order a, b, d")
	}
	if !near(order[1].startedAt, 0.45) || !near(order[2].startedAt, 1.0) {
		t.Fatalf("expected starts at 0.45 and 1.0, got %v and %v", order[1].startedAt, order[2].startedAt)
	}
}

func TestPlaySequenceCopiesAndSpeed(t *testing.T) {
	c, g, _ := newTestContext()
	a := c.CreateSound(110, WithSustain(1000))
	b := c.CreateSound(220, WithSustain(1000))

	errc := c.PlaySequence(context.Background(), []*Sound{a, b}, SequenceOptions{Copy: true, Speed: 2})

	if c.Registry().Len() != 4 {
		t.Fatalf("expected copies registered next to originals, got %d", c.Registry().Len())
	}
	for _, s := range []*Sound{a, b} {
		if s.State() != Created || !near(s.Envelope().Values().Sustain, 1) {
			t.Fatalf("expected originals untouched, got %v %+v", s.State(), s.Envelope().Values())
		}
	}

	sounds := c.Registry().Sounds()
	ca, cb := sounds[2], sounds[3]
	if !near(ca.Envelope().Values().Sustain, 0.5) || !near(cb.Envelope().Values().Sustain, 0.5) {
		t.Fatalf("expected copies sped up")
	}

	waitFor(t, "first copy", ca.IsPlaying)
	g.advance(0.85)
	waitFor(t, "second copy", cb.IsPlaying)
	g.advance(0.85)

	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPlaySequenceHeldDoesNotBlock(t *testing.T) {
	c, _, _ := newTestContext()
	a := c.CreateSound(110, Held())
	b := c.CreateSound(220, Held())

	if err := <-c.PlaySequence(context.Background(), []*Sound{a, b}, SequenceOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.IsPlaying() || !b.IsPlaying() {
		t.Fatalf("expected both held sounds playing")
	}
}

func TestPlaySequenceCancel(t *testing.T) {
	c, _, _ := newTestContext()
	a := c.CreateSound(110)
	b := c.CreateSound(220)

	ctx, cancel := context.WithCancel(context.Background())
	errc := c.PlaySequence(ctx, []*Sound{a, b}, SequenceOptions{Copy: true})

	sounds := c.Registry().Sounds()
	ca, cb := sounds[2], sounds[3]
	waitFor(t, "first copy", ca.IsPlaying)
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cb.State() != Removed || c.Registry().Contains(cb) {
		t.Fatalf("expected unplayed copy removed, got %v", cb.State())
	}
	if !c.Registry().Contains(a) || !c.Registry().Contains(b) {
		t.Fatalf("expected originals kept")
	}
}

func TestPlayFrequenciesSequence(t *testing.T) {
	c, g, _ := newTestContext()
	errc := c.PlayFrequenciesSequence(context.Background(), []float64{220, 330}, SequenceOptions{
		Sound: []Option{WithEnvelope(0, 0, 100, 0)},
	})

	waitFor(t, "first tone", func() bool { return len(g.startOrder()) == 1 })
	g.advance(0.1)
	waitFor(t, "second tone", func() bool { return len(g.startOrder()) == 2 })
	g.advance(0.1)

	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := g.startOrder()
	if order[0].frequency != 220 || order[1].frequency != 330 {
		t.Fatalf("expected 220 then 330, got %v then %v", order[0].frequency, order[1].frequency)
	}
}

func TestPlayFrequenciesSequenceCancelRemovesUnplayed(t *testing.T) {
	c, _, _ := newTestContext()
	ctx, cancel := context.WithCancel(context.Background())
	errc := c.PlayFrequenciesSequence(ctx, []float64{220, 330, 440}, SequenceOptions{})

	sounds := c.Registry().Sounds()
	waitFor(t, "first tone", sounds[0].IsPlaying)
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.Registry().Len() != 1 || !c.Registry().Contains(sounds[0]) {
		t.Fatalf("expected only the playing tone kept, got %d sounds", c.Registry().Len())
	}
	if sounds[1].State() != Removed || sounds[2].State() != Removed {
		t.Fatalf("expected unplayed tones removed")
	}
}

func TestPlaySequenceBefore(t *testing.T) {
	c, _, _ := newTestContext()
	a := c.CreateSound(110, Held())
	b := c.CreateSound(220, Held())

	var seen []int
	errc := c.PlaySequence(context.Background(), []*Sound{a, b}, SequenceOptions{
		Before: func(i int) { seen = append(seen, i) },
	})
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("expected Before for each sound in order, got %v", seen)
	}
}
