package tones

import (
	"math"
	"sync"

	"git.disy.net/goetz/overtones/theory"
)

// State is where a Sound is in its lifecycle.
type State int

const (
	Created  State = iota // built and registered, silent
	Playing               // envelope scheduled
	Stopping              // fading out
	Removed               // disconnected and deregistered, terminal
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Playing:
		return "playing"
	case Stopping:
		return "stopping"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Sound is an oscillator shaped by an Envelope. Sounds are built by a
// Context and stay in its registry until stopped or removed.
type Sound struct {
	ctx *Context
	osc Oscillator
	env *Envelope

	mu        sync.Mutex
	frequency float64
	detune    float64
	waveform  Waveform
	state     State
	timers    []Timer
	waiters   []chan struct{}
	name      string
	fromClick bool
}

func closedChan() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

// Frequency implements theory.Pitched.
func (s *Sound) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

func (s *Sound) Detune() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detune
}

func (s *Sound) Waveform() Waveform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waveform
}

// Envelope returns the sound's envelope. Changing it through SetProperty
// is seen by the next Play.
func (s *Sound) Envelope() *Envelope {
	return s.env
}

// Duration is the envelope duration in seconds.
func (s *Sound) Duration() float64 {
	return s.env.Duration()
}

func (s *Sound) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sound) IsPlaying() bool  { return s.State() == Playing }
func (s *Sound) IsStopping() bool { return s.State() == Stopping }

// Name is the note label given by whoever displays the sound.
func (s *Sound) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Sound) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// FromClick marks sounds triggered directly by the user. The tones package
// only carries it.
func (s *Sound) FromClick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fromClick
}

func (s *Sound) SetFromClick(v bool) {
	s.mu.Lock()
	s.fromClick = v
	s.mu.Unlock()
}

// Play starts the oscillator and schedules the envelope from now: an
// approach to MaxVolume over the attack, then to Volume over the decay,
// hold for the sustain and fade to silence over the release. Each approach
// uses a time constant of a fifth of its phase, which gets within 1% of the
// target by the end of it.
//
// The returned channel closes once attack+decay+sustain have passed, and
// the sound stops itself after 1.25 times its duration unless it is
// already fading. A held sound schedules neither and gets a closed channel.
// Playing a sound twice, or after it was removed, does nothing. With a sound
// cap on the context, starting may stop the oldest sounding sound.
func (s *Sound) Play() <-chan struct{} {
	if s.State() != Created {
		return closedChan()
	}
	s.ctx.makeRoom(s)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Created {
		return closedChan()
	}
	s.state = Playing

	g := s.ctx.graph
	e := s.env.Values()
	gain := s.env.node
	now := g.CurrentTime()

	s.osc.Start()

	gain.SetTargetAtTime(e.MaxVolume, now, e.Attack/5)
	gain.SetTargetAtTime(e.Volume, now+e.Attack, e.Decay/5)

	if e.Held() {
		return closedChan()
	}

	audible := e.Attack + e.Decay + e.Sustain
	gain.SetValueAtTime(e.Volume, now+audible)
	gain.SetTargetAtTime(0, now+audible, e.Release/5)

	done := make(chan struct{})
	s.waiters = append(s.waiters, done)
	s.timers = append(s.timers,
		g.AfterFunc(audible, func() { s.resolve(done) }),
		g.AfterFunc(e.Duration*1.25, func() {
			if s.State() == Playing {
				s.Stop()
			}
		}),
	)
	return done
}

// FadeOut drops any scheduled envelope and fades to silence over the
// release. The returned channel closes after 1.25 times the release, once
// the sound has been stopped.
func (s *Sound) FadeOut() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Removed {
		return closedChan()
	}

	g := s.ctx.graph
	release := s.env.Values().Release
	now := g.CurrentTime()

	s.env.node.CancelScheduledValues(now)
	s.env.node.SetTargetAtTime(0, now, release/5)
	s.state = Stopping

	done := make(chan struct{})
	s.waiters = append(s.waiters, done)
	s.timers = append(s.timers, g.AfterFunc(release*1.25, func() {
		s.Stop()
		s.resolve(done)
	}))
	return done
}

// resolve closes done unless Remove already did.
func (s *Sound) resolve(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.waiters {
		if w == done {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			close(done)
			return
		}
	}
}

// Options are the settings a copy of the sound is built from: its current
// envelope times and volumes, detune and waveform. Weigh is always off, the
// volumes already carry any weighting.
func (s *Sound) Options() SoundOptions {
	e := s.env.Values()
	return SoundOptions{
		Attack:    e.Attack * 1000,
		Decay:     e.Decay * 1000,
		Sustain:   e.Sustain * 1000,
		Release:   e.Release * 1000,
		Volume:    e.Volume,
		MaxVolume: e.MaxVolume,
		Detune:    s.Detune(),
		Waveform:  s.Waveform(),
	}
}

// Stop halts the oscillator and removes the sound. It returns the sound if
// it was still registered.
func (s *Sound) Stop() *Sound {
	if s.State() == Removed {
		return nil
	}
	if err := s.osc.Stop(); err != nil {
		s.ctx.logf("can't stop oscillator at %.2fHz: %v", s.Frequency(), err)
	}
	return s.Remove()
}

// Remove disconnects the sound from the output, cancels its pending
// envelope and timers, closes any outstanding Play/FadeOut channels and
// takes it out of the registry. Disconnect failures are logged and
// otherwise ignored. It returns the sound if it was still registered.
func (s *Sound) Remove() *Sound {
	s.mu.Lock()
	if s.state == Removed {
		s.mu.Unlock()
		return nil
	}
	s.state = Removed
	timers, waiters := s.timers, s.waiters
	s.timers, s.waiters = nil, nil
	freq := s.frequency
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}

	g := s.ctx.graph
	if err := s.osc.Disconnect(s.env.node); err != nil {
		s.ctx.logf("can't disconnect oscillator at %.2fHz: %v", freq, err)
	}
	s.env.node.CancelScheduledValues(g.CurrentTime())
	if err := s.env.node.Disconnect(g.Master()); err != nil {
		s.ctx.logf("can't disconnect envelope at %.2fHz: %v", freq, err)
	}

	var removed *Sound
	if s.ctx.registry.Remove(s) {
		removed = s
	}
	for _, w := range waiters {
		close(w)
	}
	return removed
}

// Duplicate builds a new registered sound like this one, see
// Context.DuplicateSound.
func (s *Sound) Duplicate(opts ...Option) *Sound {
	return s.ctx.DuplicateSound(s, opts...)
}

// ModifySpeed stretches the hold phase by 1/factor. A sound without a
// sustain phase gets (attack+sustain)/factor as its new sustain.
func (s *Sound) ModifySpeed(factor float64) {
	s.env.stretchHold(1 / factor)
}

// IntervalInCents is the interval from other up to this sound, rounded to
// the cent. With reduceToOctave, other is first moved into this sound's
// octave.
func (s *Sound) IntervalInCents(other theory.Pitched, reduceToOctave bool) int {
	f := other.Frequency()
	if reduceToOctave {
		f = theory.ReduceToSameOctave(theory.Hz(f), s, false)
	}
	return int(math.Floor(1200*theory.LogBase(2, s.Frequency()/f) + 0.5))
}

// IntervalRatio approximates this sound's frequency over other's as a
// fraction, see theory.Fraction.
func (s *Sound) IntervalRatio(other theory.Pitched, reduceToOctave bool) theory.Ratio {
	f := other.Frequency()
	if reduceToOctave {
		f = theory.ReduceToSameOctave(theory.Hz(f), s, false)
	}
	return theory.Fraction(s.Frequency()/f, theory.MaxDenominator)
}

// IsOctaveOf reports whether this sound is a whole number of octaves above
// other. Only exact integral ratios count, see theory.IsPowerOfTwo.
func (s *Sound) IsOctaveOf(other theory.Pitched) bool {
	return theory.IsPowerOfTwo(s.Frequency() / other.Frequency())
}

// ReduceToSameOctaveAs moves this sound into other's octave and retunes
// the oscillator.
func (s *Sound) ReduceToSameOctaveAs(other theory.Pitched, excludeOctave bool) *Sound {
	f := theory.ReduceToSameOctave(s, other, excludeOctave)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequency = f
	s.osc.SetFrequency(f, s.ctx.graph.CurrentTime())
	return s
}
