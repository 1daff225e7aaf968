package tones

import (
	"log"
	"sync"

	"git.disy.net/goetz/overtones/theory"
)

// Context builds sounds on a Graph and owns the registry of the live ones.
// Independent contexts share nothing.
type Context struct {
	graph    Graph
	registry *Registry
	logger   *log.Logger

	mu        sync.RWMutex
	defaults  SoundOptions
	maxSounds int
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets where cleanup failures are reported.
func WithLogger(l *log.Logger) ContextOption {
	return func(c *Context) { c.logger = l }
}

// WithDefaults sets the options every new sound starts from.
func WithDefaults(o SoundOptions) ContextOption {
	return func(c *Context) { c.defaults = o }
}

// WithMaxSounds caps how many sounds play at once: starting one more stops
// the oldest sounding one. Sounds that have not been played yet do not
// count and are never stopped for room. 0 means no cap.
func WithMaxSounds(n int) ContextOption {
	return func(c *Context) { c.maxSounds = n }
}

// NewContext returns a Context rendering through g.
func NewContext(g Graph, opts ...ContextOption) *Context {
	c := &Context{
		graph:    g,
		registry: &Registry{},
		logger:   log.Default(),
		defaults: DefaultSoundOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Graph is the graph sounds are built on.
func (c *Context) Graph() Graph {
	return c.graph
}

// Registry holds the live sounds.
func (c *Context) Registry() *Registry {
	return c.registry
}

// Master is the shared output mix.
func (c *Context) Master() Gain {
	return c.graph.Master()
}

// SetVolume sets the master gain from now on.
func (c *Context) SetVolume(v float64) {
	c.graph.Master().SetValueAtTime(v, c.graph.CurrentTime())
}

func (c *Context) Defaults() SoundOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults
}

// SetDefaults replaces the options new sounds start from.
func (c *Context) SetDefaults(o SoundOptions) {
	c.mu.Lock()
	c.defaults = o
	c.mu.Unlock()
}

// SetMaxSounds changes the cap on sounding sounds, see WithMaxSounds.
func (c *Context) SetMaxSounds(n int) {
	c.mu.Lock()
	c.maxSounds = n
	c.mu.Unlock()
}

// CreateSound builds a silent sound at frequency, wires oscillator →
// envelope → master and registers it.
func (c *Context) CreateSound(frequency float64, opts ...Option) *Sound {
	o := c.Defaults()
	for _, opt := range opts {
		opt(&o)
	}
	return c.createSound(frequency, o)
}

func (c *Context) createSound(frequency float64, o SoundOptions) *Sound {
	if o.MaxVolume == 0 {
		o.MaxVolume = o.Volume
	}
	if o.Weigh {
		k := theory.WeighFrequencyLoudness(frequency)
		o.MaxVolume *= k
		o.Volume *= k
	}
	if o.Waveform == "" {
		o.Waveform = Sine
	}

	g := c.graph
	env := NewEnvelope(g, o.Attack, o.Decay, o.Sustain, o.Release)
	env.setVolumes(o.Volume, o.MaxVolume)
	osc := g.NewOscillator(frequency, o.Detune, o.Waveform)

	s := &Sound{
		ctx:       c,
		osc:       osc,
		env:       env,
		frequency: frequency,
		detune:    o.Detune,
		waveform:  o.Waveform,
	}

	osc.Connect(env.node)
	env.node.Connect(g.Master())

	c.registry.Add(s)
	return s
}

// makeRoom stops the oldest playing or fading sounds until next fits under
// the cap.
func (c *Context) makeRoom(next *Sound) {
	c.mu.RLock()
	limit := c.maxSounds
	c.mu.RUnlock()
	if limit <= 0 {
		return
	}

	for {
		var sounding []*Sound
		for _, s := range c.registry.Sounds() {
			if s != next && (s.IsPlaying() || s.IsStopping()) {
				sounding = append(sounding, s)
			}
		}
		if len(sounding) < limit {
			return
		}
		oldest := sounding[0]
		c.logf("sound limit %d reached, stopping %.2fHz", limit, oldest.Frequency())
		if oldest.Stop() == nil {
			// already removed elsewhere; make sure it is gone
			c.registry.Remove(oldest)
		}
	}
}

// DuplicateSound builds a new sound with the frequency, waveform, detune,
// volumes and envelope times of s, with opts applied on top. Loudness
// weighting is not applied again unless an option asks for it.
func (c *Context) DuplicateSound(s *Sound, opts ...Option) *Sound {
	o := s.Options()
	for _, opt := range opts {
		opt(&o)
	}
	return c.createSound(s.Frequency(), o)
}

// PlayFrequency creates a sound and plays it right away.
func (c *Context) PlayFrequency(frequency float64, opts ...Option) (*Sound, <-chan struct{}) {
	s := c.CreateSound(frequency, opts...)
	return s, s.Play()
}

// StopAll stops every live sound.
func (c *Context) StopAll() int {
	return c.registry.StopAll()
}

// FadeAll fades every playing sound.
func (c *Context) FadeAll() []<-chan struct{} {
	return c.registry.FadeAll()
}
