package tones

// SoundOptions configures a new sound. Envelope times are milliseconds.
type SoundOptions struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
	// Volume is the amplitude after the decay, 1 is full scale.
	Volume float64 `json:"volume"`
	// MaxVolume is the peak reached after the attack. 0 means Volume.
	MaxVolume float64  `json:"maxVolume,omitempty"`
	Detune    float64  `json:"detune"`
	Waveform  Waveform `json:"type"`
	// Weigh turns the volume down for frequencies heard as louder.
	Weigh bool `json:"weigh"`
}

// DefaultSoundOptions is a short plucked sine.
func DefaultSoundOptions() SoundOptions {
	return SoundOptions{
		Attack:   150,
		Decay:    200,
		Sustain:  0,
		Release:  1250,
		Volume:   1,
		Detune:   0,
		Waveform: Sine,
	}
}

// Option overrides part of SoundOptions.
type Option func(*SoundOptions)

// WithOptions replaces every setting.
func WithOptions(o SoundOptions) Option {
	return func(so *SoundOptions) { *so = o }
}

// WithEnvelope sets all four envelope times in milliseconds.
func WithEnvelope(attack, decay, sustain, release float64) Option {
	return func(o *SoundOptions) {
		o.Attack, o.Decay, o.Sustain, o.Release = attack, decay, sustain, release
	}
}

func WithSustain(ms float64) Option { return func(o *SoundOptions) { o.Sustain = ms } }
func WithRelease(ms float64) Option { return func(o *SoundOptions) { o.Release = ms } }

// Held makes the sound last until it is faded out or stopped.
func Held() Option {
	return WithSustain(-1)
}

func WithVolume(v float64) Option    { return func(o *SoundOptions) { o.Volume = v } }
func WithMaxVolume(v float64) Option { return func(o *SoundOptions) { o.MaxVolume = v } }
func WithDetune(cents float64) Option {
	return func(o *SoundOptions) { o.Detune = cents }
}
func WithWaveform(w Waveform) Option { return func(o *SoundOptions) { o.Waveform = w } }

// Weighed applies loudness weighting by frequency.
func Weighed(weigh bool) Option {
	return func(o *SoundOptions) { o.Weigh = weigh }
}
