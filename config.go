package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"git.disy.net/goetz/overtones/theory"
	"git.disy.net/goetz/overtones/tones"
)

const defaultConfig = `
{
	"sampleRate": 44100,
	"maxSounds": 50,
	"watchConfig": true,
	"masterVolume": 0.3,
	"fundamental": 110,
	"tonic": "C",
	"overtones": 16,
	"speed": 1,
	"groupNotes": true,
	"octaveReduction": false,
	"sustain": false,
	"sound": {
		"attack": 150,
		"decay": 200,
		"sustain": 0,
		"release": 1250,
		"volume": 1,
		"detune": 0,
		"type": "sine",
		"weigh": false
	},
	"triggers": [
		{ "regex": "hey", "command": "overtone 3" },
		{ "regex": "ho", "command": "play 425" }
	]
}
`

type StaticConfig struct {
	SampleRate  float64 `json:"sampleRate"`
	MaxSounds   int     `json:"maxSounds"`
	WatchConfig bool    `json:"watchConfig"`
}

// Trigger maps input lines matching Regex to a command line.
type Trigger struct {
	Regex   string `json:"regex"`
	Command string `json:"command"`
}

type DynamicConfig struct {
	MasterVolume    float64            `json:"masterVolume"`
	Fundamental     float64            `json:"fundamental"`
	Tonic           string             `json:"tonic"`
	Overtones       int                `json:"overtones"`
	Speed           float64            `json:"speed"`
	GroupNotes      bool               `json:"groupNotes"`
	OctaveReduction bool               `json:"octaveReduction"`
	Sustain         bool               `json:"sustain"`
	Sound           tones.SoundOptions `json:"sound"`
	Triggers        []Trigger          `json:"triggers"`
}

type Config struct {
	StaticConfig
	DynamicConfig
}

// baseConfig is what a config file leaves out.
func baseConfig() Config {
	return Config{
		StaticConfig{SampleRate: 44100},
		DynamicConfig{
			MasterVolume: 1,
			Fundamental:  110,
			Tonic:        "C",
			Overtones:    16,
			Speed:        1,
			GroupNotes:   true,
			Sound:        tones.DefaultSoundOptions(),
		},
	}
}

func ReadConfig(p string) (*Config, error) {
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		err = os.WriteFile(p, []byte(defaultConfig), 0644)
		if err != nil {
			return nil, fmt.Errorf("can't write defaultConfig: %w", err)
		}
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("can't open config: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("can't read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	c := baseConfig()
	err := json.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sampleRate must be positive, was: %v", c.SampleRate)
	}
	if c.Fundamental <= 0 {
		return fmt.Errorf("fundamental must be positive, was: %v", c.Fundamental)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, was: %v", c.Speed)
	}
	if c.Overtones < 1 {
		return fmt.Errorf("overtones must be at least 1, was: %d", c.Overtones)
	}
	if _, err := theory.PitchSetFor(c.Tonic); err != nil {
		return fmt.Errorf("tonic: %w", err)
	}
	w, err := tones.ParseWaveform(string(c.Sound.Waveform))
	if err != nil {
		return err
	}
	c.Sound.Waveform = w
	for _, t := range c.Triggers {
		if _, err := regexp.Compile(t.Regex); err != nil {
			return fmt.Errorf("trigger %q: %w", t.Regex, err)
		}
	}
	return nil
}
