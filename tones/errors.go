package tones

import "errors"

// Sentinel errors
var (
	ErrUnknownWaveform = errors.New("unknown waveform")
	ErrUnknownProperty = errors.New("unknown envelope property")
)
