package theory

import (
	"math"
	"strings"
)

// MIDIA4 is the MIDI note number of A4, the 440Hz reference.
const MIDIA4 = 69

// NoteNumberOptions configures EqualTemperedNoteNumber.
type NoteNumberOptions struct {
	ReferenceFrequency float64 // 0 means 440
	ReferencePoint     float64 // note number of the reference frequency
	Semitones          float64 // steps per octave, 0 means 12
	Round              bool
}

// DefaultNoteNumberOptions is 12-TET around A440 with rounding.
func DefaultNoteNumberOptions() NoteNumberOptions {
	return NoteNumberOptions{
		ReferenceFrequency: 440,
		ReferencePoint:     0,
		Semitones:          12,
		Round:              true,
	}
}

// EqualTemperedNoteNumber maps a frequency to its step number in an equal
// temperament: semitones * log2(frequency/reference) + referencePoint.
// With ReferencePoint set to MIDIA4 the result is a MIDI note number.
func EqualTemperedNoteNumber(frequency float64, opts NoteNumberOptions) float64 {
	ref := opts.ReferenceFrequency
	if ref == 0 {
		ref = 440
	}
	steps := opts.Semitones
	if steps == 0 {
		steps = 12
	}

	n := steps*LogBase(2, frequency/ref) + opts.ReferencePoint
	if opts.Round {
		return round(n)
	}
	return n
}

// FrequencyFromMIDI is the inverse mapping for A440 12-TET.
func FrequencyFromMIDI(n float64) float64 {
	return 440 * math.Pow(2, (n-MIDIA4)/12)
}

// NoteName is a pitch name with its MIDI octave (note 0 is in octave -1).
type NoteName struct {
	Name   string
	Octave int
}

// MIDIToName names the note closest to n in the given pitch set.
// A nil set uses the C spelling.
func MIDIToName(n float64, set *PitchSet) NoteName {
	if set == nil {
		c := mustPitchSet("C")
		set = &c
	}

	i := int(round(n))
	pc := ((i % 12) + 12) % 12
	return NoteName{
		Name:   set[pc],
		Octave: int(math.Floor(float64(i)/12)) - 1,
	}
}

// DecimalsToCents returns how far a fractional note number sits from the
// nearest whole note, in cents within [-50, 50]. Exactly half a step is
// reported as +50.
func DecimalsToCents(n float64) int {
	f := math.Mod(n, 1)
	if f > 0.5 {
		return -int(round((1 - f) * 100))
	}
	return int(round(f * 100))
}

// Note is the nearest equal-tempered note to a frequency.
type Note struct {
	NoteName
	Number          float64 // fractional MIDI note number
	CentsDifference int
	Accidentals     string
}

// NoteDetails finds the A440 12-TET note closest to frequency, spelled
// from tonic.
func NoteDetails(frequency float64, tonic string) (Note, error) {
	set, err := PitchSetFor(tonic)
	if err != nil {
		return Note{}, err
	}

	opts := DefaultNoteNumberOptions()
	opts.ReferencePoint = MIDIA4
	opts.Round = false
	n := EqualTemperedNoteNumber(frequency, opts)

	name := MIDIToName(n, &set)
	return Note{
		NoteName:        name,
		Number:          n,
		CentsDifference: DecimalsToCents(n),
		Accidentals:     EncodeAccidentals(name.Name),
	}, nil
}

// EncodeAccidentals returns the accidentals of a note name as musical
// symbols: "F#" gives "♯", "Bbb" gives "♭♭", "A" gives "".
func EncodeAccidentals(name string) string {
	if len(name) < 2 {
		return ""
	}
	r := strings.NewReplacer("#", "♯", "b", "♭", "x", "𝄪")
	return r.Replace(name[1:])
}
