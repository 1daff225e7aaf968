package theory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownNote is returned for a tonic that is not a note name.
var ErrUnknownNote = errors.New("unknown note name")

// PitchSet spells the twelve pitch classes, indexed from C = 0.
type PitchSet [12]string

// chromatic lists the intervals of the chromatic scale as
// (scale degree, semitones above the tonic): P1 m2 M2 m3 M3 P4 4A P5 m6 M6 m7 M7.
var chromatic = [12][2]int{
	{1, 0}, {2, 1}, {2, 2}, {3, 3}, {3, 4}, {4, 5},
	{4, 6}, {5, 7}, {6, 8}, {6, 9}, {7, 10}, {7, 11},
}

const letters = "CDEFGAB"

var letterPitch = [7]int{0, 2, 4, 5, 7, 9, 11}

// PitchSetFor spells the chromatic scale starting on tonic, e.g. "C", "F#"
// or "Bb".
func PitchSetFor(tonic string) (PitchSet, error) {
	var set PitchSet

	letter, pc, err := parseNote(tonic)
	if err != nil {
		return set, err
	}

	for _, iv := range chromatic {
		l := (letter + iv[0] - 1) % 7
		target := (pc + iv[1]) % 12
		acc := target - letterPitch[l]
		if acc > 6 {
			acc -= 12
		} else if acc < -6 {
			acc += 12
		}

		name := string(letters[l])
		if acc > 0 {
			name += strings.Repeat("#", acc)
		} else if acc < 0 {
			name += strings.Repeat("b", -acc)
		}
		set[target] = name
	}
	return set, nil
}

func mustPitchSet(tonic string) PitchSet {
	set, err := PitchSetFor(tonic)
	if err != nil {
		panic(err)
	}
	return set
}

// parseNote returns the letter index and pitch class of a note name.
func parseNote(name string) (letter, pc int, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrUnknownNote)
	}

	letter = strings.IndexByte(letters, strings.ToUpper(name[:1])[0])
	if letter < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}

	pc = letterPitch[letter]
	for _, c := range name[1:] {
		switch c {
		case '#':
			pc++
		case 'b':
			pc--
		case 'x':
			pc += 2
		default:
			return 0, 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
		}
	}
	return letter, ((pc % 12) + 12) % 12, nil
}
