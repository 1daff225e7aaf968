package theory

import "math"

// Pitched is anything with a frequency: a bare Hz value or a playing tone.
type Pitched interface {
	Frequency() float64
}

// Hz is a bare frequency.
type Hz float64

// Frequency implements Pitched.
func (h Hz) Frequency() float64 { return float64(h) }

// ReduceToSameOctave doubles or halves target until its ratio to reference
// lies within [0.5, 2]. With excludeOctave the bounds themselves are folded
// once more, so the result is never exactly an octave away from reference.
//
// Inputs that are not positive and finite are returned unchanged.
func ReduceToSameOctave(target, reference Pitched, excludeOctave bool) float64 {
	f, ref := target.Frequency(), reference.Frequency()
	if !positive(f) || !positive(ref) {
		return f
	}

	ratio := f / ref
	if excludeOctave {
		for ratio <= 0.5 || ratio >= 2 {
			if ratio <= 0.5 {
				f *= 2
			} else {
				f /= 2
			}
			ratio = f / ref
		}
		return f
	}

	for ratio < 0.5 || ratio > 2 {
		if ratio < 0.5 {
			f *= 2
		} else {
			f /= 2
		}
		ratio = f / ref
	}
	return f
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}
