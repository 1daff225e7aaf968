// Package theory holds the music-theory arithmetic behind overtones:
// logarithms, rational approximation of frequency ratios, equal-tempered
// note numbers and names, cents deviation and octave reduction.
//
// Nothing in here validates its inputs. A non-positive frequency gives
// NaN or ±Inf the same way math.Log does and callers are expected to guard.
package theory

import "math"

// LogBase returns log_base(n).
func LogBase(base, n float64) float64 {
	return math.Log(n) / math.Log(base)
}

// IsPowerOfTwo reports whether n is a positive integer with a single bit set.
//
// The test is a bit trick on integers. Ratios of frequencies are floats, so
// anything that is not exactly integral is false: 880/440 passes, 440/880
// does not, and neither does 440/220.0001.
func IsPowerOfTwo(n float64) bool {
	if n < 1 || n != math.Trunc(n) || n >= 1<<63 {
		return false
	}
	i := uint64(n)
	return i&(i-1) == 0
}

// round rounds half up, so -0.5 becomes 0 and 0.5 becomes 1.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}
