package theory

import (
	"math"
	"sort"
)

// loudnessFloor is where weighting starts; frequencies at or below it keep
// full volume.
const loudnessFloor = 100.0

// aWeighting is the IEC 61672 A-weighting gain in dB.
func aWeighting(f float64) float64 {
	f2 := f * f
	num := 12194 * 12194 * f2 * f2
	den := (f2 + 20.6*20.6) *
		math.Sqrt((f2+107.7*107.7)*(f2+737.9*737.9)) *
		(f2 + 12194*12194)
	return 20*math.Log10(num/den) + 2.0
}

// WeighFrequencyLoudness returns a volume multiplier in (0, 1] that turns
// down frequencies the ear hears as louder. It is half of the A-weighting
// gain above loudnessFloor, so the curve is compressed rather than fully
// equalised.
func WeighFrequencyLoudness(frequency float64) float64 {
	excess := aWeighting(frequency) - aWeighting(loudnessFloor)
	if excess <= 0 {
		return 1
	}
	return math.Pow(10, -excess/40)
}

// Nearest returns the value of sorted closest to target; ties go to the
// lower one. sorted must be ascending and non-empty.
func Nearest(target float64, sorted []float64) float64 {
	i := sort.SearchFloat64s(sorted, target)
	if i == 0 {
		return sorted[0]
	}
	if i == len(sorted) {
		return sorted[len(sorted)-1]
	}
	if target-sorted[i-1] <= sorted[i]-target {
		return sorted[i-1]
	}
	return sorted[i]
}
