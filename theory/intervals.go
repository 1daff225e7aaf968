package theory

import "strconv"

// UnknownInterval is the label for ratios missing from the table.
const UnknownInterval = "Unknown interval"

var intervalNames = map[string]string{
	"1/1":     "Unison",
	"2/1":     "Octave",
	"3/2":     "Perfect fifth",
	"4/3":     "Perfect fourth",
	"5/4":     "Major third",
	"6/5":     "Minor third",
	"5/3":     "Major sixth",
	"8/5":     "Minor sixth",
	"9/8":     "Major whole tone",
	"10/9":    "Minor whole tone",
	"16/15":   "Diatonic semitone",
	"25/24":   "Chromatic semitone",
	"15/8":    "Major seventh",
	"16/9":    "Pythagorean minor seventh",
	"9/5":     "Just minor seventh",
	"7/4":     "Harmonic seventh",
	"7/5":     "Septimal tritone",
	"7/6":     "Septimal minor third",
	"8/7":     "Septimal whole tone",
	"9/7":     "Septimal major third",
	"11/8":    "Undecimal tritone",
	"11/10":   "Undecimal neutral second",
	"12/11":   "Undecimal neutral second",
	"11/9":    "Undecimal neutral third",
	"13/8":    "Tridecimal neutral sixth",
	"13/12":   "Tridecimal minor second",
	"14/13":   "Tridecimal supraminor second",
	"15/14":   "Septimal diatonic semitone",
	"17/16":   "Septendecimal semitone",
	"45/32":   "Augmented fourth",
	"64/45":   "Diminished fifth",
	"81/64":   "Pythagorean major third",
	"32/27":   "Pythagorean minor third",
	"256/243": "Pythagorean limma",
	"27/16":   "Pythagorean major sixth",
	"243/128": "Pythagorean major seventh",
}

// IntervalName names the interval a ratio stands for, trying both n/d and
// d/n. Ratios missing from the table get UnknownInterval.
func IntervalName(r Ratio) string {
	r = r.Improper()
	n, d := strconv.Itoa(r.Numerator), strconv.Itoa(r.Denominator)
	if name, ok := intervalNames[n+"/"+d]; ok {
		return name
	}
	if name, ok := intervalNames[d+"/"+n]; ok {
		return name
	}
	return UnknownInterval
}
