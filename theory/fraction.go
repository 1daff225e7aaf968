package theory

import (
	"fmt"
	"math"
)

// MaxDenominator bounds the search in interval ratios.
const MaxDenominator = 999

// Ratio is a rational approximation Quotient + Numerator/Denominator.
type Ratio struct {
	Quotient    int
	Numerator   int
	Denominator int
}

// Float returns the value the ratio stands for.
func (r Ratio) Float() float64 {
	if r.Denominator == 0 {
		return math.NaN()
	}
	return float64(r.Quotient) + float64(r.Numerator)/float64(r.Denominator)
}

// Mixed returns the ratio with the integer part split off, 3/2 becomes 1 1/2.
func (r Ratio) Mixed() Ratio {
	if r.Denominator == 0 {
		return r
	}
	n := r.Quotient*r.Denominator + r.Numerator
	q := int(math.Floor(float64(n) / float64(r.Denominator)))
	return Ratio{Quotient: q, Numerator: n - q*r.Denominator, Denominator: r.Denominator}
}

// Improper folds the quotient back into the numerator.
func (r Ratio) Improper() Ratio {
	return Ratio{Numerator: r.Quotient*r.Denominator + r.Numerator, Denominator: r.Denominator}
}

func (r Ratio) String() string {
	if r.Quotient != 0 {
		return fmt.Sprintf("%d %d/%d", r.Quotient, r.Numerator, r.Denominator)
	}
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Fraction returns the rational closest to x whose denominator does not
// exceed maxDenominator, in improper form (Quotient is always 0).
//
// It walks the Stern-Brocot tree keeping the best lower and upper bounds and
// picks the closer one when the next mediant would overflow the denominator.
// Non-finite x yields the zero Ratio.
func Fraction(x float64, maxDenominator int) Ratio {
	if math.IsNaN(x) || math.IsInf(x, 0) || maxDenominator < 1 {
		return Ratio{}
	}

	lo := math.Floor(x)
	if x == lo {
		return Ratio{Numerator: int(lo), Denominator: 1}
	}

	ln, ld := int(lo), 1
	hn, hd := ln+1, 1
	for {
		mn, md := ln+hn, ld+hd
		if md > maxDenominator {
			break
		}
		m := float64(mn) / float64(md)
		if x == m {
			return Ratio{Numerator: mn, Denominator: md}
		}
		if x < m {
			hn, hd = mn, md
		} else {
			ln, ld = mn, md
		}
	}

	if x-float64(ln)/float64(ld) <= float64(hn)/float64(hd)-x {
		return Ratio{Numerator: ln, Denominator: ld}
	}
	return Ratio{Numerator: hn, Denominator: hd}
}
