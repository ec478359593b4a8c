// Package stats accumulates running moments of simulated outcomes.
//
// Central moments are updated one value at a time and two accumulators can
// be merged exactly, so workers may each own a partial accumulator and the
// caller combines them after the run.
package stats

import (
	"math"

	"github.com/meenmo/autocall/errs"
)

// Accumulator holds the count, mean and central moment sums M2..M4.
// The zero value is ready to use. It is not safe for concurrent use.
type Accumulator struct {
	n    float64
	mean float64
	m2   float64
	m3   float64
	m4   float64
	min  float64
	max  float64
}

// Add ingests one outcome. Non-finite values are rejected and leave the
// accumulator untouched.
func (a *Accumulator) Add(x float64) error {
	if !errs.Finite(x) {
		return errs.Degenerate("Accumulator.Add: non-finite outcome %v", x)
	}
	if a.n == 0 {
		a.min, a.max = x, x
	} else {
		a.min = math.Min(a.min, x)
		a.max = math.Max(a.max, x)
	}

	n1 := a.n
	a.n++
	n := a.n
	delta := x - a.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1

	a.mean += deltaN
	a.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*a.m2 - 4*deltaN*a.m3
	a.m3 += term1*deltaN*(n-2) - 3*deltaN*a.m2
	a.m2 += term1
	return nil
}

// Merge folds b into a as if every value of b had been added to a.
func (a *Accumulator) Merge(b *Accumulator) {
	if b == nil || b.n == 0 {
		return
	}
	if a.n == 0 {
		*a = *b
		return
	}

	na, nb := a.n, b.n
	n := na + nb
	delta := b.mean - a.mean
	d2 := delta * delta

	m2 := a.m2 + b.m2 + d2*na*nb/n
	m3 := a.m3 + b.m3 +
		d2*delta*na*nb*(na-nb)/(n*n) +
		3*delta*(na*b.m2-nb*a.m2)/n
	m4 := a.m4 + b.m4 +
		d2*d2*na*nb*(na*na-na*nb+nb*nb)/(n*n*n) +
		6*d2*(na*na*b.m2+nb*nb*a.m2)/(n*n) +
		4*delta*(na*b.m3-nb*a.m3)/n

	a.mean += delta * nb / n
	a.m2, a.m3, a.m4 = m2, m3, m4
	a.n = n
	a.min = math.Min(a.min, b.min)
	a.max = math.Max(a.max, b.max)
}

// Reset empties the accumulator.
func (a *Accumulator) Reset() { *a = Accumulator{} }

// Count is the number of accepted outcomes.
func (a *Accumulator) Count() int { return int(a.n) }

// Mean is zero for an empty accumulator.
func (a *Accumulator) Mean() float64 { return a.mean }

// Variance is the unbiased sample variance; zero below two samples.
func (a *Accumulator) Variance() float64 {
	if a.n < 2 {
		return 0
	}
	return a.m2 / (a.n - 1)
}

func (a *Accumulator) StdDev() float64 { return math.Sqrt(a.Variance()) }

// ErrorEstimate is the standard error of the mean.
func (a *Accumulator) ErrorEstimate() float64 {
	if a.n == 0 {
		return 0
	}
	return a.StdDev() / math.Sqrt(a.n)
}

// Skewness is the adjusted sample skewness. Zero when undefined (fewer
// than three samples or no dispersion).
func (a *Accumulator) Skewness() float64 {
	n := a.n
	s := a.StdDev()
	if n < 3 || s == 0 {
		return 0
	}
	return n / ((n - 1) * (n - 2)) * a.m3 / (s * s * s)
}

// Kurtosis is the adjusted sample excess kurtosis. Zero when undefined
// (fewer than four samples or no dispersion).
func (a *Accumulator) Kurtosis() float64 {
	n := a.n
	v := a.Variance()
	if n < 4 || v == 0 {
		return 0
	}
	mul := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	sub := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return mul*a.m4/(v*v) - sub
}

func (a *Accumulator) Min() float64 { return a.min }
func (a *Accumulator) Max() float64 { return a.max }

// Result snapshots the current moments.
func (a *Accumulator) Result() Result {
	return Result{
		Samples:       a.Count(),
		Mean:          a.Mean(),
		StdDev:        a.StdDev(),
		Skewness:      a.Skewness(),
		Kurtosis:      a.Kurtosis(),
		Min:           a.min,
		Max:           a.max,
		ErrorEstimate: a.ErrorEstimate(),
	}
}
