// Package curve provides the discount-curve collaborator consumed by the
// simulation. Curves are built once from already-known discount factors or
// zero rates and are immutable afterwards, so a single *Curve may be shared
// by any number of concurrent readers.
package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/autocall/utils"
)

// DiscountCurve provides discount factors by date or by year fraction from
// the curve's reference date.
type DiscountCurve interface {
	DF(t time.Time) float64
	Discount(t float64) float64
	ReferenceDate() time.Time
}

// Curve is a log-linear discount curve over explicit nodes.
//
// Node times are year fractions from the reference date under dayCount.
// Beyond the last node the last forward rate is extended flat.
type Curve struct {
	reference time.Time
	dayCount  string
	times     []float64
	dfs       []float64
}

// NewCurveFromDFs creates a curve from explicitly provided discount factors.
//
// A node at the reference date with DF = 1 is implied when absent.
func NewCurveFromDFs(reference time.Time, dfs map[time.Time]float64, dayCount string) (*Curve, error) {
	if reference.IsZero() {
		return nil, fmt.Errorf("NewCurveFromDFs: reference date is required")
	}
	if len(dfs) == 0 {
		return nil, fmt.Errorf("NewCurveFromDFs: at least one discount factor is required")
	}

	dates := make([]time.Time, 0, len(dfs))
	for d, df := range dfs {
		if d.Before(reference) {
			return nil, fmt.Errorf("NewCurveFromDFs: node %s precedes reference %s", d.Format(utils.DateLayout), reference.Format(utils.DateLayout))
		}
		if !(df > 0) || math.IsInf(df, 0) {
			return nil, fmt.Errorf("NewCurveFromDFs: discount factor %v at %s must be positive and finite", df, d.Format(utils.DateLayout))
		}
		dates = append(dates, d)
	}
	utils.SortDates(dates)

	c := &Curve{reference: reference, dayCount: dayCount}
	if !dates[0].Equal(reference) {
		c.times = append(c.times, 0)
		c.dfs = append(c.dfs, 1)
	}
	for _, d := range dates {
		c.times = append(c.times, utils.YearFraction(reference, d, dayCount))
		c.dfs = append(c.dfs, dfs[d])
	}
	return c, nil
}

// NewCurveFromZeroRates creates a curve from continuously compounded zero
// rates in decimal (0.01 == 1%).
func NewCurveFromZeroRates(reference time.Time, zeros map[time.Time]float64, dayCount string) (*Curve, error) {
	dfs := make(map[time.Time]float64, len(zeros))
	for d, z := range zeros {
		t := utils.YearFraction(reference, d, dayCount)
		dfs[d] = math.Exp(-z * t)
	}
	c, err := NewCurveFromDFs(reference, dfs, dayCount)
	if err != nil {
		return nil, fmt.Errorf("NewCurveFromZeroRates: %w", err)
	}
	return c, nil
}

// NewFlatCurve creates a curve with a single continuously compounded rate.
func NewFlatCurve(reference time.Time, rate float64, dayCount string) *Curve {
	// One node one year out fixes the forward; extrapolation keeps it flat.
	return &Curve{
		reference: reference,
		dayCount:  dayCount,
		times:     []float64{0, 1},
		dfs:       []float64{1, math.Exp(-rate)},
	}
}

// ReferenceDate returns the date at which DF == 1.
func (c *Curve) ReferenceDate() time.Time {
	return c.reference
}

// DayCount returns the convention mapping dates to curve time.
func (c *Curve) DayCount() string {
	return c.dayCount
}

// DF returns the discount factor for a payment date.
func (c *Curve) DF(t time.Time) float64 {
	return c.Discount(utils.YearFraction(c.reference, t, c.dayCount))
}

// Discount returns the discount factor at year fraction t.
func (c *Curve) Discount(t float64) float64 {
	if t <= 0 {
		return 1
	}
	if len(c.times) == 1 {
		return c.dfs[0]
	}
	i1, i2 := bracket(c.times, t)
	t1, t2 := c.times[i1], c.times[i2]
	df1, df2 := c.dfs[i1], c.dfs[i2]
	if t2 == t1 {
		return df1
	}
	forwardRate := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-forwardRate*(t-t1))
}

// ZeroRate returns the continuously compounded zero rate at year fraction t.
func (c *Curve) ZeroRate(t float64) float64 {
	if t <= 0 {
		t = 1.0 / 365.0
	}
	return -math.Log(c.Discount(t)) / t
}
