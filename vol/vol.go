// Package vol provides the volatility collaborator: a flat Black volatility
// or a grid surface of Black volatilities indexed by expiry and strike.
package vol

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Source supplies Black volatilities and variances. Times are year fractions
// from the settlement date.
type Source interface {
	BlackVol(t, strike float64) float64
	BlackVariance(t, strike float64) float64
	BlackForwardVariance(t1, t2, strike float64) float64
}

// Flat is a constant Black volatility.
type Flat float64

func (f Flat) BlackVol(t, strike float64) float64 { return float64(f) }

func (f Flat) BlackVariance(t, strike float64) float64 {
	return float64(f) * float64(f) * math.Max(t, 0)
}

func (f Flat) BlackForwardVariance(t1, t2, strike float64) float64 {
	return float64(f) * float64(f) * math.Max(t2-t1, 0)
}

// Surface is a Black volatility grid. Vols[i][j] is the vol for Strikes[i]
// at Times[j]. Total variance is interpolated linearly in time, vol linearly
// in strike; outside the grid values are held flat in strike and in vol
// along time.
type Surface struct {
	times   []float64
	strikes []float64
	vols    [][]float64
}

// NewSurface validates and copies the grid.
func NewSurface(times, strikes []float64, vols [][]float64) (*Surface, error) {
	if len(times) == 0 || len(strikes) == 0 {
		return nil, fmt.Errorf("NewSurface: times and strikes are required")
	}
	if !sort.Float64sAreSorted(times) || !sort.Float64sAreSorted(strikes) {
		return nil, fmt.Errorf("NewSurface: times and strikes must be ascending")
	}
	if times[0] <= 0 {
		return nil, fmt.Errorf("NewSurface: first expiry must be after settlement")
	}
	if len(vols) != len(strikes) {
		return nil, fmt.Errorf("NewSurface: %d vol rows for %d strikes", len(vols), len(strikes))
	}
	s := &Surface{
		times:   append([]float64(nil), times...),
		strikes: append([]float64(nil), strikes...),
		vols:    make([][]float64, len(vols)),
	}
	for i, row := range vols {
		if len(row) != len(times) {
			return nil, fmt.Errorf("NewSurface: row %d has %d vols for %d expiries", i, len(row), len(times))
		}
		if floats.HasNaN(row) || floats.Min(row) <= 0 {
			return nil, fmt.Errorf("NewSurface: row %d has non-positive or NaN vols", i)
		}
		s.vols[i] = append([]float64(nil), row...)
	}
	return s, nil
}

// BlackVol returns sqrt(variance / t); at t <= 0 the first expiry vol is used.
func (s *Surface) BlackVol(t, strike float64) float64 {
	if t <= 0 {
		return s.volAt(0, strike)
	}
	return math.Sqrt(s.BlackVariance(t, strike) / t)
}

// BlackVariance returns the total Black variance to t at strike.
func (s *Surface) BlackVariance(t, strike float64) float64 {
	if t <= 0 {
		return 0
	}
	n := len(s.times)
	if t <= s.times[0] {
		v := s.volAt(0, strike)
		return v * v * t
	}
	if t >= s.times[n-1] {
		v := s.volAt(n-1, strike)
		return v * v * t
	}
	j := sort.SearchFloat64s(s.times, t)
	t1, t2 := s.times[j-1], s.times[j]
	v1, v2 := s.volAt(j-1, strike), s.volAt(j, strike)
	w1, w2 := v1*v1*t1, v2*v2*t2
	return w1 + (w2-w1)*(t-t1)/(t2-t1)
}

// BlackForwardVariance returns the variance accrued between t1 and t2.
func (s *Surface) BlackForwardVariance(t1, t2, strike float64) float64 {
	return math.Max(s.BlackVariance(t2, strike)-s.BlackVariance(t1, strike), 0)
}

// volAt interpolates the vol at expiry column j linearly in strike.
func (s *Surface) volAt(j int, strike float64) float64 {
	m := len(s.strikes)
	if m == 1 || strike <= s.strikes[0] {
		return s.vols[0][j]
	}
	if strike >= s.strikes[m-1] {
		return s.vols[m-1][j]
	}
	i := sort.SearchFloat64s(s.strikes, strike)
	k1, k2 := s.strikes[i-1], s.strikes[i]
	v1, v2 := s.vols[i-1][j], s.vols[i][j]
	return v1 + (v2-v1)*(strike-k1)/(k2-k1)
}
