package pathgen

import (
	"sort"

	"github.com/meenmo/autocall/errs"
)

// TimeGrid is an equally spaced set of simulation times from 0 to maturity.
type TimeGrid struct {
	times []float64
}

// NewTimeGrid builds steps+1 times covering [0, maturity].
func NewTimeGrid(maturity float64, steps int) (*TimeGrid, error) {
	if !(maturity > 0) {
		return nil, errs.Precondition("NewTimeGrid: maturity %v must be positive", maturity)
	}
	if steps < 1 {
		return nil, errs.Precondition("NewTimeGrid: step count %d must be positive", steps)
	}
	dt := maturity / float64(steps)
	times := make([]float64, steps+1)
	for i := 1; i < steps; i++ {
		times[i] = float64(i) * dt
	}
	times[steps] = maturity
	return &TimeGrid{times: times}, nil
}

// Len is the number of grid points, steps + 1.
func (g *TimeGrid) Len() int { return len(g.times) }

// Steps is the number of intervals.
func (g *TimeGrid) Steps() int { return len(g.times) - 1 }

// At returns the i-th grid time.
func (g *TimeGrid) At(i int) float64 { return g.times[i] }

// Dt returns the length of step i (from At(i) to At(i+1)).
func (g *TimeGrid) Dt(i int) float64 { return g.times[i+1] - g.times[i] }

// Maturity is the last grid time.
func (g *TimeGrid) Maturity() float64 { return g.times[len(g.times)-1] }

// Times returns a copy of the grid times.
func (g *TimeGrid) Times() []float64 { return append([]float64(nil), g.times...) }

// ClosestIndex maps t to the nearest grid point. Ties go to the earlier
// point; times outside the grid clamp to its ends.
func (g *TimeGrid) ClosestIndex(t float64) int {
	n := len(g.times)
	if t <= g.times[0] {
		return 0
	}
	if t >= g.times[n-1] {
		return n - 1
	}
	// First index with times[j] >= t; j is in [1, n-1].
	j := sort.SearchFloat64s(g.times, t)
	if g.times[j]-t < t-g.times[j-1] {
		return j
	}
	return j - 1
}
