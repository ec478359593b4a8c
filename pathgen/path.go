package pathgen

import (
	"github.com/meenmo/autocall/errs"
)

// Path is one simulated factor path, one value per grid point. Values are
// not exposed for mutation.
type Path struct {
	grid   *TimeGrid
	values []float64
}

// NewPath copies values onto grid. The lengths must agree.
func NewPath(grid *TimeGrid, values []float64) (Path, error) {
	if grid == nil {
		return Path{}, errs.Precondition("NewPath: grid is required")
	}
	if len(values) != grid.Len() {
		return Path{}, errs.Precondition("NewPath: %d values for %d grid points", len(values), grid.Len())
	}
	return Path{grid: grid, values: append([]float64(nil), values...)}, nil
}

// Len is the number of values on the path.
func (p Path) Len() int { return len(p.values) }

// At returns the value at grid index i.
func (p Path) At(i int) float64 { return p.values[i] }

func (p Path) Front() float64 { return p.values[0] }
func (p Path) Back() float64  { return p.values[len(p.values)-1] }

// Time returns the grid time of index i.
func (p Path) Time(i int) float64 { return p.grid.At(i) }

// Grid returns the grid the path lives on.
func (p Path) Grid() *TimeGrid { return p.grid }

// ValueAt returns the value at the grid point nearest to t.
func (p Path) ValueAt(t float64) float64 {
	return p.values[p.grid.ClosestIndex(t)]
}

// Sample is one Monte Carlo draw: the underlying path first, followed by
// any auxiliary factor paths (the variance path for Heston).
type Sample struct {
	Index int
	Paths []Path
}

// Underlying is the simulated price path.
func (s Sample) Underlying() Path { return s.Paths[0] }
