package curve

import "sort"

// bracket returns the indices of two adjacent node times around target.
// If the target is outside the range, the nearest boundary pair is returned
// so the caller extrapolates with the boundary forward rate.
func bracket(times []float64, target float64) (int, int) {
	if len(times) < 2 {
		panic("bracket: need at least 2 nodes")
	}

	// First index with times[i] >= target.
	idx := sort.SearchFloat64s(times, target)

	if idx <= 0 {
		return 0, 1
	}
	if idx >= len(times) {
		return len(times) - 2, len(times) - 1
	}
	return idx - 1, idx
}
