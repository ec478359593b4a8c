package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Result is the summary of a completed run. Kurtosis is excess kurtosis.
type Result struct {
	Samples       int     `json:"samples"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	Skewness      float64 `json:"skewness"`
	Kurtosis      float64 `json:"kurtosis"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	ErrorEstimate float64 `json:"error_estimate"`
}

func (r Result) String() string {
	return fmt.Sprintf("n=%d mean=%.6f sd=%.6f skew=%.4f kurt=%.4f", r.Samples, r.Mean, r.StdDev, r.Skewness, r.Kurtosis)
}

// Quantiles returns the empirical quantiles of values at each probability
// in ps. values is not modified.
func Quantiles(values []float64, ps ...float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("Quantiles: no values")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	out := make([]float64, len(ps))
	for i, p := range ps {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("Quantiles: probability %v outside [0, 1]", p)
		}
		out[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}
	return out, nil
}
