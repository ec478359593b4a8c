package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/stats"
)

func sampleData(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	xs := make([]float64, n)
	for i := range xs {
		// Skewed, fat-tailed outcomes.
		xs[i] = math.Exp(0.6*rng.NormFloat64()) - 1
	}
	return xs
}

func TestAccumulator_MatchesGonum(t *testing.T) {
	t.Parallel()

	xs := sampleData(5000, 1)
	var acc stats.Accumulator
	for _, x := range xs {
		require.NoError(t, acc.Add(x))
	}

	mean, sd := stat.MeanStdDev(xs, nil)
	assert.Equal(t, 5000, acc.Count())
	assert.InDelta(t, mean, acc.Mean(), 1e-12)
	assert.InDelta(t, sd, acc.StdDev(), 1e-10)
	assert.InDelta(t, stat.Skew(xs, nil), acc.Skewness(), 1e-8)
	assert.InDelta(t, stat.ExKurtosis(xs, nil), acc.Kurtosis(), 1e-7)
	assert.Equal(t, floats.Min(xs), acc.Min())
	assert.Equal(t, floats.Max(xs), acc.Max())
	assert.InDelta(t, sd/math.Sqrt(5000), acc.ErrorEstimate(), 1e-12)
}

func TestAccumulator_MergeEqualsSequential(t *testing.T) {
	t.Parallel()

	xs := sampleData(3001, 2)
	var all stats.Accumulator
	for _, x := range xs {
		require.NoError(t, all.Add(x))
	}

	// Uneven chunks exercise the na != nb terms.
	bounds := []int{0, 17, 900, 2500, 3001}
	var merged stats.Accumulator
	for c := 0; c+1 < len(bounds); c++ {
		var part stats.Accumulator
		for _, x := range xs[bounds[c]:bounds[c+1]] {
			require.NoError(t, part.Add(x))
		}
		merged.Merge(&part)
	}

	want, got := all.Result(), merged.Result()
	assert.Equal(t, want.Samples, got.Samples)
	assert.InDelta(t, want.Mean, got.Mean, 1e-12)
	assert.InDelta(t, want.StdDev, got.StdDev, 1e-10)
	assert.InDelta(t, want.Skewness, got.Skewness, 1e-9)
	assert.InDelta(t, want.Kurtosis, got.Kurtosis, 1e-8)
	assert.Equal(t, want.Min, got.Min)
	assert.Equal(t, want.Max, got.Max)
}

func TestAccumulator_RejectsNonFinite(t *testing.T) {
	t.Parallel()

	var acc stats.Accumulator
	require.NoError(t, acc.Add(1))
	err := acc.Add(math.NaN())
	assert.True(t, errors.Is(err, errs.ErrNumericalDegeneracy))
	err = acc.Add(math.Inf(-1))
	assert.True(t, errors.Is(err, errs.ErrNumericalDegeneracy))
	assert.Equal(t, 1, acc.Count())
	assert.Equal(t, 1.0, acc.Mean())
}

func TestAccumulator_SmallSamples(t *testing.T) {
	t.Parallel()

	var acc stats.Accumulator
	assert.Equal(t, stats.Result{}, acc.Result())

	require.NoError(t, acc.Add(2))
	require.NoError(t, acc.Add(2))
	r := acc.Result()
	assert.Equal(t, 2, r.Samples)
	assert.Equal(t, 0.0, r.StdDev)
	assert.Equal(t, 0.0, r.Skewness)
	assert.Equal(t, 0.0, r.Kurtosis)

	acc.Reset()
	assert.Equal(t, 0, acc.Count())
}

func TestQuantiles(t *testing.T) {
	t.Parallel()

	xs := []float64{5, 1, 4, 2, 3}
	q, err := stats.Quantiles(xs, 0, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5}, q)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, xs)

	_, err = stats.Quantiles(nil, 0.5)
	assert.Error(t, err)
	_, err = stats.Quantiles(xs, 1.5)
	assert.Error(t, err)
}
