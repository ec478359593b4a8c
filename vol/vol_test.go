package vol_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/autocall/vol"
)

func TestFlat(t *testing.T) {
	t.Parallel()

	f := vol.Flat(0.2331)
	assert.InDelta(t, 0.2331*0.2331*2, f.BlackVariance(2, 18.81), 1e-15)
	assert.InDelta(t, 0.2331*0.2331*0.5, f.BlackForwardVariance(1.5, 2, 18.81), 1e-15)
	assert.Equal(t, 0.0, f.BlackForwardVariance(2, 1, 18.81))
}

func TestSurfaceInterpolation(t *testing.T) {
	t.Parallel()

	s, err := vol.NewSurface(
		[]float64{1, 2},
		[]float64{10, 20},
		[][]float64{
			{0.20, 0.22},
			{0.30, 0.32},
		},
	)
	require.NoError(t, err)

	// On the grid.
	assert.InDelta(t, 0.20, s.BlackVol(1, 10), 1e-12)
	assert.InDelta(t, 0.32*0.32*2, s.BlackVariance(2, 20), 1e-12)

	// Linear in strike at a node expiry.
	assert.InDelta(t, 0.25, s.BlackVol(1, 15), 1e-12)

	// Linear in total variance between expiries.
	w1, w2 := 0.20*0.20*1, 0.22*0.22*2
	assert.InDelta(t, (w1+w2)/2, s.BlackVariance(1.5, 10), 1e-12)
	assert.InDelta(t, w2-w1, s.BlackForwardVariance(1, 2, 10), 1e-12)

	// Flat extrapolation.
	assert.InDelta(t, 0.20, s.BlackVol(0.25, 5), 1e-12)
	assert.InDelta(t, 0.32, s.BlackVol(5, 50), 1e-12)
	assert.InDelta(t, math.Sqrt(w2/2), s.BlackVol(2, 10), 1e-12)
}

func TestNewSurfaceRejects(t *testing.T) {
	t.Parallel()

	_, err := vol.NewSurface([]float64{2, 1}, []float64{10}, [][]float64{{0.2, 0.2}})
	assert.Error(t, err)
	_, err = vol.NewSurface([]float64{1}, []float64{10, 20}, [][]float64{{0.2}})
	assert.Error(t, err)
	_, err = vol.NewSurface([]float64{1}, []float64{10}, [][]float64{{-0.2}})
	assert.Error(t, err)
	_, err = vol.NewSurface([]float64{0, 1}, []float64{10}, [][]float64{{0.2, 0.2}})
	assert.Error(t, err)
}
