package pathgen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrownianBridge_TerminalPoint(t *testing.T) {
	t.Parallel()

	times := []float64{0, 0.3, 0.5, 1.1, 1.2, 2}
	b := newBrownianBridge(times)
	in := []float64{0.7, -1.2, 0.4, 2.0, -0.3}
	out := make([]float64, len(in))
	b.transform(in, out)

	// The first draw alone fixes W(T).
	var w float64
	for i, z := range out {
		w += z * math.Sqrt(times[i+1]-times[i])
	}
	assert.InDelta(t, math.Sqrt(2)*in[0], w, 1e-12)
}

func TestBrownianBridge_PreservesVariance(t *testing.T) {
	t.Parallel()

	// Each output increment is a linear map of the inputs; unit variance
	// means the rows of that map have unit norm.
	times := []float64{0, 0.25, 0.5, 0.75, 1, 1.5, 2.25}
	b := newBrownianBridge(times)
	n := len(times) - 1

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		in := make([]float64, n)
		in[j] = 1
		out := make([]float64, n)
		b.transform(in, out)
		for i := range out {
			rows[i][j] = out[i]
		}
	}
	for i, row := range rows {
		var norm float64
		for _, v := range row {
			norm += v * v
		}
		assert.InDelta(t, 1, norm, 1e-12, "increment %d", i)
	}
}
