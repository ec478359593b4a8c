package pathgen

import "math"

// brownianBridge reorders a vector of independent normals so the first draw
// fixes the terminal point of the Brownian path, the next the midpoint, and
// so on. The output is again a vector of standardized increments.
type brownianBridge struct {
	size        int
	sqrtDt      []float64
	bridgeIndex []int
	leftIndex   []int
	rightIndex  []int
	leftWeight  []float64
	rightWeight []float64
	stdDev      []float64
}

// newBrownianBridge builds the construction order for the times after 0.
func newBrownianBridge(times []float64) *brownianBridge {
	t := times[1:]
	size := len(t)
	b := &brownianBridge{
		size:        size,
		sqrtDt:      make([]float64, size),
		bridgeIndex: make([]int, size),
		leftIndex:   make([]int, size),
		rightIndex:  make([]int, size),
		leftWeight:  make([]float64, size),
		rightWeight: make([]float64, size),
		stdDev:      make([]float64, size),
	}

	b.sqrtDt[0] = math.Sqrt(t[0])
	for i := 1; i < size; i++ {
		b.sqrtDt[i] = math.Sqrt(t[i] - t[i-1])
	}

	// filled[k] marks points already fixed by an earlier draw.
	filled := make([]bool, size)
	filled[size-1] = true
	b.bridgeIndex[0] = size - 1
	b.stdDev[0] = math.Sqrt(t[size-1])

	j := 0
	for i := 1; i < size; i++ {
		for filled[j] {
			j++
		}
		k := j
		for !filled[k] {
			k++
		}
		l := j + (k-1-j)/2
		filled[l] = true

		b.bridgeIndex[i] = l
		b.leftIndex[i] = j
		b.rightIndex[i] = k
		if j != 0 {
			left := t[j-1]
			b.leftWeight[i] = (t[k] - t[l]) / (t[k] - left)
			b.rightWeight[i] = (t[l] - left) / (t[k] - left)
			b.stdDev[i] = math.Sqrt((t[l] - left) * (t[k] - t[l]) / (t[k] - left))
		} else {
			b.rightWeight[i] = t[l] / t[k]
			b.stdDev[i] = math.Sqrt(t[l] * (t[k] - t[l]) / t[k])
		}
		j = k + 1
		if j >= size {
			j = 0
		}
	}
	return b
}

// transform maps in to out; both have length size.
func (b *brownianBridge) transform(in, out []float64) {
	out[b.size-1] = b.stdDev[0] * in[0]
	for i := 1; i < b.size; i++ {
		j, k, l := b.leftIndex[i], b.rightIndex[i], b.bridgeIndex[i]
		if j != 0 {
			out[l] = b.leftWeight[i]*out[j-1] + b.rightWeight[i]*out[k] + b.stdDev[i]*in[i]
		} else {
			out[l] = b.rightWeight[i]*out[k] + b.stdDev[i]*in[i]
		}
	}
	for i := b.size - 1; i >= 1; i-- {
		out[i] -= out[i-1]
		out[i] /= b.sqrtDt[i]
	}
	out[0] /= b.sqrtDt[0]
}
