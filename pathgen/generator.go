// Package pathgen produces reproducible Monte Carlo samples of a diffusion
// process on a time grid.
//
// Sample i always draws from its own random stream derived from the run
// seed and i, so a sample does not depend on how many samples were drawn
// before it or on which goroutine draws it.
package pathgen

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/model"
)

// DefaultSeed replaces a zero seed.
const DefaultSeed uint64 = 0x5eed_2017_0331

// Option configures a Generator.
type Option func(*Generator)

// WithBrownianBridge builds each factor path with a Brownian bridge
// construction instead of sequential increments.
func WithBrownianBridge() Option {
	return func(g *Generator) { g.useBridge = true }
}

// Generator is the read-only description of a sample stream. Sample is
// safe for concurrent use.
type Generator struct {
	process   *model.Process
	scheme    *model.Scheme
	grid      *TimeGrid
	samples   int
	seed      uint64
	useBridge bool
	bridge    *brownianBridge
}

// New discretizes process on grid and prepares a stream of samples.
func New(process *model.Process, grid *TimeGrid, samples int, seed uint64, opts ...Option) (*Generator, error) {
	if process == nil || grid == nil {
		return nil, errs.Precondition("pathgen.New: process and grid are required")
	}
	if samples < 1 {
		return nil, errs.Precondition("pathgen.New: sample count %d must be positive", samples)
	}
	scheme, err := process.Discretize(grid.times)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = DefaultSeed
	}
	g := &Generator{process: process, scheme: scheme, grid: grid, samples: samples, seed: seed}
	for _, opt := range opts {
		opt(g)
	}
	if g.useBridge {
		g.bridge = newBrownianBridge(grid.times)
	}
	return g, nil
}

func (g *Generator) Samples() int         { return g.samples }
func (g *Generator) Grid() *TimeGrid      { return g.grid }
func (g *Generator) Seed() uint64         { return g.seed }
func (g *Generator) FactorCount() int     { return g.process.FactorCount() }
func (g *Generator) BrownianBridge() bool { return g.useBridge }

// Sample draws sample i, 0 <= i < Samples().
func (g *Generator) Sample(i int) (Sample, error) {
	if i < 0 || i >= g.samples {
		return Sample{}, errs.Precondition("Generator.Sample: index %d outside [0, %d)", i, g.samples)
	}

	rng := rand.New(rand.NewSource(streamSeed(g.seed, i)))
	factors := g.process.FactorCount()
	steps := g.grid.Steps()

	// normals[f][s] is the standardized increment of factor f over step s.
	normals := make([][]float64, factors)
	for f := range normals {
		normals[f] = make([]float64, steps)
		for s := range normals[f] {
			normals[f][s] = rng.NormFloat64()
		}
		if g.bridge != nil {
			raw := normals[f]
			normals[f] = make([]float64, steps)
			g.bridge.transform(raw, normals[f])
		}
	}

	values := make([][]float64, factors)
	for f := range values {
		values[f] = make([]float64, steps+1)
	}
	state := g.process.InitialState()
	record := func(s int) {
		values[0][s] = math.Exp(state[0])
		for f := 1; f < factors; f++ {
			values[f][s] = math.Max(state[f], 0)
		}
	}

	record(0)
	values[0][0] = g.process.Spot()
	dw := make([]float64, factors)
	for s := 0; s < steps; s++ {
		for f := range dw {
			dw[f] = normals[f][s]
		}
		g.scheme.Step(s, state, dw)
		record(s + 1)
	}

	paths := make([]Path, factors)
	for f := range paths {
		paths[f] = Path{grid: g.grid, values: values[f]}
	}
	return Sample{Index: i, Paths: paths}, nil
}

// Stream returns a lazy sequential reader over all samples.
func (g *Generator) Stream() *Stream {
	return &Stream{g: g}
}

// Stream yields samples 0..n-1 in order. Reset restarts it; the restarted
// stream repeats the same samples.
type Stream struct {
	g    *Generator
	next int
}

// Next returns the next sample, or false once the stream is exhausted.
func (s *Stream) Next() (Sample, bool) {
	if s.next >= s.g.samples {
		return Sample{}, false
	}
	sample, err := s.g.Sample(s.next)
	if err != nil {
		return Sample{}, false
	}
	s.next++
	return sample, true
}

// Reset rewinds the stream to the first sample.
func (s *Stream) Reset() { s.next = 0 }

// streamSeed derives the seed of sample i with a splitmix64 finalizer.
func streamSeed(seed uint64, i int) uint64 {
	z := seed + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
