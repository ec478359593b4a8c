// Package model turns a diffusion model selection and market handles into an
// immutable process descriptor, and discretizes it on a time grid for the
// path generator.
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/vol"
)

// HestonParams are the square-root variance parameters.
type HestonParams struct {
	V0    float64 `yaml:"v0"`
	Kappa float64 `yaml:"kappa"`
	Theta float64 `yaml:"theta"`
	Sigma float64 `yaml:"sigma"`
	Rho   float64 `yaml:"rho"`
}

// Params is the model kind plus the parameters the kind needs. The
// lognormal kind takes its volatility from Market.Vol.
type Params struct {
	Kind   Kind
	Heston HestonParams
}

// Market bundles the read-only collaborators a process is built on.
// Dividend may be nil for a non-dividend paying underlying.
type Market struct {
	Spot     float64
	Dividend curve.DiscountCurve
	RiskFree curve.DiscountCurve
	Vol      vol.Source
	Strike   float64
	Maturity float64
}

// Process is a fully parameterized diffusion. It is never modified after
// New returns.
type Process struct {
	kind   Kind
	market Market
	heston HestonParams
	// chol is the lower Cholesky factor of the factor correlation matrix.
	chol [2][2]float64
}

// New validates the market and parameters and resolves the process.
func New(p Params, m Market) (*Process, error) {
	if !(m.Maturity > 0) {
		return nil, errs.Precondition("model.New: maturity %v must be positive", m.Maturity)
	}
	if !(m.Strike > 0) {
		return nil, errs.Precondition("model.New: strike %v must be positive", m.Strike)
	}
	if !(m.Spot > 0) || !errs.Finite(m.Spot) {
		return nil, errs.Precondition("model.New: spot %v must be positive", m.Spot)
	}
	if m.RiskFree == nil {
		return nil, errs.Precondition("model.New: risk-free curve is required")
	}

	proc := &Process{kind: p.Kind, market: m, heston: p.Heston}
	switch p.Kind {
	case BlackScholes:
		if m.Vol == nil {
			return nil, errs.Precondition("model.New: volatility source is required")
		}
	case Heston:
		if err := validateHeston(p.Heston); err != nil {
			return nil, fmt.Errorf("model.New: %w", err)
		}
		l, err := choleskyLower(p.Heston.Rho)
		if err != nil {
			return nil, fmt.Errorf("model.New: %w", err)
		}
		proc.chol = l
	default:
		return nil, fmt.Errorf("model.New: %v: %w", p.Kind, errs.ErrUnsupportedModel)
	}
	return proc, nil
}

func validateHeston(h HestonParams) error {
	fields := []struct {
		name string
		v    float64
	}{{"v0", h.V0}, {"kappa", h.Kappa}, {"theta", h.Theta}, {"sigma", h.Sigma}}
	for _, f := range fields {
		if !errs.Finite(f.v) || f.v < 0 {
			return errs.Precondition("heston %s %v must be non-negative", f.name, f.v)
		}
	}
	if !(math.Abs(h.Rho) < 1) {
		return errs.Precondition("heston rho %v must lie in (-1, 1)", h.Rho)
	}
	return nil
}

func choleskyLower(rho float64) ([2][2]float64, error) {
	corr := mat.NewSymDense(2, []float64{1, rho, rho, 1})
	var chol mat.Cholesky
	if ok := chol.Factorize(corr); !ok {
		return [2][2]float64{}, errs.Precondition("correlation %v is not positive definite", rho)
	}
	var l mat.TriDense
	chol.LTo(&l)
	return [2][2]float64{
		{l.At(0, 0), 0},
		{l.At(1, 0), l.At(1, 1)},
	}, nil
}

// Kind reports the resolved model kind.
func (p *Process) Kind() Kind { return p.kind }

// FactorCount is the number of independent normal draws per time step.
func (p *Process) FactorCount() int {
	if p.kind == Heston {
		return 2
	}
	return 1
}

func (p *Process) Spot() float64     { return p.market.Spot }
func (p *Process) Strike() float64   { return p.market.Strike }
func (p *Process) Maturity() float64 { return p.market.Maturity }

// Market returns the collaborators the process was built on.
func (p *Process) Market() Market { return p.market }

// Forward is the risk-neutral expected spot at t.
func (p *Process) Forward(t float64) float64 {
	return p.market.Spot * p.dividendDiscount(t) / p.market.RiskFree.Discount(t)
}

func (p *Process) dividendDiscount(t float64) float64 {
	if p.market.Dividend == nil {
		return 1
	}
	return p.market.Dividend.Discount(t)
}

// InitialState is the state vector at t = 0: log spot, and the variance for
// the stochastic volatility kind.
func (p *Process) InitialState() []float64 {
	if p.kind == Heston {
		return []float64{math.Log(p.market.Spot), p.heston.V0}
	}
	return []float64{math.Log(p.market.Spot)}
}

// Scheme is a process discretized on a fixed set of times. Step i moves a
// state from times[i] to times[i+1]. A Scheme is read-only and may be
// shared across goroutines.
type Scheme struct {
	stepper stepper
	steps   int
}

type stepper interface {
	step(i int, state, dw []float64)
}

// Discretize precomputes per-step drifts and variances over times, which
// must start at 0 and be strictly increasing.
func (p *Process) Discretize(times []float64) (*Scheme, error) {
	if len(times) < 2 {
		return nil, errs.Precondition("Discretize: at least one step is required")
	}
	if times[0] != 0 {
		return nil, errs.Precondition("Discretize: grid must start at 0, got %v", times[0])
	}
	n := len(times) - 1
	dt := make([]float64, n)
	drift := make([]float64, n)
	for i := 0; i < n; i++ {
		dt[i] = times[i+1] - times[i]
		if !(dt[i] > 0) {
			return nil, errs.Precondition("Discretize: times not increasing at %d", i)
		}
		dr0, dr1 := p.market.RiskFree.Discount(times[i]), p.market.RiskFree.Discount(times[i+1])
		dq0, dq1 := p.dividendDiscount(times[i]), p.dividendDiscount(times[i+1])
		drift[i] = math.Log(dr0/dr1) - math.Log(dq0/dq1)
		if !errs.Finite(drift[i]) {
			return nil, errs.Degenerate("Discretize: drift at step %d", i)
		}
	}

	switch p.kind {
	case BlackScholes:
		s := bsStepper{drift: drift, variance: make([]float64, n), stdDev: make([]float64, n)}
		for i := 0; i < n; i++ {
			v := p.market.Vol.BlackForwardVariance(times[i], times[i+1], p.market.Strike)
			if !errs.Finite(v) || v < 0 {
				return nil, errs.Degenerate("Discretize: variance %v at step %d", v, i)
			}
			s.variance[i] = v
			s.stdDev[i] = math.Sqrt(v)
		}
		return &Scheme{stepper: s, steps: n}, nil
	case Heston:
		return &Scheme{stepper: hestonStepper{drift: drift, dt: dt, params: p.heston, chol: p.chol}, steps: n}, nil
	default:
		return nil, fmt.Errorf("Discretize: %v: %w", p.kind, errs.ErrUnsupportedModel)
	}
}

// Steps is the number of steps the scheme was built for.
func (s *Scheme) Steps() int { return s.steps }

// Step evolves state in place across step i. dw holds FactorCount
// independent standard normals.
func (s *Scheme) Step(i int, state, dw []float64) {
	s.stepper.step(i, state, dw)
}

// bsStepper is exact log-Euler for deterministic rates and variance.
type bsStepper struct {
	drift    []float64
	variance []float64
	stdDev   []float64
}

func (s bsStepper) step(i int, state, dw []float64) {
	state[0] += s.drift[i] - 0.5*s.variance[i] + s.stdDev[i]*dw[0]
}

// hestonStepper is log-Euler for spot with full truncation of the variance.
type hestonStepper struct {
	drift  []float64
	dt     []float64
	params HestonParams
	chol   [2][2]float64
}

func (s hestonStepper) step(i int, state, dw []float64) {
	z1 := s.chol[0][0] * dw[0]
	z2 := s.chol[1][0]*dw[0] + s.chol[1][1]*dw[1]

	dt := s.dt[i]
	v := math.Max(state[1], 0)
	sd := math.Sqrt(v * dt)

	state[0] += s.drift[i] - 0.5*v*dt + sd*z1
	state[1] += s.params.Kappa*(s.params.Theta-v)*dt + s.params.Sigma*sd*z2
}
