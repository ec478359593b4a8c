package payoff

import (
	"math"

	"github.com/meenmo/autocall/black"
	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/pathgen"
	"github.com/meenmo/autocall/vol"
)

// DefaultDegeneracyFloor is the smallest discount ratio or forward accepted
// during re-hedging.
const DefaultDegeneracyFloor = 1e-12

// ReplicationConfig describes the option sold and the market used to hedge
// it. Discount times are year fractions from the settlement date.
type ReplicationConfig struct {
	Type     black.OptionType
	Strike   float64
	Maturity float64
	Discount curve.DiscountCurve
	Vol      vol.Source
	// DegeneracyFloor defaults to DefaultDegeneracyFloor.
	DegeneracyFloor float64
}

// Replication sells the option at its Black value and delta-hedges it on
// every grid step of the path; the outcome is the final money account.
type Replication struct {
	cfg ReplicationConfig
}

// NewReplication validates the option terms.
func NewReplication(cfg ReplicationConfig) (*Replication, error) {
	if !(cfg.Strike > 0) {
		return nil, errs.Precondition("NewReplication: strike %v must be positive", cfg.Strike)
	}
	if !(cfg.Maturity > 0) {
		return nil, errs.Precondition("NewReplication: maturity %v must be positive", cfg.Maturity)
	}
	if cfg.Discount == nil || cfg.Vol == nil {
		return nil, errs.Precondition("NewReplication: discount curve and volatility are required")
	}
	if cfg.DegeneracyFloor <= 0 {
		cfg.DegeneracyFloor = DefaultDegeneracyFloor
	}
	return &Replication{cfg: cfg}, nil
}

// Position is the hedger's book right after the initial trade.
type Position struct {
	Premium float64
	Delta   float64
	Vega    float64
	// Money is Premium - Delta*spot.
	Money float64
}

// InitialPosition sells the option at spot and buys delta units of stock.
func (r *Replication) InitialPosition(spot float64) (Position, error) {
	calc, err := r.calculator(spot, 0)
	if err != nil {
		return Position{}, err
	}
	delta := calc.Delta(spot)
	return Position{
		Premium: calc.Value(),
		Delta:   delta,
		Vega:    calc.Vega(r.cfg.Maturity),
		Money:   calc.Value() - delta*spot,
	}, nil
}

// calculator prices the option at time t for the given spot.
func (r *Replication) calculator(spot, t float64) (black.Calculator, error) {
	T, k := r.cfg.Maturity, r.cfg.Strike
	discount := r.cfg.Discount.Discount(T) / r.cfg.Discount.Discount(t)
	if !errs.Finite(discount) || discount < r.cfg.DegeneracyFloor {
		return black.Calculator{}, errs.Degenerate("Replication: discount %v at t=%v", discount, t)
	}
	forward := spot / discount
	if !errs.Finite(forward) || forward < r.cfg.DegeneracyFloor {
		return black.Calculator{}, errs.Degenerate("Replication: forward %v at t=%v", forward, t)
	}

	var variance float64
	if t == 0 {
		variance = r.cfg.Vol.BlackVariance(T, k)
	} else {
		variance = r.cfg.Vol.BlackForwardVariance(t, T, k)
	}
	return black.New(r.cfg.Type, k, forward, math.Sqrt(variance), discount)
}

// accrue grows the money account from t0 to t1 at the curve's rate.
func (r *Replication) accrue(money, t0, t1 float64) (float64, error) {
	ratio := r.cfg.Discount.Discount(t1) / r.cfg.Discount.Discount(t0)
	if !errs.Finite(ratio) || ratio < r.cfg.DegeneracyFloor {
		return 0, errs.Degenerate("Replication: discount ratio %v over [%v, %v]", ratio, t0, t1)
	}
	return money / ratio, nil
}

// Evaluate runs the hedge along path and returns the realized P&L.
func (r *Replication) Evaluate(path pathgen.Path) (float64, error) {
	if err := checkPath("Replication.Evaluate", path); err != nil {
		return 0, err
	}
	n := path.Len() - 1
	if math.Abs(path.Time(n)-r.cfg.Maturity) > horizonTolerance {
		return 0, errs.Precondition("Replication.Evaluate: path ends at %v, option matures at %v", path.Time(n), r.cfg.Maturity)
	}

	pos, err := r.InitialPosition(path.Front())
	if err != nil {
		return 0, err
	}
	money, stock := pos.Money, pos.Delta

	for step := 1; step < n; step++ {
		t := path.Time(step)
		if money, err = r.accrue(money, path.Time(step-1), t); err != nil {
			return 0, err
		}
		spot := path.At(step)
		calc, err := r.calculator(spot, t)
		if err != nil {
			return 0, err
		}
		delta := calc.Delta(spot)
		money -= (delta - stock) * spot
		stock = delta
	}

	if money, err = r.accrue(money, path.Time(n-1), path.Time(n)); err != nil {
		return 0, err
	}
	spot := path.Back()
	money -= black.Payoff(r.cfg.Type, r.cfg.Strike, spot)
	money += stock * spot

	if !errs.Finite(money) {
		return 0, errs.Degenerate("Replication.Evaluate: money account %v", money)
	}
	return money, nil
}

// DermanKamal is the theoretical standard deviation of the hedging P&L for
// steps evenly spaced re-hedges: sqrt(pi/(4n)) * vega * sigma.
func (r *Replication) DermanKamal(spot float64, steps int) (float64, error) {
	if steps < 1 {
		return 0, errs.Precondition("DermanKamal: step count %d must be positive", steps)
	}
	pos, err := r.InitialPosition(spot)
	if err != nil {
		return 0, err
	}
	sigma := math.Sqrt(r.cfg.Vol.BlackVariance(r.cfg.Maturity, r.cfg.Strike) / r.cfg.Maturity)
	return math.Sqrt(math.Pi/(4*float64(steps))) * pos.Vega * sigma, nil
}
