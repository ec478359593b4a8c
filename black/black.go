// Package black is the closed-form option calculator consumed by the
// replication evaluator: Black (1976) value, spot delta and vega on a
// forward, a total standard deviation and a discount factor.
package black

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/autocall/errs"
)

// OptionType selects the vanilla payoff.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (o OptionType) String() string {
	switch o {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(o))
	}
}

// ParseOptionType accepts "call"/"c" and "put"/"p" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return 0, fmt.Errorf("ParseOptionType: unknown option type %q", s)
	}
}

// Payoff is the intrinsic value at expiry.
func Payoff(typ OptionType, strike, spot float64) float64 {
	if typ == Put {
		return math.Max(strike-spot, 0)
	}
	return math.Max(spot-strike, 0)
}

// stdDevEpsilon below which the option is treated as expired.
const stdDevEpsilon = 1e-12

// Calculator holds the precomputed Black terms for one option state.
type Calculator struct {
	typ      OptionType
	strike   float64
	forward  float64
	stdDev   float64
	discount float64

	alpha float64 // dValue/dForward per unit discount
	beta  float64 // dValue/dStrike per unit discount
	nD1   float64
}

// New builds a calculator. Non-finite or non-positive forwards and discount
// factors are rejected as numerical degeneracies.
func New(typ OptionType, strike, forward, stdDev, discount float64) (Calculator, error) {
	if !(strike > 0) {
		return Calculator{}, errs.Precondition("black.New: strike %v must be positive", strike)
	}
	if !errs.Finite(forward) || forward <= 0 {
		return Calculator{}, errs.Degenerate("black.New: forward %v", forward)
	}
	if !errs.Finite(discount) || discount <= 0 {
		return Calculator{}, errs.Degenerate("black.New: discount %v", discount)
	}
	if !errs.Finite(stdDev) || stdDev < 0 {
		return Calculator{}, errs.Degenerate("black.New: standard deviation %v", stdDev)
	}

	var cumD1, cumD2 float64
	c := Calculator{typ: typ, strike: strike, forward: forward, stdDev: stdDev, discount: discount}
	if stdDev >= stdDevEpsilon {
		d1 := math.Log(forward/strike)/stdDev + 0.5*stdDev
		d2 := d1 - stdDev
		cumD1 = distuv.UnitNormal.CDF(d1)
		cumD2 = distuv.UnitNormal.CDF(d2)
		c.nD1 = distuv.UnitNormal.Prob(d1)
	} else {
		switch {
		case math.Abs(forward-strike) <= 1e-12*strike:
			cumD1, cumD2 = 0.5, 0.5
		case forward > strike:
			cumD1, cumD2 = 1, 1
		default:
			cumD1, cumD2 = 0, 0
		}
	}

	if typ == Put {
		c.alpha = cumD1 - 1
		c.beta = 1 - cumD2
	} else {
		c.alpha = cumD1
		c.beta = -cumD2
	}
	return c, nil
}

// Value is the discounted option price.
func (c Calculator) Value() float64 {
	v := c.discount * (c.forward*c.alpha + c.strike*c.beta)
	return math.Max(v, 0)
}

// Delta is the sensitivity to the spot that produced the forward.
func (c Calculator) Delta(spot float64) float64 {
	return c.discount * c.alpha * c.forward / spot
}

// Vega is the sensitivity to a unit change of Black volatility.
func (c Calculator) Vega(maturity float64) float64 {
	if maturity <= 0 {
		return 0
	}
	return c.discount * c.forward * c.nD1 * math.Sqrt(maturity)
}

// Forward returns the forward the calculator was built on.
func (c Calculator) Forward() float64 { return c.forward }
