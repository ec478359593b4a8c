package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/autocall/calendar"
	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/note"
	"github.com/meenmo/autocall/utils"
	"github.com/meenmo/autocall/vol"
)

// Node is a dated curve value: a continuously compounded zero rate or a
// discount factor depending on the list it appears in.
type Node struct {
	Date  string  `yaml:"date"`
	Value float64 `yaml:"value"`
}

// CurveConfig describes a discount curve by exactly one of a flat rate,
// zero-rate nodes or discount-factor nodes. DayCount defaults to ACT/365F.
type CurveConfig struct {
	Flat            *float64 `yaml:"flat"`
	ZeroRates       []Node   `yaml:"zero_rates"`
	DiscountFactors []Node   `yaml:"discount_factors"`
	DayCount        string   `yaml:"day_count"`
}

// UnmarshalYAML replaces the whole curve, so a document overriding a
// default curve never inherits the default's nodes.
func (c *CurveConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain CurveConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = CurveConfig(p)
	return nil
}

// Build returns the curve anchored at reference.
func (c CurveConfig) Build(reference time.Time) (*curve.Curve, error) {
	dc := orAct365F(c.DayCount)

	set := 0
	if c.Flat != nil {
		set++
	}
	if len(c.ZeroRates) > 0 {
		set++
	}
	if len(c.DiscountFactors) > 0 {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("CurveConfig.Build: exactly one of flat, zero_rates, discount_factors is required")
	}

	switch {
	case c.Flat != nil:
		return curve.NewFlatCurve(reference, *c.Flat, dc), nil
	case len(c.ZeroRates) > 0:
		nodes, err := dated(c.ZeroRates)
		if err != nil {
			return nil, fmt.Errorf("CurveConfig.Build: %w", err)
		}
		return curve.NewCurveFromZeroRates(reference, nodes, dc)
	default:
		nodes, err := dated(c.DiscountFactors)
		if err != nil {
			return nil, fmt.Errorf("CurveConfig.Build: %w", err)
		}
		return curve.NewCurveFromDFs(reference, nodes, dc)
	}
}

func dated(nodes []Node) (map[time.Time]float64, error) {
	out := make(map[time.Time]float64, len(nodes))
	for _, n := range nodes {
		d, err := utils.ParseDate(n.Date)
		if err != nil {
			return nil, err
		}
		if _, dup := out[d]; dup {
			return nil, fmt.Errorf("duplicate node %s", n.Date)
		}
		out[d] = n.Value
	}
	return out, nil
}

// VolConfig is a flat Black vol or, when Surface is set, a vol grid.
type VolConfig struct {
	Flat    float64        `yaml:"flat"`
	Surface *SurfaceConfig `yaml:"surface"`
}

// SurfaceConfig is a Black vol grid; Vols[i][j] is the vol of Strikes[i]
// at Expiries[j].
type SurfaceConfig struct {
	Expiries []string    `yaml:"expiries"`
	Strikes  []float64   `yaml:"strikes"`
	Vols     [][]float64 `yaml:"vols"`
}

func (v *VolConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain VolConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*v = VolConfig(p)
	return nil
}

// Build maps expiries to year fractions from settlement under dayCount.
func (v VolConfig) Build(settlement time.Time, dayCount string) (vol.Source, error) {
	if v.Surface == nil {
		if !(v.Flat > 0) {
			return nil, fmt.Errorf("VolConfig.Build: flat vol %v must be positive", v.Flat)
		}
		return vol.Flat(v.Flat), nil
	}
	times := make([]float64, len(v.Surface.Expiries))
	for i, e := range v.Surface.Expiries {
		d, err := utils.ParseDate(e)
		if err != nil {
			return nil, fmt.Errorf("VolConfig.Build: %w", err)
		}
		times[i] = utils.YearFraction(settlement, d, dayCount)
	}
	s, err := vol.NewSurface(times, v.Surface.Strikes, v.Surface.Vols)
	if err != nil {
		return nil, fmt.Errorf("VolConfig.Build: %w", err)
	}
	return s, nil
}

// Market is the resolved, read-only market shared by every evaluation of a
// run. Dividend is nil when no dividend curve is configured.
type Market struct {
	Today          time.Time
	Settlement     time.Time
	Calendar       calendar.CalendarID
	SettlementDays int
	DayCount       string
	Spot           float64
	RiskFree       *curve.Curve
	Bond           *curve.Curve
	Dividend       curve.DiscountCurve
}

// Resolve builds the market. Curves are anchored at the settlement date,
// today advanced by the settlement lag on the configured calendar.
func (r Run) Resolve() (Market, error) {
	mc := r.Market
	today, err := utils.ParseDate(mc.Today)
	if err != nil {
		return Market{}, fmt.Errorf("Run.Resolve: today: %w", err)
	}
	cal := calendar.CalendarID(mc.Calendar)
	if !calendar.Known(cal) {
		return Market{}, fmt.Errorf("Run.Resolve: calendar %q is not supported", mc.Calendar)
	}
	dc := orAct365F(mc.DayCount)

	m := Market{
		Today:          today,
		Settlement:     calendar.SettlementDate(cal, today, mc.SettlementDays),
		Calendar:       cal,
		SettlementDays: mc.SettlementDays,
		DayCount:       dc,
		Spot:           mc.Spot,
	}
	if m.RiskFree, err = mc.RiskFree.Build(m.Settlement); err != nil {
		return Market{}, fmt.Errorf("Run.Resolve: risk_free: %w", err)
	}
	if m.Bond, err = mc.Bond.Build(m.Settlement); err != nil {
		return Market{}, fmt.Errorf("Run.Resolve: bond: %w", err)
	}
	if mc.Dividend != nil {
		q, err := mc.Dividend.Build(m.Settlement)
		if err != nil {
			return Market{}, fmt.Errorf("Run.Resolve: dividend: %w", err)
		}
		m.Dividend = q
	}
	return m, nil
}

// YearFraction measures d from the settlement date in the market day count.
func (m Market) YearFraction(d time.Time) float64 {
	return utils.YearFraction(m.Settlement, d, m.DayCount)
}

// Maturity parses an expiry date and returns its year fraction, which must
// be positive.
func (m Market) Maturity(expiry string) (float64, error) {
	d, err := utils.ParseDate(expiry)
	if err != nil {
		return 0, fmt.Errorf("Market.Maturity: %w", err)
	}
	t := m.YearFraction(d)
	if !(t > 0) {
		return 0, fmt.Errorf("Market.Maturity: expiry %s is not after settlement %s", expiry, m.Settlement.Format(utils.DateLayout))
	}
	return t, nil
}

// Valuation values note schedules with redemptions on the bond curve and
// coupons on the risk-free curve.
func (m Market) Valuation() note.Valuation {
	return note.Valuation{
		Settlement:  m.Settlement,
		BondCurve:   m.Bond,
		CouponCurve: m.RiskFree,
		Calendar:    m.Calendar,
		DayCount:    m.DayCount,
	}
}
