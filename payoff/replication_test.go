package payoff_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/autocall/black"
	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/pathgen"
	"github.com/meenmo/autocall/payoff"
	"github.com/meenmo/autocall/stats"
	"github.com/meenmo/autocall/utils"
	"github.com/meenmo/autocall/vol"
)

const hedgeVol = 0.2331

// nanCurve breaks down after one year.
type nanCurve struct{ curve.DiscountCurve }

func (c nanCurve) Discount(t float64) float64 {
	if t > 1 {
		return math.NaN()
	}
	return c.DiscountCurve.Discount(t)
}

func replication(t *testing.T, typ black.OptionType, k, T float64, disc curve.DiscountCurve) *payoff.Replication {
	t.Helper()
	r, err := payoff.NewReplication(payoff.ReplicationConfig{
		Type:     typ,
		Strike:   k,
		Maturity: T,
		Discount: disc,
		Vol:      vol.Flat(hedgeVol),
	})
	require.NoError(t, err)
	return r
}

// hedgeRun simulates P&L over samples paths hedged steps times.
func hedgeRun(t *testing.T, r *payoff.Replication, spot, k, T float64, disc curve.DiscountCurve, steps, samples int) stats.Result {
	t.Helper()
	proc, err := model.New(model.Params{Kind: model.BlackScholes}, model.Market{
		Spot:     spot,
		RiskFree: disc,
		Vol:      vol.Flat(hedgeVol),
		Strike:   k,
		Maturity: T,
	})
	require.NoError(t, err)
	g, err := pathgen.NewTimeGrid(T, steps)
	require.NoError(t, err)
	gen, err := pathgen.New(proc, g, samples, 2017)
	require.NoError(t, err)

	var acc stats.Accumulator
	stream := gen.Stream()
	for s, ok := stream.Next(); ok; s, ok = stream.Next() {
		pnl, err := r.Evaluate(s.Underlying())
		require.NoError(t, err)
		require.NoError(t, acc.Add(pnl))
	}
	return acc.Result()
}

func TestReplication_InitialPosition(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlatCurve(settlement, 0.003, utils.Act365F)
	T := utils.YearFraction(settlement, utils.MustDate(2020, time.June, 3), utils.Act365F)
	r := replication(t, black.Call, 18.81, T, disc)

	pos, err := r.InitialPosition(15.35)
	require.NoError(t, err)
	assert.InDelta(t, pos.Premium-pos.Delta*15.35, pos.Money, 1e-9)

	calc, err := black.New(black.Call, 18.81, 15.35/disc.Discount(T), hedgeVol*math.Sqrt(T), disc.Discount(T))
	require.NoError(t, err)
	assert.InDelta(t, calc.Value(), pos.Premium, 1e-12)
	assert.InDelta(t, calc.Delta(15.35), pos.Delta, 1e-12)
	assert.InDelta(t, calc.Vega(T), pos.Vega, 1e-12)
}

func TestReplication_SingleStepIsFairOnAverage(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlatCurve(settlement, 0.01, utils.Act365F)
	for _, typ := range []black.OptionType{black.Call, black.Put} {
		r := replication(t, typ, 15, 1, disc)
		res := hedgeRun(t, r, 15, 15, 1, disc, 1, 20000)
		assert.Equal(t, 20000, res.Samples)
		assert.Less(t, math.Abs(res.Mean), 4*res.ErrorEstimate, typ.String())
	}
}

func TestReplication_ErrorShrinksWithHedges(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlatCurve(settlement, 0.01, utils.Act365F)
	r := replication(t, black.Call, 15, 1, disc)

	coarse := hedgeRun(t, r, 15, 15, 1, disc, 4, 4000)
	fine := hedgeRun(t, r, 15, 15, 1, disc, 64, 4000)
	assert.Less(t, fine.StdDev, coarse.StdDev/2)

	dk, err := r.DermanKamal(15, 64)
	require.NoError(t, err)
	assert.InDelta(t, 1, fine.StdDev/dk, 0.35)
}

func TestReplication_Rejects(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlatCurve(settlement, 0.01, utils.Act365F)
	_, err := payoff.NewReplication(payoff.ReplicationConfig{Strike: 0, Maturity: 1, Discount: disc, Vol: vol.Flat(0.2)})
	assert.True(t, errors.Is(err, errs.ErrPrecondition))
	_, err = payoff.NewReplication(payoff.ReplicationConfig{Strike: 10, Maturity: 0, Discount: disc, Vol: vol.Flat(0.2)})
	assert.True(t, errors.Is(err, errs.ErrPrecondition))

	r := replication(t, black.Call, 15, 2, disc)
	_, err = r.Evaluate(pathgen.Path{})
	assert.True(t, errors.Is(err, errs.ErrPrecondition))

	short, err := pathgen.NewTimeGrid(1, 2)
	require.NoError(t, err)
	p, err := pathgen.NewPath(short, []float64{15, 15, 15})
	require.NoError(t, err)
	_, err = r.Evaluate(p)
	assert.True(t, errors.Is(err, errs.ErrPrecondition))

	_, err = r.DermanKamal(15, 0)
	assert.True(t, errors.Is(err, errs.ErrPrecondition))
}

func TestReplication_DegenerateCurveFailsLoudly(t *testing.T) {
	t.Parallel()

	bad := nanCurve{curve.NewFlatCurve(settlement, 0.01, utils.Act365F)}
	r := replication(t, black.Call, 15, 2, bad)

	g, err := pathgen.NewTimeGrid(2, 4)
	require.NoError(t, err)
	p, err := pathgen.NewPath(g, []float64{15, 15.5, 14.8, 15.2, 16})
	require.NoError(t, err)

	_, err = r.Evaluate(p)
	assert.True(t, errors.Is(err, errs.ErrNumericalDegeneracy))
}
