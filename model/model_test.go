package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/autocall/curve"
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/utils"
	"github.com/meenmo/autocall/vol"
)

func testMarket() model.Market {
	ref := utils.MustDate(2017, time.April, 4)
	return model.Market{
		Spot:     15.35,
		Dividend: curve.NewFlatCurve(ref, 0.02, utils.Act365F),
		RiskFree: curve.NewFlatCurve(ref, 0.01, utils.Act365F),
		Vol:      vol.Flat(0.2331),
		Strike:   15.08,
		Maturity: 3.9,
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	cases := map[string]model.Kind{
		"B":             model.BlackScholes,
		"b":             model.BlackScholes,
		"black-scholes": model.BlackScholes,
		" H ":           model.Heston,
		"heston":        model.Heston,
	}
	for in, want := range cases {
		got, err := model.ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := model.ParseKind("X")
	assert.True(t, errors.Is(err, errs.ErrUnsupportedModel))
	assert.Equal(t, "heston", model.Heston.String())
}

func TestNew_FactorCount(t *testing.T) {
	t.Parallel()

	bs, err := model.New(model.Params{Kind: model.BlackScholes}, testMarket())
	require.NoError(t, err)
	assert.Equal(t, 1, bs.FactorCount())
	assert.Len(t, bs.InitialState(), 1)

	h, err := model.New(model.Params{
		Kind:   model.Heston,
		Heston: model.HestonParams{V0: 0.04, Kappa: 1.5, Theta: 0.04, Sigma: 0.3, Rho: -0.7},
	}, testMarket())
	require.NoError(t, err)
	assert.Equal(t, 2, h.FactorCount())
	assert.Equal(t, []float64{math.Log(15.35), 0.04}, h.InitialState())
}

func TestNew_Rejects(t *testing.T) {
	t.Parallel()

	m := testMarket()
	m.Maturity = 0
	_, err := model.New(model.Params{Kind: model.BlackScholes}, m)
	assert.True(t, errors.Is(err, errs.ErrPrecondition))

	m = testMarket()
	m.Strike = -1
	_, err = model.New(model.Params{Kind: model.BlackScholes}, m)
	assert.True(t, errors.Is(err, errs.ErrPrecondition))

	_, err = model.New(model.Params{Kind: model.Kind(9)}, testMarket())
	assert.True(t, errors.Is(err, errs.ErrUnsupportedModel))

	_, err = model.New(model.Params{Kind: model.Heston, Heston: model.HestonParams{V0: 0.04, Rho: 1}}, testMarket())
	assert.True(t, errors.Is(err, errs.ErrPrecondition))
}

func TestDiscretize_ZeroVolFollowsForward(t *testing.T) {
	t.Parallel()

	m := testMarket()
	m.Vol = vol.Flat(0)
	p, err := model.New(model.Params{Kind: model.BlackScholes}, m)
	require.NoError(t, err)

	times := []float64{0, 0.5, 1.7, 3.9}
	scheme, err := p.Discretize(times)
	require.NoError(t, err)
	assert.Equal(t, 3, scheme.Steps())

	state := p.InitialState()
	for i := 0; i < scheme.Steps(); i++ {
		scheme.Step(i, state, []float64{1.5})
		assert.InDelta(t, p.Forward(times[i+1]), math.Exp(state[0]), 1e-10)
	}
}

func TestDiscretize_HestonZeroVolOfVol(t *testing.T) {
	t.Parallel()

	p, err := model.New(model.Params{
		Kind:   model.Heston,
		Heston: model.HestonParams{V0: 0.04, Kappa: 2, Theta: 0.04, Sigma: 0, Rho: 0.3},
	}, testMarket())
	require.NoError(t, err)

	scheme, err := p.Discretize([]float64{0, 0.25, 0.5})
	require.NoError(t, err)

	state := p.InitialState()
	scheme.Step(0, state, []float64{0, 0})
	// Variance stays at theta, the log spot follows the forward less the convexity term.
	assert.InDelta(t, 0.04, state[1], 1e-15)
	assert.InDelta(t, math.Log(p.Forward(0.25))-0.5*0.04*0.25, state[0], 1e-12)
}

func TestDiscretize_Rejects(t *testing.T) {
	t.Parallel()

	p, err := model.New(model.Params{Kind: model.BlackScholes}, testMarket())
	require.NoError(t, err)

	_, err = p.Discretize([]float64{0})
	assert.True(t, errors.Is(err, errs.ErrPrecondition))
	_, err = p.Discretize([]float64{0, 1, 1})
	assert.True(t, errors.Is(err, errs.ErrPrecondition))
}
