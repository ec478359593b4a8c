package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/autocall/calendar"
	"github.com/meenmo/autocall/config"
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/utils"
	"github.com/meenmo/autocall/vol"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcprice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15.35, cfg.Market.Spot)
	assert.Equal(t, 15.08, cfg.Autocall.Strike)
	assert.Equal(t, []int{3, 38, 166, 827, 1654}, cfg.Replication.HedgeFrequencies)

	p, err := cfg.ModelParams()
	require.NoError(t, err)
	assert.Equal(t, model.BlackScholes, p.Kind)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
market:
  spot: 16.1
  risk_free:
    flat: 0.01
model:
  kind: heston
simulation:
  steps: 250
  brownian_bridge: true
replication:
  type: put
  hedge_frequencies: [4, 8]
`)
	cfg, err := config.Load(path, noEnv(t))
	require.NoError(t, err)

	assert.Equal(t, 16.1, cfg.Market.Spot)
	assert.Equal(t, "2017-03-31", cfg.Market.Today)
	assert.Equal(t, 250, cfg.Simulation.Steps)
	assert.Equal(t, 50000, cfg.Simulation.Samples)
	assert.True(t, cfg.Simulation.BrownianBridge)
	assert.Equal(t, []int{4, 8}, cfg.Replication.HedgeFrequencies)
	assert.Equal(t, "put", cfg.Replication.Type)

	// The flat override replaces the default node list.
	require.NotNil(t, cfg.Market.RiskFree.Flat)
	assert.Empty(t, cfg.Market.RiskFree.ZeroRates)

	p, err := cfg.ModelParams()
	require.NoError(t, err)
	assert.Equal(t, model.Heston, p.Kind)
	assert.Equal(t, 1.5, p.Heston.Kappa)
}

func TestLoad_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown model", "model:\n  kind: sabr\n"},
		{"zero steps", "simulation:\n  steps: 0\n"},
		{"negative spot", "market:\n  spot: -1\n"},
		{"bad date", "market:\n  today: 31/03/2017\n"},
		{"bad calendar", "market:\n  calendar: MOON\n"},
		{"bad frequency", "replication:\n  hedge_frequencies: [3, 0]\n"},
		{"malformed", "simulation: [\n"},
		{"curve day count", "market:\n  day_count: ACT/360\n"},
		{"dividend day count", "market:\n  dividend:\n    flat: 0.01\n    day_count: ACT/360\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.yaml), noEnv(t))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv(t))
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Model.Kind = "x"
	_, err = cfg.ModelParams()
	assert.True(t, errors.Is(err, errs.ErrUnsupportedModel))
}

func TestLoad_MatchingDayCounts(t *testing.T) {
	t.Parallel()

	doc := `
market:
  day_count: ACT/360
  risk_free:
    flat: -0.003
    day_count: ACT/360
  bond:
    flat: 0.004
    day_count: ACT/360
`
	cfg, err := config.Load(writeConfig(t, doc), noEnv(t))
	require.NoError(t, err)
	m, err := cfg.Resolve()
	require.NoError(t, err)

	T, err := m.Maturity(cfg.Autocall.Expiry)
	require.NoError(t, err)
	assert.InDelta(t, 1429.0/360.0, T, 1e-12)
	assert.InDelta(t, 0.004, m.Bond.ZeroRate(T), 1e-12)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env, err := godotenv.Unmarshal("MCPRICE_SEED=0x2a\nMCPRICE_SAMPLES=1200\nMCPRICE_WORKERS=4\nMCPRICE_LOG_LEVEL=debug\n")
	require.NoError(t, err)
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, 1200, cfg.Simulation.Samples)
	assert.Equal(t, 1200, cfg.Replication.Samples)
	assert.Equal(t, 4, cfg.Simulation.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)

	bad, err := godotenv.Unmarshal("MCPRICE_SAMPLES=many")
	require.NoError(t, err)
	cfg = config.Default()
	assert.Error(t, cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := bad[k]
		return v, ok
	}))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	m, err := config.Default().Resolve()
	require.NoError(t, err)
	assert.Equal(t, utils.MustDate(2017, time.April, 4), m.Settlement)
	assert.Nil(t, m.Dividend)

	// Negative OIS rates discount above par; the bond curve below.
	d := utils.MustDate(2019, time.March, 4)
	assert.Greater(t, m.RiskFree.DF(d), 1.0)
	assert.Less(t, m.Bond.DF(d), 1.0)

	T, err := m.Maturity("2021-03-03")
	require.NoError(t, err)
	assert.InDelta(t, 1429.0/365.0, T, 1e-12)
	_, err = m.Maturity("2017-04-01")
	assert.Error(t, err)

	v := m.Valuation()
	assert.Equal(t, m.Settlement, v.Settlement)
	assert.Equal(t, calendar.TARGET, v.Calendar)
}

func TestCurveConfig(t *testing.T) {
	t.Parallel()

	ref := utils.MustDate(2017, time.April, 4)
	rate := 0.02
	c, err := config.CurveConfig{Flat: &rate}.Build(ref)
	require.NoError(t, err)
	assert.InDelta(t, 0.9801986733, c.Discount(1), 1e-9)

	c, err = config.CurveConfig{DiscountFactors: []config.Node{{Date: "2018-04-04", Value: 0.99}}}.Build(ref)
	require.NoError(t, err)
	assert.InDelta(t, 0.99, c.DF(utils.MustDate(2018, time.April, 4)), 1e-12)

	_, err = config.CurveConfig{}.Build(ref)
	assert.Error(t, err)
	_, err = config.CurveConfig{Flat: &rate, ZeroRates: []config.Node{{Date: "2018-04-04", Value: 0.01}}}.Build(ref)
	assert.Error(t, err)
	_, err = config.CurveConfig{ZeroRates: []config.Node{{Date: "2018-04-04"}, {Date: "2018-04-04"}}}.Build(ref)
	assert.Error(t, err)
}

func TestVolConfig(t *testing.T) {
	t.Parallel()

	ref := utils.MustDate(2017, time.April, 4)
	src, err := config.VolConfig{Flat: 0.2}.Build(ref, utils.Act365F)
	require.NoError(t, err)
	assert.Equal(t, vol.Flat(0.2), src)

	src, err = config.VolConfig{Surface: &config.SurfaceConfig{
		Expiries: []string{"2018-04-04", "2019-04-04"},
		Strikes:  []float64{14, 16},
		Vols:     [][]float64{{0.2, 0.22}, {0.18, 0.2}},
	}}.Build(ref, utils.Act365F)
	require.NoError(t, err)
	assert.InDelta(t, 0.19, src.BlackVol(1, 15), 1e-12)

	_, err = config.VolConfig{}.Build(ref, utils.Act365F)
	assert.Error(t, err)
}
