// Package config loads the YAML description of a pricing run: market data,
// model selection, simulation sizes, the replication sweep, numerical
// tolerances, logging and metrics output.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/autocall/calendar"
	"github.com/meenmo/autocall/logging"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/utils"
)

// Environment variables that override the loaded document.
const (
	EnvSeed     = "MCPRICE_SEED"
	EnvSamples  = "MCPRICE_SAMPLES"
	EnvWorkers  = "MCPRICE_WORKERS"
	EnvLogLevel = "MCPRICE_LOG_LEVEL"
)

// Run is the complete run document.
type Run struct {
	Market      MarketConfig      `yaml:"market"`
	Model       ModelConfig       `yaml:"model"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Autocall    AutocallConfig    `yaml:"autocall"`
	Replication ReplicationConfig `yaml:"replication"`
	Numerical   NumericalConfig   `yaml:"numerical"`
	Logging     logging.Config    `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// MarketConfig holds the trade date and the shared market handles.
// Dates are YYYY-MM-DD.
type MarketConfig struct {
	Today          string  `yaml:"today"`
	Calendar       string  `yaml:"calendar"`
	SettlementDays int     `yaml:"settlement_days"`
	DayCount       string  `yaml:"day_count"`
	Spot           float64 `yaml:"spot"`

	RiskFree CurveConfig  `yaml:"risk_free"`
	Bond     CurveConfig  `yaml:"bond"`
	Dividend *CurveConfig `yaml:"dividend"`
}

// ModelConfig selects the diffusion. Kind is resolved with model.ParseKind.
type ModelConfig struct {
	Kind   string             `yaml:"kind"`
	Heston model.HestonParams `yaml:"heston"`
}

type SimulationConfig struct {
	Steps          int    `yaml:"steps"`
	Samples        int    `yaml:"samples"`
	Seed           uint64 `yaml:"seed"`
	BrownianBridge bool   `yaml:"brownian_bridge"`
	Workers        int    `yaml:"workers"`
}

// AutocallConfig describes the certificate run. ReferenceQuote <= 0 means
// no quote to compare against.
type AutocallConfig struct {
	Strike         float64   `yaml:"strike"`
	Expiry         string    `yaml:"expiry"`
	Vol            VolConfig `yaml:"vol"`
	ReferenceQuote float64   `yaml:"reference_quote"`
	LegacyExit     bool      `yaml:"legacy_first_period_exit"`
}

// ReplicationConfig describes the hedged option and the hedge-frequency
// sweep; one run of Samples paths per entry of HedgeFrequencies.
type ReplicationConfig struct {
	Type             string    `yaml:"type"`
	Strike           float64   `yaml:"strike"`
	Expiry           string    `yaml:"expiry"`
	Vol              VolConfig `yaml:"vol"`
	HedgeFrequencies []int     `yaml:"hedge_frequencies"`
	Samples          int       `yaml:"samples"`
}

// NumericalConfig carries the tolerances handed to the evaluators.
type NumericalConfig struct {
	DegeneracyFloor float64 `yaml:"degeneracy_floor"`
}

// MetricsConfig names the node exporter textfile; empty disables export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the reference contract: spot 15.35, autocall strike 15.08,
// trade date 31 March 2017 on TARGET with T+2 settlement, and a call struck
// at 18.81 for the replication sweep.
func Default() Run {
	return Run{
		Market: MarketConfig{
			Today:          "2017-03-31",
			Calendar:       string(calendar.TARGET),
			SettlementDays: 2,
			DayCount:       utils.Act365F,
			Spot:           15.35,
			RiskFree: CurveConfig{
				DayCount: utils.Act365F,
				ZeroRates: []Node{
					{Date: "2017-04-11", Value: -0.0036},
					{Date: "2017-05-04", Value: -0.00359},
					{Date: "2017-07-04", Value: -0.00359},
					{Date: "2017-10-04", Value: -0.00355},
					{Date: "2018-04-04", Value: -0.00331},
					{Date: "2018-10-04", Value: -0.00297},
					{Date: "2019-04-04", Value: -0.00253},
					{Date: "2019-10-04", Value: -0.00211},
					{Date: "2020-04-04", Value: -0.00145},
					{Date: "2020-10-04", Value: -0.00037},
					{Date: "2022-04-04", Value: -0.00082},
					{Date: "2023-04-04", Value: -0.00216},
				},
			},
			Bond: CurveConfig{
				DayCount: utils.Act365F,
				ZeroRates: []Node{
					{Date: "2017-09-19", Value: 0.0010},
					{Date: "2018-04-24", Value: 0.0021},
					{Date: "2020-11-07", Value: 0.0086},
					{Date: "2022-07-01", Value: 0.0144},
					{Date: "2025-12-18", Value: 0.0212},
				},
			},
		},
		Model: ModelConfig{
			Kind: model.BlackScholes.String(),
			Heston: model.HestonParams{
				V0:    0.0543,
				Kappa: 1.5,
				Theta: 0.0543,
				Sigma: 0.3,
				Rho:   -0.6,
			},
		},
		Simulation: SimulationConfig{
			Steps:   1000,
			Samples: 50000,
			Workers: 1,
		},
		Autocall: AutocallConfig{
			Strike: 15.08,
			Expiry: "2021-03-03",
			Vol:    VolConfig{Flat: 0.2331},
		},
		Replication: ReplicationConfig{
			Type:             "call",
			Strike:           18.81,
			Expiry:           "2020-06-03",
			Vol:              VolConfig{Flat: 0.2331},
			HedgeFrequencies: []int{3, 38, 166, 827, 1654},
			Samples:          50000,
		},
		Numerical: NumericalConfig{
			DegeneracyFloor: 1e-12,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the YAML document at path over Default, applies the MCPRICE_*
// overrides from the process environment and from envFiles (".env" when
// none are given; missing files are skipped), and validates the result.
// An empty path loads the defaults alone.
func Load(path string, envFiles ...string) (Run, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Run{}, fmt.Errorf("config.Load: failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Run{}, fmt.Errorf("config.Load: failed to parse config file: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Run{}, fmt.Errorf("config.Load: %s: %w", f, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Run{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Run{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides seed, sample count, worker count and log level from
// lookup, typically os.LookupEnv.
func (r *Run) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvSeed); ok {
		seed, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvSeed, v, err)
		}
		r.Simulation.Seed = seed
	}
	if v, ok := get(EnvSamples); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvSamples, v, err)
		}
		r.Simulation.Samples = n
		r.Replication.Samples = n
	}
	if v, ok := get(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvWorkers, v, err)
		}
		r.Simulation.Workers = n
	}
	if v, ok := get(EnvLogLevel); ok {
		r.Logging.Level = v
	}
	return nil
}

// Validate checks the document without building any market object.
func (r Run) Validate() error {
	m := r.Market
	if _, err := utils.ParseDate(m.Today); err != nil {
		return fmt.Errorf("config: market.today: %w", err)
	}
	if !calendar.Known(calendar.CalendarID(m.Calendar)) {
		return fmt.Errorf("config: market.calendar %q is not supported", m.Calendar)
	}
	if m.SettlementDays < 0 {
		return fmt.Errorf("config: market.settlement_days must be >= 0")
	}
	if !(m.Spot > 0) {
		return fmt.Errorf("config: market.spot must be positive")
	}
	if _, err := model.ParseKind(r.Model.Kind); err != nil {
		return fmt.Errorf("config: model.kind: %w", err)
	}
	if err := m.checkDayCounts(); err != nil {
		return err
	}

	s := r.Simulation
	if s.Steps <= 0 {
		return fmt.Errorf("config: simulation.steps must be positive")
	}
	if s.Samples <= 0 {
		return fmt.Errorf("config: simulation.samples must be positive")
	}
	if s.Workers < 0 {
		return fmt.Errorf("config: simulation.workers must be >= 0")
	}

	if !(r.Autocall.Strike > 0) {
		return fmt.Errorf("config: autocall.strike must be positive")
	}
	if _, err := utils.ParseDate(r.Autocall.Expiry); err != nil {
		return fmt.Errorf("config: autocall.expiry: %w", err)
	}

	rp := r.Replication
	if !(rp.Strike > 0) {
		return fmt.Errorf("config: replication.strike must be positive")
	}
	if _, err := utils.ParseDate(rp.Expiry); err != nil {
		return fmt.Errorf("config: replication.expiry: %w", err)
	}
	if len(rp.HedgeFrequencies) == 0 {
		return fmt.Errorf("config: replication.hedge_frequencies is empty")
	}
	for _, n := range rp.HedgeFrequencies {
		if n <= 0 {
			return fmt.Errorf("config: replication.hedge_frequencies: %d must be positive", n)
		}
	}
	if rp.Samples <= 0 {
		return fmt.Errorf("config: replication.samples must be positive")
	}

	if r.Numerical.DegeneracyFloor < 0 {
		return fmt.Errorf("config: numerical.degeneracy_floor must be >= 0")
	}
	return nil
}

// checkDayCounts requires every curve to read simulation times in the
// market day count.
func (m MarketConfig) checkDayCounts() error {
	dc := orAct365F(m.DayCount)
	curves := map[string]*CurveConfig{"risk_free": &m.RiskFree, "bond": &m.Bond, "dividend": m.Dividend}
	for _, name := range []string{"risk_free", "bond", "dividend"} {
		c := curves[name]
		if c == nil {
			continue
		}
		if got := orAct365F(c.DayCount); got != dc {
			return fmt.Errorf("config: market.%s.day_count %s differs from market.day_count %s", name, got, dc)
		}
	}
	return nil
}

func orAct365F(dc string) string {
	if dc == "" {
		return utils.Act365F
	}
	return dc
}

// ModelParams resolves the model selection.
func (r Run) ModelParams() (model.Params, error) {
	kind, err := model.ParseKind(r.Model.Kind)
	if err != nil {
		return model.Params{}, err
	}
	return model.Params{Kind: kind, Heston: r.Model.Heston}, nil
}
