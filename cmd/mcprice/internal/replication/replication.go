// Package replication measures the P&L of discretely delta-hedging a sold
// European option over a sweep of hedge frequencies.
package replication

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/autocall/black"
	"github.com/meenmo/autocall/cmd/mcprice/internal/app"
	"github.com/meenmo/autocall/engine"
	"github.com/meenmo/autocall/logging"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/pathgen"
	"github.com/meenmo/autocall/payoff"
	"github.com/meenmo/autocall/stats"
	"github.com/meenmo/autocall/vol"
)

// Probabilities of the P&L quantiles reported per frequency.
var quantileLevels = []float64{0.05, 0.5, 0.95}

type options struct {
	optionType  string
	frequencies []int
	samples     int
	seed        uint64
	workers     int
}

// Row is one hedge frequency.
type Row struct {
	Hedges      int          `json:"hedges"`
	Result      stats.Result `json:"result"`
	DermanKamal float64      `json:"derman_kamal"`
	Quantiles   []float64    `json:"quantiles"`
}

// Output is the JSON form of a sweep.
type Output struct {
	Type        string    `json:"type"`
	Spot        float64   `json:"spot"`
	Strike      float64   `json:"strike"`
	Maturity    float64   `json:"maturity"`
	OptionValue float64   `json:"option_value"`
	Delta       float64   `json:"delta"`
	Vega        float64   `json:"vega"`
	Levels      []float64 `json:"quantile_levels"`
	Rows        []Row     `json:"rows"`
	Elapsed     string    `json:"elapsed"`
}

// NewCommand returns the replication subcommand.
func NewCommand(g *app.Globals) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "replication",
		Short: "Simulate delta-hedging P&L against the Derman-Kamal estimate",
		Long: `Sell a European option at its Black value, delta-hedge it on an even
grid of re-hedges and report the distribution of the final money account
for every hedge frequency, next to the Derman-Kamal standard deviation.

Examples:
  mcprice replication --frequencies 3,38,166 --samples 20000
  mcprice replication --type put --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.Setup(g, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			applyFlags(cmd, &opts, env)
			if err := run(cmd.Context(), env, opts); err != nil {
				return err
			}
			return env.Finish()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.optionType, "type", "t", "", "option sold (call|put)")
	f.IntSliceVar(&opts.frequencies, "frequencies", nil, "hedge counts to sweep, comma separated")
	f.IntVarP(&opts.samples, "samples", "n", 0, "paths per frequency")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed (0 selects the default seed)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent workers")
	return cmd
}

func applyFlags(cmd *cobra.Command, opts *options, env *app.Env) {
	cfg := &env.Config
	f := cmd.Flags()
	if !f.Changed("type") {
		opts.optionType = cfg.Replication.Type
	}
	if !f.Changed("frequencies") {
		opts.frequencies = cfg.Replication.HedgeFrequencies
	}
	if !f.Changed("samples") {
		opts.samples = cfg.Replication.Samples
	}
	if !f.Changed("seed") {
		opts.seed = cfg.Simulation.Seed
	}
	if !f.Changed("workers") {
		opts.workers = cfg.Simulation.Workers
	}
}

func run(ctx context.Context, env *app.Env, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	cfg, m := env.Config, env.Market

	typ, err := black.ParseOptionType(opts.optionType)
	if err != nil {
		return err
	}
	maturity, err := m.Maturity(cfg.Replication.Expiry)
	if err != nil {
		return err
	}
	volatility, err := cfg.Replication.Vol.Build(m.Settlement, m.DayCount)
	if err != nil {
		return err
	}
	strike := cfg.Replication.Strike

	hedge, err := payoff.NewReplication(payoff.ReplicationConfig{
		Type:            typ,
		Strike:          strike,
		Maturity:        maturity,
		Discount:        m.RiskFree,
		Vol:             volatility,
		DegeneracyFloor: cfg.Numerical.DegeneracyFloor,
	})
	if err != nil {
		return err
	}
	pos, err := hedge.InitialPosition(m.Spot)
	if err != nil {
		return err
	}

	out := Output{
		Type:        typ.String(),
		Spot:        m.Spot,
		Strike:      strike,
		Maturity:    maturity,
		OptionValue: pos.Premium,
		Delta:       pos.Delta,
		Vega:        pos.Vega,
		Levels:      quantileLevels,
	}
	for _, n := range opts.frequencies {
		row, err := sweep(ctx, env, hedge, volatility, maturity, n, opts)
		if err != nil {
			return fmt.Errorf("replication: %d hedges: %w", n, err)
		}
		out.Rows = append(out.Rows, row)
	}
	out.Elapsed = logging.Elapsed(time.Since(start))

	if !env.Table {
		return env.JSON(out)
	}
	return printTable(env, out)
}

// sweep runs one hedge frequency: n re-hedges on an even grid of n steps.
func sweep(ctx context.Context, env *app.Env, hedge *payoff.Replication, volatility vol.Source, maturity float64, n int, opts options) (Row, error) {
	m := env.Market
	process, err := model.New(model.Params{Kind: model.BlackScholes}, model.Market{
		Spot:     m.Spot,
		RiskFree: m.RiskFree,
		Vol:      volatility,
		Strike:   env.Config.Replication.Strike,
		Maturity: maturity,
	})
	if err != nil {
		return Row{}, err
	}
	grid, err := pathgen.NewTimeGrid(maturity, n)
	if err != nil {
		return Row{}, err
	}
	gen, err := pathgen.New(process, grid, opts.samples, opts.seed)
	if err != nil {
		return Row{}, err
	}

	eng, err := engine.New(gen, hedge,
		engine.WithWorkers(opts.workers),
		engine.WithLabel(fmt.Sprintf("replication_%d", n)),
		engine.WithLogger(env.Log.WithField("hedges", n)),
		engine.WithObserver(env.Metrics),
		engine.WithOutcomes(),
	)
	if err != nil {
		return Row{}, err
	}
	rep, err := eng.Run(ctx)
	if err != nil {
		return Row{}, err
	}

	dk, err := hedge.DermanKamal(m.Spot, n)
	if err != nil {
		return Row{}, err
	}
	qs, err := stats.Quantiles(rep.Outcomes, quantileLevels...)
	if err != nil {
		return Row{}, err
	}
	return Row{Hedges: n, Result: rep.Result, DermanKamal: dk, Quantiles: qs}, nil
}

func printTable(env *app.Env, out Output) error {
	env.Heading("Replication error: short %s K=%.2f T=%.4f y, spot %.2f", out.Type, out.Strike, out.Maturity, out.Spot)
	fmt.Fprintf(env.Out, "Option value %.4f  delta %.4f  vega %.4f\n\n", out.OptionValue, out.Delta, out.Vega)

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Hedges\tMean P&L\tStd dev\tDerman-Kamal\tSd/DK\tSkew\tKurt\tq05\tq50\tq95\t")
	for _, r := range out.Rows {
		ratio := 0.0
		if r.DermanKamal > 0 {
			ratio = r.Result.StdDev / r.DermanKamal
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%.3f\t%.3f\t%.3f\t%.4f\t%.4f\t%.4f\t\n",
			r.Hedges, r.Result.Mean, r.Result.StdDev, r.DermanKamal, ratio,
			r.Result.Skewness, r.Result.Kurtosis, r.Quantiles[0], r.Quantiles[1], r.Quantiles[2])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "\nRun completed in %s\n", out.Elapsed)
	return nil
}
