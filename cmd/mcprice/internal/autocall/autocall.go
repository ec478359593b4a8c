// Package autocall prices the reference autocallable certificate.
package autocall

import (
	"context"
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/autocall/cmd/mcprice/internal/app"
	"github.com/meenmo/autocall/engine"
	"github.com/meenmo/autocall/logging"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/note"
	"github.com/meenmo/autocall/pathgen"
	"github.com/meenmo/autocall/payoff"
	"github.com/meenmo/autocall/stats"
	"github.com/meenmo/autocall/utils"
)

type options struct {
	model      string
	steps      int
	samples    int
	seed       uint64
	workers    int
	bridge     bool
	legacyExit bool
	quote      float64
}

// Output is the JSON form of a pricing.
type Output struct {
	RunID      string       `json:"run_id"`
	Model      string       `json:"model"`
	Settlement string       `json:"settlement"`
	Maturity   float64      `json:"maturity"`
	RiskFree   float64      `json:"risk_free_zero"`
	BondZero   float64      `json:"bond_zero"`
	Price      float64      `json:"price"`
	Result     stats.Result `json:"result"`
	Lower      float64      `json:"lower_bound"`
	Upper      float64      `json:"upper_bound"`
	Quote      float64      `json:"reference_quote,omitempty"`
	ErrorPct   float64      `json:"error_pct,omitempty"`
	Elapsed    string       `json:"elapsed"`
}

// NewCommand returns the autocall subcommand. Flags left unset keep the
// configured values.
func NewCommand(g *app.Globals) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "autocall",
		Short: "Price the reference autocallable certificate by Monte Carlo",
		Long: `Price the three-year autocallable certificate (yearly call windows,
60% terminal barrier) under Black-Scholes or Heston dynamics.

Examples:
  mcprice autocall --model heston --samples 20000
  mcprice autocall --workers 8 --bridge --quote 1012.4`,
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
	f.StringVarP(&opts.model, "model", "m", "", "diffusion model (b|bs|black-scholes|h|heston)")
	f.IntVar(&opts.steps, "steps", 0, "time steps per path")
	f.IntVarP(&opts.samples, "samples", "n", 0, "number of paths")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed (0 selects the default seed)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent workers")
	f.BoolVar(&opts.bridge, "bridge", false, "use a Brownian bridge")
	f.BoolVar(&opts.legacyExit, "legacy-exit", false, "only check the first call window, as the historical evaluator did")
	f.Float64Var(&opts.quote, "quote", 0, "reference quote to compare the price against")
	return cmd
}

func applyFlags(cmd *cobra.Command, opts *options, env *app.Env) {
	cfg := &env.Config
	f := cmd.Flags()
	if !f.Changed("model") {
		opts.model = cfg.Model.Kind
	}
	if !f.Changed("steps") {
		opts.steps = cfg.Simulation.Steps
	}
	if !f.Changed("samples") {
		opts.samples = cfg.Simulation.Samples
	}
	if !f.Changed("seed") {
		opts.seed = cfg.Simulation.Seed
	}
	if !f.Changed("workers") {
		opts.workers = cfg.Simulation.Workers
	}
	if !f.Changed("bridge") {
		opts.bridge = cfg.Simulation.BrownianBridge
	}
	if !f.Changed("legacy-exit") {
		opts.legacyExit = cfg.Autocall.LegacyExit
	}
	if !f.Changed("quote") {
		opts.quote = cfg.Autocall.ReferenceQuote
	}
}

func run(ctx context.Context, env *app.Env, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	cfg, m := env.Config, env.Market

	kind, err := model.ParseKind(opts.model)
	if err != nil {
		return err
	}
	maturity, err := m.Maturity(cfg.Autocall.Expiry)
	if err != nil {
		return err
	}
	volatility, err := cfg.Autocall.Vol.Build(m.Settlement, m.DayCount)
	if err != nil {
		return err
	}
	strike := cfg.Autocall.Strike

	schedule, err := note.ReferenceCertificate(strike).Enrich(m.Valuation())
	if err != nil {
		return err
	}
	var evalOpts []payoff.AutocallOption
	if opts.legacyExit {
		evalOpts = append(evalOpts, payoff.WithLegacyFirstPeriodExit())
	}
	eval, err := payoff.NewAutocallable(schedule, evalOpts...)
	if err != nil {
		return err
	}

	process, err := model.New(model.Params{Kind: kind, Heston: cfg.Model.Heston}, model.Market{
		Spot:     m.Spot,
		Dividend: m.Dividend,
		RiskFree: m.RiskFree,
		Vol:      volatility,
		Strike:   strike,
		Maturity: maturity,
	})
	if err != nil {
		return err
	}
	grid, err := pathgen.NewTimeGrid(maturity, opts.steps)
	if err != nil {
		return err
	}
	var genOpts []pathgen.Option
	if opts.bridge {
		genOpts = append(genOpts, pathgen.WithBrownianBridge())
	}
	gen, err := pathgen.New(process, grid, opts.samples, opts.seed, genOpts...)
	if err != nil {
		return err
	}

	eng, err := engine.New(gen, eval,
		engine.WithWorkers(opts.workers),
		engine.WithLabel("autocall"),
		engine.WithLogger(env.Log.WithField("model", kind.String())),
		engine.WithObserver(env.Metrics),
	)
	if err != nil {
		return err
	}
	rep, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	lo, hi := schedule.Bounds()
	out := Output{
		RunID:      rep.RunID,
		Model:      kind.String(),
		Settlement: m.Settlement.Format(utils.DateLayout),
		Maturity:   maturity,
		RiskFree:   m.RiskFree.ZeroRate(maturity),
		BondZero:   m.Bond.ZeroRate(maturity),
		Price:      rep.Result.Mean,
		Result:     rep.Result,
		Lower:      lo,
		Upper:      hi,
		Elapsed:    logging.Elapsed(time.Since(start)),
	}
	if opts.quote > 0 {
		out.Quote = opts.quote
		out.ErrorPct = 100 * (out.Price - opts.quote) / opts.quote
	}

	if !env.Table {
		return env.JSON(out)
	}
	return printTable(env, out)
}

func printTable(env *app.Env, out Output) error {
	env.Heading("Autocallable certificate (%s)", out.Model)
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Settlement\t%s\n", out.Settlement)
	fmt.Fprintf(w, "Maturity\t%.4f y\n", out.Maturity)
	fmt.Fprintf(w, "Zero rates\tOIS %.4f%%  bond %.4f%%\n", 100*out.RiskFree, 100*out.BondZero)
	fmt.Fprintf(w, "Price\t%.4f\n", out.Price)
	fmt.Fprintf(w, "Std error\t%.4f\n", out.Result.ErrorEstimate)
	fmt.Fprintf(w, "Std dev\t%.4f\n", out.Result.StdDev)
	fmt.Fprintf(w, "Payoff range\t[%.2f, %.2f] of [%.2f, %.2f]\n", out.Result.Min, out.Result.Max, out.Lower, out.Upper)
	if out.Quote > 0 {
		fmt.Fprintf(w, "Reference quote\t%.4f\n", out.Quote)
		fmt.Fprintf(w, "Error\t%s\n", app.Signed(out.ErrorPct, math.Max(1, 3*100*out.Result.ErrorEstimate/out.Quote), "%+.2f%%"))
	}
	fmt.Fprintf(w, "Run completed in\t%s\n", out.Elapsed)
	return w.Flush()
}
