package main

import (
	"context"
	"fmt"

	"github.com/meenmo/autocall/config"
	"github.com/meenmo/autocall/engine"
	"github.com/meenmo/autocall/model"
	"github.com/meenmo/autocall/note"
	"github.com/meenmo/autocall/pathgen"
	"github.com/meenmo/autocall/payoff"
)

func main() {
	cfg := config.Default()
	market, err := cfg.Resolve()
	if err != nil {
		panic(err)
	}

	strike := cfg.Autocall.Strike
	maturity, err := market.Maturity(cfg.Autocall.Expiry)
	if err != nil {
		panic(err)
	}
	volatility, err := cfg.Autocall.Vol.Build(market.Settlement, market.DayCount)
	if err != nil {
		panic(err)
	}

	schedule, err := note.ReferenceCertificate(strike).Enrich(market.Valuation())
	if err != nil {
		panic(err)
	}
	certificate, err := payoff.NewAutocallable(schedule)
	if err != nil {
		panic(err)
	}

	process, err := model.New(model.Params{Kind: model.BlackScholes}, model.Market{
		Spot:     market.Spot,
		RiskFree: market.RiskFree,
		Vol:      volatility,
		Strike:   strike,
		Maturity: maturity,
	})
	if err != nil {
		panic(err)
	}
	grid, err := pathgen.NewTimeGrid(maturity, 250)
	if err != nil {
		panic(err)
	}
	gen, err := pathgen.New(process, grid, 10000, 0)
	if err != nil {
		panic(err)
	}

	eng, err := engine.New(gen, certificate, engine.WithWorkers(4))
	if err != nil {
		panic(err)
	}
	rep, err := eng.Run(context.Background())
	if err != nil {
		panic(err)
	}

	lo, hi := schedule.Bounds()
	fmt.Printf("Settlement: %s\n", market.Settlement.Format("2006-01-02"))
	fmt.Printf("Price: %.4f (+/- %.4f)\n", rep.Result.Mean, rep.Result.ErrorEstimate)
	fmt.Printf("Payoff bounds: [%.2f, %.2f]\n", lo, hi)
}
