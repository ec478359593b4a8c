package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meenmo/autocall/cmd/mcprice/internal/app"
	"github.com/meenmo/autocall/cmd/mcprice/internal/autocall"
	"github.com/meenmo/autocall/cmd/mcprice/internal/replication"
)

const version = "v0.4.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var g app.Globals
	root := &cobra.Command{
		Use:     "mcprice",
		Short:   "Monte Carlo pricing of autocallable certificates and hedge replication",
		Version: version,
		Long: `mcprice prices the reference autocallable certificate by Monte Carlo
and measures the replication error of discrete delta hedging.

Configuration is read from --config (YAML) over the built-in reference
contract; MCPRICE_SEED, MCPRICE_SAMPLES, MCPRICE_WORKERS and
MCPRICE_LOG_LEVEL override it, also when set in the --env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.Bind(root)
	root.AddCommand(autocall.NewCommand(&g), replication.NewCommand(&g))
	return root
}
