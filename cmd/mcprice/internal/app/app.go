// Package app holds what the mcprice subcommands share: configuration,
// logger, metrics recorder and the output mode.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meenmo/autocall/config"
	"github.com/meenmo/autocall/logging"
	"github.com/meenmo/autocall/metrics"
)

// Output formats accepted by --format.
const (
	FormatAuto  = "auto"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Globals are the persistent flags of the root command.
type Globals struct {
	ConfigPath string
	EnvFile    string
	Format     string
}

// Bind registers the persistent flags on root.
func (g *Globals) Bind(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "YAML run configuration (defaults to the reference contract)")
	root.PersistentFlags().StringVar(&g.EnvFile, "env", ".env", "dotenv file with MCPRICE_* overrides")
	root.PersistentFlags().StringVar(&g.Format, "format", FormatAuto, "output format (auto|table|json)")
}

// Env is one subcommand invocation.
type Env struct {
	Config  config.Run
	Market  config.Market
	Log     *logrus.Logger
	Metrics *metrics.Recorder
	Out     io.Writer
	Table   bool
}

// Setup loads the configuration and builds the logger and the market.
func Setup(g *Globals, out io.Writer) (*Env, error) {
	cfg, err := config.Load(g.ConfigPath, g.EnvFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	market, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	table, err := tableOutput(g.Format, out)
	if err != nil {
		return nil, err
	}
	return &Env{
		Config:  cfg,
		Market:  market,
		Log:     log,
		Metrics: metrics.NewRecorder(),
		Out:     out,
		Table:   table,
	}, nil
}

// tableOutput resolves auto to a table on a terminal and JSON otherwise.
func tableOutput(format string, out io.Writer) (bool, error) {
	switch strings.ToLower(format) {
	case FormatTable:
		return true, nil
	case FormatJSON:
		return false, nil
	case FormatAuto, "":
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("unknown output format %q", format)
	}
}

// Finish exports the metrics textfile when one is configured.
func (e *Env) Finish() error {
	path := e.Config.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := e.Metrics.WriteTextfile(path); err != nil {
		return err
	}
	e.Log.WithField("path", path).Debug("metrics textfile written")
	return nil
}

// JSON writes v indented.
func (e *Env) JSON(v any) error {
	enc := json.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Heading prints a bold title line in table mode.
func (e *Env) Heading(format string, a ...any) {
	color.New(color.Bold).Fprintf(e.Out, format+"\n", a...)
}

// Signed colours a relative error: green within tol, red beyond.
func Signed(v, tol float64, format string) string {
	if v <= tol && v >= -tol {
		return color.GreenString(format, v)
	}
	return color.RedString(format, v)
}
