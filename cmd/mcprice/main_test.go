package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/autocall/cmd/mcprice/internal/autocall"
	"github.com/meenmo/autocall/cmd/mcprice/internal/replication"
)

const smallRun = `
simulation:
  steps: 60
  samples: 400
  seed: 7
  workers: 2
replication:
  hedge_frequencies: [2, 8]
  samples: 400
logging:
  level: error
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(smallRun), 0o600))

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", cfg, "--env", filepath.Join(dir, "none.env")))
	err := root.Execute()
	return out.String(), err
}

func TestAutocall_JSON(t *testing.T) {
	t.Parallel()

	text, err := execute(t, "autocall", "--format", "json", "--quote", "1000")
	require.NoError(t, err)

	var out autocall.Output
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "black-scholes", out.Model)
	assert.Equal(t, "2017-04-04", out.Settlement)
	assert.Equal(t, 400, out.Result.Samples)
	assert.GreaterOrEqual(t, out.Price, out.Lower)
	assert.LessOrEqual(t, out.Price, out.Upper)
	assert.Equal(t, 1000.0, out.Quote)
	assert.InDelta(t, (out.Price-1000)/10, out.ErrorPct, 1e-9)
	assert.NotEmpty(t, out.RunID)
	assert.Less(t, out.RiskFree, 0.0)
	assert.Greater(t, out.BondZero, out.RiskFree)
}

func TestAutocall_LegacyExitNeverExceedsDefault(t *testing.T) {
	t.Parallel()

	text, err := execute(t, "autocall", "--format", "json")
	require.NoError(t, err)
	var full autocall.Output
	require.NoError(t, json.Unmarshal([]byte(text), &full))

	text, err = execute(t, "autocall", "--format", "json", "--legacy-exit")
	require.NoError(t, err)
	var legacy autocall.Output
	require.NoError(t, json.Unmarshal([]byte(text), &legacy))

	// Same paths: the legacy reading pays zero wherever the first window
	// does not trigger.
	assert.Less(t, legacy.Price, full.Price)
}

func TestReplication_JSON(t *testing.T) {
	t.Parallel()

	text, err := execute(t, "replication", "--format", "json", "--frequencies", "4,16")
	require.NoError(t, err)

	var out replication.Output
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, "call", out.Type)
	assert.Equal(t, 18.81, out.Strike)
	assert.Greater(t, out.OptionValue, 0.0)
	require.Len(t, out.Rows, 2)
	for i, r := range out.Rows {
		assert.Equal(t, 400, r.Result.Samples)
		assert.Greater(t, r.DermanKamal, 0.0)
		require.Len(t, r.Quantiles, 3)
		assert.LessOrEqual(t, r.Quantiles[0], r.Quantiles[2])
		if i > 0 {
			assert.Less(t, r.DermanKamal, out.Rows[i-1].DermanKamal)
		}
	}
}

func TestTableOutput(t *testing.T) {
	t.Parallel()

	text, err := execute(t, "replication", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, text, "Replication error: short call")
	assert.Contains(t, text, "Derman-Kamal")
	assert.Contains(t, text, "Run completed in")

	var rows int
	for _, line := range strings.Split(text, "\n") {
		f := strings.Fields(line)
		if len(f) == 10 && (f[0] == "2" || f[0] == "8") {
			rows++
		}
	}
	assert.Equal(t, 2, rows)
}

func TestUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "autocall", "--format", "yaml")
	assert.Error(t, err)
}
