package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/autocall/metrics"
	"github.com/meenmo/autocall/stats"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.RunStarted("autocall")
	r.SamplesDone("autocall", 500)
	r.SamplesDone("autocall", 250)
	r.RunFinished("autocall", stats.Result{Samples: 750, Mean: 1012.5, StdDev: 80}, 2*time.Second, nil)
	r.RunStarted("replication")
	r.RunFinished("replication", stats.Result{}, time.Second, errors.New("boom"))

	path := filepath.Join(t.TempDir(), "mcprice.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `mcprice_samples_total{evaluator="autocall"} 750`)
	assert.Contains(t, text, `mcprice_result_mean{evaluator="autocall"} 1012.5`)
	assert.Contains(t, text, `mcprice_runs_total{evaluator="autocall",result="ok"} 1`)
	assert.Contains(t, text, `mcprice_runs_total{evaluator="replication",result="error"} 1`)
	assert.Contains(t, text, "mcprice_active_runs 0")

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	var histograms int
	for _, mf := range families {
		if mf.GetName() == "mcprice_run_duration_seconds" {
			histograms = len(mf.GetMetric())
		}
	}
	assert.Equal(t, 2, histograms)
}
