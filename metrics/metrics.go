// Package metrics records Monte Carlo run statistics in a prometheus
// registry. Runs are batch jobs, so the registry is exported to a node
// exporter textfile rather than served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/meenmo/autocall/stats"
)

// Recorder holds the run collectors and their registry.
type Recorder struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	samples      *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	mean         *prometheus.GaugeVec
	stdDev       *prometheus.GaugeVec
	activeRuns   prometheus.Gauge
	lastFinished *prometheus.GaugeVec
}

// NewRecorder creates the collectors on a private registry, together with
// the go runtime collector.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcprice_runs_total",
				Help: "Completed Monte Carlo runs by evaluator and result",
			},
			[]string{"evaluator", "result"},
		),
		samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcprice_samples_total",
				Help: "Evaluated sample paths by evaluator",
			},
			[]string{"evaluator"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcprice_run_duration_seconds",
				Help:    "Wall time of a Monte Carlo run in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"evaluator"},
		),
		mean: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcprice_result_mean",
				Help: "Mean outcome of the last run",
			},
			[]string{"evaluator"},
		),
		stdDev: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcprice_result_std_dev",
				Help: "Outcome standard deviation of the last run",
			},
			[]string{"evaluator"},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcprice_active_runs",
				Help: "Runs currently in progress",
			},
		),
		lastFinished: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcprice_last_run_timestamp_seconds",
				Help: "Unix time of the last finished run",
			},
			[]string{"evaluator"},
		),
	}
	r.registry.MustRegister(
		r.runs, r.samples, r.runDuration, r.mean, r.stdDev, r.activeRuns, r.lastFinished,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) RunStarted(evaluator string) {
	r.activeRuns.Inc()
}

func (r *Recorder) SamplesDone(evaluator string, n int) {
	r.samples.WithLabelValues(evaluator).Add(float64(n))
}

// RunFinished records the outcome of a run; err != nil marks it failed.
func (r *Recorder) RunFinished(evaluator string, res stats.Result, elapsed time.Duration, err error) {
	r.activeRuns.Dec()
	r.runDuration.WithLabelValues(evaluator).Observe(elapsed.Seconds())
	r.lastFinished.WithLabelValues(evaluator).SetToCurrentTime()
	if err != nil {
		r.runs.WithLabelValues(evaluator, "error").Inc()
		return
	}
	r.runs.WithLabelValues(evaluator, "ok").Inc()
	r.mean.WithLabelValues(evaluator).Set(res.Mean)
	r.stdDev.WithLabelValues(evaluator).Set(res.StdDev)
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("WriteTextfile: %w", err)
	}
	return nil
}
