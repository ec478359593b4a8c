// Package engine drives Monte Carlo runs: draw a path, evaluate it, and
// accumulate the outcome, for every sample of a generator.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/logging"
	"github.com/meenmo/autocall/pathgen"
	"github.com/meenmo/autocall/payoff"
	"github.com/meenmo/autocall/stats"
)

// ctxCheckEvery is how many samples a worker evaluates between context
// checks.
const ctxCheckEvery = 256

// Observer receives run lifecycle events. metrics.Recorder implements it.
type Observer interface {
	RunStarted(evaluator string)
	SamplesDone(evaluator string, n int)
	RunFinished(evaluator string, res stats.Result, elapsed time.Duration, err error)
}

// Engine pairs a sample generator with an evaluator.
type Engine struct {
	gen      *pathgen.Generator
	eval     payoff.Evaluator
	workers  int
	label    string
	outcomes bool
	log      logrus.FieldLogger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers splits the samples into n contiguous chunks evaluated
// concurrently. n <= 1 runs sequentially.
func WithWorkers(n int) Option { return func(e *Engine) { e.workers = n } }

// WithLabel names the evaluator in logs and metrics.
func WithLabel(label string) Option { return func(e *Engine) { e.label = label } }

// WithLogger sets the run logger.
func WithLogger(l logrus.FieldLogger) Option { return func(e *Engine) { e.log = l } }

// WithObserver attaches a lifecycle observer.
func WithObserver(o Observer) Option { return func(e *Engine) { e.observer = o } }

// WithOutcomes keeps every sample outcome in the report, in sample order.
func WithOutcomes() Option { return func(e *Engine) { e.outcomes = true } }

// New validates the inputs. All preconditions are checked here, before any
// sample is drawn.
func New(gen *pathgen.Generator, eval payoff.Evaluator, opts ...Option) (*Engine, error) {
	if gen == nil || eval == nil {
		return nil, errs.Precondition("engine.New: generator and evaluator are required")
	}
	e := &Engine{gen: gen, eval: eval, workers: 1, label: "mc"}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.workers > gen.Samples() {
		e.workers = gen.Samples()
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	return e, nil
}

// Report is the outcome of a completed run.
type Report struct {
	RunID    string        `json:"run_id"`
	Result   stats.Result  `json:"result"`
	Elapsed  time.Duration `json:"elapsed"`
	Workers  int           `json:"workers"`
	Outcomes []float64     `json:"-"`
}

// Run evaluates every sample and returns the accumulated moments. The first
// evaluator error or non-finite outcome aborts the run.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	runID := uuid.NewString()
	log := e.log.WithFields(logrus.Fields{
		"run_id":    runID,
		"evaluator": e.label,
		"samples":   e.gen.Samples(),
		"steps":     e.gen.Grid().Steps(),
		"workers":   e.workers,
	})
	log.Info("monte carlo run started")
	if e.observer != nil {
		e.observer.RunStarted(e.label)
	}

	start := time.Now()
	var outcomes []float64
	if e.outcomes {
		outcomes = make([]float64, e.gen.Samples())
	}

	var (
		acc stats.Accumulator
		err error
	)
	if e.workers == 1 {
		acc, err = e.runSequential(ctx, outcomes)
	} else {
		acc, err = e.runParallel(ctx, outcomes)
	}
	elapsed := time.Since(start)
	res := acc.Result()

	if e.observer != nil {
		e.observer.RunFinished(e.label, res, elapsed, err)
	}
	if err != nil {
		log.WithError(err).Error("monte carlo run failed")
		return Report{}, err
	}
	log.WithFields(logrus.Fields{
		"mean":    res.Mean,
		"std_dev": res.StdDev,
		"elapsed": logging.Elapsed(elapsed),
	}).Info("monte carlo run completed")

	return Report{RunID: runID, Result: res, Elapsed: elapsed, Workers: e.workers, Outcomes: outcomes}, nil
}

func (e *Engine) runSequential(ctx context.Context, outcomes []float64) (stats.Accumulator, error) {
	var acc stats.Accumulator
	stream := e.gen.Stream()
	for sample, ok := stream.Next(); ok; sample, ok = stream.Next() {
		if sample.Index%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return acc, err
			}
		}
		if err := e.evaluate(sample, &acc, outcomes); err != nil {
			return acc, err
		}
	}
	if e.observer != nil {
		e.observer.SamplesDone(e.label, acc.Count())
	}
	return acc, nil
}

func (e *Engine) runParallel(ctx context.Context, outcomes []float64) (stats.Accumulator, error) {
	n := e.gen.Samples()
	parts := make([]stats.Accumulator, e.workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < e.workers; w++ {
		lo, hi := w*n/e.workers, (w+1)*n/e.workers
		acc := &parts[w]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%ctxCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				sample, err := e.gen.Sample(i)
				if err != nil {
					return err
				}
				if err := e.evaluate(sample, acc, outcomes); err != nil {
					return err
				}
			}
			if e.observer != nil {
				e.observer.SamplesDone(e.label, hi-lo)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.Accumulator{}, err
	}

	// Chunks merge in sample order so a given worker count is reproducible.
	var total stats.Accumulator
	for w := range parts {
		total.Merge(&parts[w])
	}
	return total, nil
}

func (e *Engine) evaluate(sample pathgen.Sample, acc *stats.Accumulator, outcomes []float64) error {
	v, err := e.eval.Evaluate(sample.Underlying())
	if err != nil {
		return fmt.Errorf("engine: sample %d: %w", sample.Index, err)
	}
	if err := acc.Add(v); err != nil {
		return fmt.Errorf("engine: sample %d: %w", sample.Index, err)
	}
	if outcomes != nil {
		outcomes[sample.Index] = v
	}
	return nil
}
