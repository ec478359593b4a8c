package payoff

import (
	"math"

	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/note"
	"github.com/meenmo/autocall/pathgen"
)

// AutocallOption configures an Autocallable evaluator.
type AutocallOption func(*Autocallable)

// WithLegacyFirstPeriodExit reproduces the historical evaluator whose
// early-period loop returned on its first iteration: only the first period
// is ever checked, and a path that does not trigger it is worth zero.
func WithLegacyFirstPeriodExit() AutocallOption {
	return func(a *Autocallable) { a.legacyFirstExit = true }
}

// Autocallable values a path against an enriched schedule. Early periods
// are checked in order and the first one that triggers pays its call value;
// otherwise the terminal entry pays in full at or above the barrier, or the
// participation-scaled loss below it.
type Autocallable struct {
	schedule        note.Schedule
	early           []period
	terminal        period
	lastObservation float64
	legacyFirstExit bool
}

type period struct {
	times     []float64
	level     float64
	trigger   note.TriggerRule
	callValue float64
}

// NewAutocallable requires a schedule that went through Schedule.Enrich.
func NewAutocallable(s note.Schedule, opts ...AutocallOption) (*Autocallable, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !s.Enriched() {
		return nil, errs.Precondition("NewAutocallable: schedule has no present values")
	}
	a := &Autocallable{schedule: s}
	for _, r := range s.Early() {
		a.early = append(a.early, newPeriod(r))
	}
	a.terminal = newPeriod(s.Final())
	for _, r := range s.Repayments {
		times := r.ObservationTimes()
		a.lastObservation = math.Max(a.lastObservation, times[len(times)-1])
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func newPeriod(r note.Repayment) period {
	return period{
		times:     r.ObservationTimes(),
		level:     r.ExerciseLevel,
		trigger:   r.Trigger,
		callValue: r.CallValue(),
	}
}

// Schedule returns the schedule the evaluator was built on.
func (a *Autocallable) Schedule() note.Schedule { return a.schedule }

// Evaluate returns the discounted payoff of the note along path.
func (a *Autocallable) Evaluate(path pathgen.Path) (float64, error) {
	if err := checkPath("Autocallable.Evaluate", path); err != nil {
		return 0, err
	}
	if end := path.Grid().Maturity(); a.lastObservation > end+horizonTolerance {
		return 0, errs.Precondition("Autocallable.Evaluate: observation at %v past path end %v", a.lastObservation, end)
	}

	for _, p := range a.early {
		if p.trigger.Triggered(observe(path, p.times), p.level) {
			return p.callValue, nil
		}
		if a.legacyFirstExit {
			return 0, nil
		}
	}

	final := a.schedule.Final()
	metric := a.schedule.TerminalRule.Metric(observe(path, a.terminal.times), path.Back())
	if metric >= a.terminal.level {
		return a.terminal.callValue, nil
	}
	loss := a.schedule.Participation * (1 - metric/a.schedule.InitialLevel)
	return final.Value() * (1 - loss), nil
}

func observe(path pathgen.Path, times []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = path.ValueAt(t)
	}
	return out
}
