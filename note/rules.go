package note

import (
	"fmt"
	"strings"
)

// TriggerRule decides whether an early-call period is triggered by the
// underlying values observed in its window.
type TriggerRule int

const (
	// AnyDate triggers when any observation is at or above the level.
	AnyDate TriggerRule = iota + 1
	// Average triggers when the window average is at or above the level.
	Average
	// FinalDate looks only at the last observation of the window.
	FinalDate
)

func (r TriggerRule) String() string {
	switch r {
	case AnyDate:
		return "any-date"
	case Average:
		return "average"
	case FinalDate:
		return "final-date"
	default:
		return fmt.Sprintf("TriggerRule(%d)", int(r))
	}
}

// ParseTriggerRule accepts the names returned by String.
func ParseTriggerRule(s string) (TriggerRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any-date", "any":
		return AnyDate, nil
	case "average", "avg":
		return Average, nil
	case "final-date", "final", "single-date":
		return FinalDate, nil
	default:
		return 0, fmt.Errorf("ParseTriggerRule: unknown trigger rule %q", s)
	}
}

func (r TriggerRule) valid() bool { return r >= AnyDate && r <= FinalDate }

// Triggered applies the rule to the observed values. Equality counts as a
// trigger. An empty window never triggers.
func (r TriggerRule) Triggered(observed []float64, level float64) bool {
	if len(observed) == 0 {
		return false
	}
	switch r {
	case AnyDate:
		for _, v := range observed {
			if v >= level {
				return true
			}
		}
		return false
	case Average:
		return mean(observed) >= level
	case FinalDate:
		return observed[len(observed)-1] >= level
	default:
		return false
	}
}

// TerminalRule picks the metric compared against the barrier at maturity.
type TerminalRule int

const (
	// TerminalAverage averages the terminal entry's observation dates.
	TerminalAverage TerminalRule = iota + 1
	// TerminalLastValue uses the last value on the simulated path.
	TerminalLastValue
)

func (r TerminalRule) String() string {
	switch r {
	case TerminalAverage:
		return "average"
	case TerminalLastValue:
		return "last-value"
	default:
		return fmt.Sprintf("TerminalRule(%d)", int(r))
	}
}

// ParseTerminalRule accepts the names returned by String.
func ParseTerminalRule(s string) (TerminalRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "avg":
		return TerminalAverage, nil
	case "last-value", "last":
		return TerminalLastValue, nil
	default:
		return 0, fmt.Errorf("ParseTerminalRule: unknown terminal rule %q", s)
	}
}

func (r TerminalRule) valid() bool { return r == TerminalAverage || r == TerminalLastValue }

// Metric returns the terminal metric from the observed window values or the
// last path value.
func (r TerminalRule) Metric(observed []float64, last float64) float64 {
	if r == TerminalLastValue || len(observed) == 0 {
		return last
	}
	return mean(observed)
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
