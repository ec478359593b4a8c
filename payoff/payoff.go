// Package payoff maps one simulated path to one scalar outcome.
package payoff

import (
	"github.com/meenmo/autocall/errs"
	"github.com/meenmo/autocall/pathgen"
)

// Evaluator prices a single path. Implementations are read-only after
// construction and safe for concurrent use.
type Evaluator interface {
	Evaluate(path pathgen.Path) (float64, error)
}

// Func adapts a plain function to Evaluator.
type Func func(path pathgen.Path) (float64, error)

func (f Func) Evaluate(path pathgen.Path) (float64, error) { return f(path) }

// horizonTolerance absorbs rounding between grid times and year fractions.
const horizonTolerance = 1e-9

func checkPath(fn string, path pathgen.Path) error {
	if path.Len() < 2 {
		return errs.Precondition("%s: path has %d points, need at least 2", fn, path.Len())
	}
	return nil
}
