// Package errs holds the error taxonomy shared by the pricing packages.
//
// Callers match with errors.Is; the concrete message carries the failing
// function and the offending value.
package errs

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrPrecondition is returned for invalid inputs detected before a run
	// starts: non-positive maturity or strike, empty paths, zero steps.
	ErrPrecondition = errors.New("precondition violation")

	// ErrNumericalDegeneracy is returned when a discount ratio, forward or
	// sample outcome becomes non-finite or collapses to zero.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")

	// ErrUnsupportedModel is returned for diffusion model selectors outside
	// the known set.
	ErrUnsupportedModel = errors.New("unsupported model selection")
)

// Precondition wraps ErrPrecondition with a formatted message.
func Precondition(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPrecondition)
}

// Degenerate wraps ErrNumericalDegeneracy with a formatted message.
func Degenerate(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNumericalDegeneracy)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
