package model

import (
	"fmt"
	"strings"

	"github.com/meenmo/autocall/errs"
)

// Kind is the closed set of supported diffusion models.
type Kind int

const (
	// BlackScholes is a lognormal process with deterministic rates and vol.
	BlackScholes Kind = iota + 1
	// Heston is the square-root stochastic volatility process.
	Heston
)

func (k Kind) String() string {
	switch k {
	case BlackScholes:
		return "black-scholes"
	case Heston:
		return "heston"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind resolves an operator selector. Single letters ("B", "H") are
// accepted as well as the full model names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "bs", "black-scholes", "blackscholes", "lognormal":
		return BlackScholes, nil
	case "h", "heston":
		return Heston, nil
	default:
		return 0, fmt.Errorf("ParseKind: %q: %w", s, errs.ErrUnsupportedModel)
	}
}
