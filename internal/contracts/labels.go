package contracts

import (
	"fmt"
	"time"
)

// Horizon is the forward-return horizon of a label.
type Horizon int

const (
	Horizon1M Horizon = iota
	Horizon3M
	Horizon1Y
	Horizon3Y
)

// Days returns the horizon length in calendar days.
func (h Horizon) Days() int {
	switch h {
	case Horizon1M:
		return 30
	case Horizon3M:
		return 91
	case Horizon1Y:
		return 365
	case Horizon3Y:
		return 1095
	default:
		return 0
	}
}

func (h Horizon) String() string {
	switch h {
	case Horizon1M:
		return "1m"
	case Horizon3M:
		return "3m"
	case Horizon1Y:
		return "1y"
	case Horizon3Y:
		return "3y"
	default:
		return fmt.Sprintf("horizon(%d)", int(h))
	}
}

// ParseHorizon parses a horizon string ("1m", "3m", "1y", "3y").
func ParseHorizon(s string) (Horizon, error) {
	switch s {
	case "1m":
		return Horizon1M, nil
	case "3m":
		return Horizon3M, nil
	case "1y":
		return Horizon1Y, nil
	case "3y":
		return Horizon3Y, nil
	default:
		return 0, fmt.Errorf("unknown horizon %q (want 1m|3m|1y|3y)", s)
	}
}

// LabelKind selects how the forward return is measured.
type LabelKind int

const (
	// LabelEndpoint measures the return at exactly as-of-date + horizon.
	LabelEndpoint LabelKind = iota
	// LabelPeak measures the maximum return observed at any bar within
	// (as-of-date, as-of-date + horizon].
	LabelPeak
)

func (k LabelKind) String() string {
	if k == LabelPeak {
		return "peak"
	}
	return "endpoint"
}

// Label is the forward-return target for one (ticker, as-of-date, horizon).
// Valid=false means the future price history needed to realize the return
// does not exist (not yet elapsed, or delisted); such rows are excluded
// from training and evaluation, never imputed.
type Label struct {
	Ticker   string    `json:"ticker"`
	AsOfDate time.Time `json:"as_of_date"`
	Horizon  Horizon   `json:"horizon"`
	Kind     LabelKind `json:"kind"`
	Return   float64   `json:"return"`
	Valid    bool      `json:"valid"`
}
