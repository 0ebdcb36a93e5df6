package labels

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/contracts"
)

// graceDays tolerates as-of dates and horizon endpoints that fall on
// non-trading days: the entry bar may precede the as-of date by up to this
// many calendar days, and the exit bar may follow the horizon end by the
// same amount.
const graceDays = 7

// Builder computes realized forward-return labels from future price
// history. A label whose future bar does not exist (horizon not yet
// elapsed, or the ticker delisted) comes back as ErrMissingLabel and the
// row is excluded from training and evaluation, never imputed.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a label builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "labels.builder").Logger(),
	}
}

// Compute builds the label for (ticker, asOf, horizon). bars is the full
// available price history ordered by date ascending; unlike feature
// computation, label computation deliberately reads bars after asOf:
// that is the realized future it measures.
func (b *Builder) Compute(ticker string, asOf time.Time, horizon contracts.Horizon, kind contracts.LabelKind, bars []contracts.PriceBar) (contracts.Label, error) {
	entryIdx := lastBarOnOrBefore(bars, asOf)
	if entryIdx < 0 || asOf.Sub(bars[entryIdx].Date) > graceDays*24*time.Hour {
		return contracts.Label{}, fmt.Errorf("%s at %s: no entry bar: %w",
			ticker, asOf.Format("2006-01-02"), contracts.ErrMissingLabel)
	}
	entry := bars[entryIdx].AdjClose()
	if entry <= 0 {
		return contracts.Label{}, fmt.Errorf("%s at %s: non-positive entry price: %w",
			ticker, asOf.Format("2006-01-02"), contracts.ErrMissingLabel)
	}

	target := asOf.AddDate(0, 0, horizon.Days())
	exitIdx := firstBarOnOrAfter(bars, target)
	if exitIdx < 0 || bars[exitIdx].Date.Sub(target) > graceDays*24*time.Hour {
		return contracts.Label{}, fmt.Errorf("%s at %s horizon %s: no exit bar: %w",
			ticker, asOf.Format("2006-01-02"), horizon, contracts.ErrMissingLabel)
	}

	label := contracts.Label{
		Ticker:   ticker,
		AsOfDate: asOf,
		Horizon:  horizon,
		Kind:     kind,
		Valid:    true,
	}

	switch kind {
	case contracts.LabelPeak:
		// Maximum return over (asOf, asOf+horizon]. The exit-bar check
		// above already guarantees the whole window has elapsed, so every
		// intermediate bar examined here exists in realized history.
		best := bars[exitIdx].AdjClose()/entry - 1
		for i := entryIdx + 1; i <= exitIdx; i++ {
			if bars[i].Date.After(target) {
				break
			}
			if r := bars[i].AdjClose()/entry - 1; r > best {
				best = r
			}
		}
		label.Return = best
	default:
		label.Return = bars[exitIdx].AdjClose()/entry - 1
	}

	return label, nil
}

// lastBarOnOrBefore returns the index of the latest bar dated <= t, or -1.
func lastBarOnOrBefore(bars []contracts.PriceBar, t time.Time) int {
	lo, hi := 0, len(bars)
	for lo < hi {
		mid := (lo + hi) / 2
		if bars[mid].Date.After(t) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo - 1
}

// firstBarOnOrAfter returns the index of the earliest bar dated >= t, or -1.
func firstBarOnOrAfter(bars []contracts.PriceBar, t time.Time) int {
	lo, hi := 0, len(bars)
	for lo < hi {
		mid := (lo + hi) / 2
		if bars[mid].Date.Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(bars) {
		return -1
	}
	return lo
}
