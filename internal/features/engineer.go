package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/featureconfig"
)

// Engineer turns a ticker's point-in-time snapshot and price history into a
// fixed-schema FeatureRow. Every value it emits is computable from inputs
// whose effective-visibility date is <= the row's as-of-date; inputs that
// violate that bound make Compute fail hard with a LookaheadError.
type Engineer struct {
	cfg     featureconfig.Features
	version string
	names   []string
	log     zerolog.Logger
}

// NewEngineer creates a feature engineer for one config version.
func NewEngineer(cfg *featureconfig.Config, log zerolog.Logger) *Engineer {
	return &Engineer{
		cfg:     cfg.Features,
		version: cfg.Meta.Version,
		names:   cfg.Features.FeatureNames(),
		log:     log.With().Str("component", "features.engineer").Logger(),
	}
}

// FeatureNames returns the fixed-order names of the engineered vector.
func (e *Engineer) FeatureNames() []string {
	return e.names
}

// Version returns the feature config version stamped on every row.
func (e *Engineer) Version() string {
	return e.version
}

// Compute builds the FeatureRow for (ticker, asOf).
//
// snaps must contain only snapshots already visible at asOf (effective date
// <= asOf), oldest first; bars must contain only bars dated <= asOf, oldest
// first. Callers filter with VisibleSnapshots/VisibleBars; a violation here
// is a lookahead bug, not a recoverable condition.
//
// Returns contracts.ErrInsufficientHistory when the ticker has fewer
// snapshots than the deepest configured lag plus one; such rows are
// excluded from the dataset, never zero-filled.
func (e *Engineer) Compute(ticker string, asOf time.Time, snaps []contracts.Snapshot, bars []contracts.PriceBar) (*contracts.FeatureRow, error) {
	for i := range snaps {
		if snaps[i].EffectiveDate().After(asOf) {
			return nil, &contracts.LookaheadError{
				Ticker:   ticker,
				AsOfDate: asOf,
				DataDate: snaps[i].AsOfDate,
				What:     "snapshot",
			}
		}
	}
	for i := range bars {
		if bars[i].Date.After(asOf) {
			return nil, &contracts.LookaheadError{
				Ticker:   ticker,
				AsOfDate: asOf,
				DataDate: bars[i].Date,
				What:     "price bar",
			}
		}
	}

	if len(snaps) < e.cfg.MinSnapshots() {
		return nil, fmt.Errorf("%s at %s: have %d snapshots, need %d: %w",
			ticker, asOf.Format("2006-01-02"), len(snaps), e.cfg.MinSnapshots(),
			contracts.ErrInsufficientHistory)
	}

	row := &contracts.FeatureRow{
		Ticker:        ticker,
		AsOfDate:      asOf,
		ConfigVersion: e.version,
		Values:        make([]float64, 0, len(e.names)),
		Missing:       make([]bool, 0, len(e.names)),
	}

	latest := &snaps[len(snaps)-1]
	row.SectorCode = e.cfg.SectorCode(latest.Sector)

	// Base metrics
	for _, m := range e.cfg.BaseMetrics {
		v, ok := latest.Metric(m)
		appendValue(row, v, ok)
	}

	// Lagged values
	for _, m := range e.cfg.BaseMetrics {
		for _, lag := range e.cfg.LagDepths {
			v, ok := metricAt(snaps, lag, m)
			appendValue(row, v, ok)
		}
	}

	// QoQ and YoY changes: null unless the required prior snapshot exists
	// and both endpoints were reported.
	for _, m := range e.cfg.BaseMetrics {
		cur, curOK := latest.Metric(m)

		prevQ, qOK := metricAt(snaps, 1, m)
		appendValue(row, cur-prevQ, curOK && qOK)

		prevY, yOK := metricAt(snaps, 4, m)
		appendValue(row, cur-prevY, curOK && yOK)
	}

	// Rolling statistics: null unless the window is fully populated.
	for _, m := range e.cfg.BaseMetrics {
		for _, w := range e.cfg.RollingWindows {
			mean, std, slope, ok := rollingStats(snaps, w, m)
			appendValue(row, mean, ok)
			appendValue(row, std, ok)
			appendValue(row, slope, ok)
		}
	}

	// Price momentum, volatility, volume trend
	for _, d := range e.cfg.MomentumLookbacksDays {
		v, ok := trailingReturn(bars, d)
		appendValue(row, v, ok)
	}
	vol, ok := trailingVolatility(bars, e.cfg.VolatilityWindowDays)
	appendValue(row, vol, ok)
	vt, ok := volumeTrend(bars, e.cfg.VolumeShortDays, e.cfg.VolumeLongDays)
	appendValue(row, vt, ok)

	return row, nil
}

// appendValue appends v or a flagged NaN when the input was absent.
func appendValue(row *contracts.FeatureRow, v float64, ok bool) {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		row.Values = append(row.Values, math.NaN())
		row.Missing = append(row.Missing, true)
		return
	}
	row.Values = append(row.Values, v)
	row.Missing = append(row.Missing, false)
}

// metricAt returns metric m from the snapshot `lag` positions before the
// latest one.
func metricAt(snaps []contracts.Snapshot, lag int, m string) (float64, bool) {
	idx := len(snaps) - 1 - lag
	if idx < 0 {
		return 0, false
	}
	return snaps[idx].Metric(m)
}

// rollingStats computes mean, standard deviation and linear-trend slope of
// metric m over the trailing `window` snapshots. ok is false unless every
// snapshot in the window reported the metric.
func rollingStats(snaps []contracts.Snapshot, window int, m string) (mean, std, slope float64, ok bool) {
	if len(snaps) < window {
		return 0, 0, 0, false
	}

	xs := make([]float64, window)
	ys := make([]float64, window)
	for i := 0; i < window; i++ {
		v, present := snaps[len(snaps)-window+i].Metric(m)
		if !present {
			return 0, 0, 0, false
		}
		xs[i] = float64(i)
		ys[i] = v
	}

	mean, std = stat.MeanStdDev(ys, nil)
	if math.IsNaN(std) {
		std = 0
	}
	_, slope = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) {
		slope = 0
	}
	return mean, std, slope, true
}

// VisibleSnapshots returns the snapshots whose effective date (as-of plus
// reporting lag) is <= asOf. Input must be ordered by as-of date ascending.
func VisibleSnapshots(snaps []contracts.Snapshot, asOf time.Time) []contracts.Snapshot {
	out := snaps[:0:0]
	for i := range snaps {
		if !snaps[i].EffectiveDate().After(asOf) {
			out = append(out, snaps[i])
		}
	}
	return out
}

// VisibleBars returns the bars dated <= asOf. Input must be ordered by date
// ascending; the result preserves that order.
func VisibleBars(bars []contracts.PriceBar, asOf time.Time) []contracts.PriceBar {
	// Bars are sorted, so find the cut point from the end.
	cut := len(bars)
	for cut > 0 && bars[cut-1].Date.After(asOf) {
		cut--
	}
	return bars[:cut]
}

// IsInsufficientHistory reports whether err is a row-level insufficient
// history exclusion.
func IsInsufficientHistory(err error) bool {
	return errors.Is(err, contracts.ErrInsufficientHistory)
}
