package labels

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/pkg/logger"
)

// flatBars builds n daily bars starting at start, all closing at price.
func flatBars(start time.Time, n int, price float64) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, n)
	for i := 0; i < n; i++ {
		bars[i] = contracts.PriceBar{
			Ticker:         "TEST",
			Date:           start.AddDate(0, 0, i),
			Close:          price,
			Volume:         1000,
			SplitFactor:    1,
			DividendFactor: 1,
		}
	}
	return bars
}

func TestCompute_OneYearEndpointReturn(t *testing.T) {
	// Close 100 on day 0, 150 on day 365 -> 1y return = 0.50.
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 400, 100)
	for i := range bars {
		if !bars[i].Date.Before(start.AddDate(0, 0, 365)) {
			bars[i].Close = 150
		}
	}

	b := NewBuilder(logger.Nop())
	label, err := b.Compute("TEST", start, contracts.Horizon1Y, contracts.LabelEndpoint, bars)
	require.NoError(t, err)
	assert.True(t, label.Valid)
	assert.InDelta(t, 0.50, label.Return, 1e-12)
}

func TestCompute_MissingFutureBarExcludes(t *testing.T) {
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 100, 100) // only ~3 months of future data

	b := NewBuilder(logger.Nop())
	_, err := b.Compute("TEST", start, contracts.Horizon1Y, contracts.LabelEndpoint, bars)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingLabel),
		"a horizon beyond the latest bar must exclude the row, not compute a number")
}

func TestCompute_NoEntryBarExcludes(t *testing.T) {
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 400, 100)

	b := NewBuilder(logger.Nop())
	// As-of long before the first bar: no entry price exists.
	_, err := b.Compute("TEST", start.AddDate(0, 0, -60), contracts.Horizon1M, contracts.LabelEndpoint, bars)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingLabel))
}

func TestCompute_WeekendAsOfUsesPriorBar(t *testing.T) {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 420, 100)

	// Remove the bar exactly at asOf to simulate a non-trading day.
	asOf := start.AddDate(0, 0, 10)
	filtered := make([]contracts.PriceBar, 0, len(bars))
	for _, bar := range bars {
		if !bar.Date.Equal(asOf) {
			filtered = append(filtered, bar)
		}
	}

	b := NewBuilder(logger.Nop())
	label, err := b.Compute("TEST", asOf, contracts.Horizon1M, contracts.LabelEndpoint, filtered)
	require.NoError(t, err)
	assert.True(t, label.Valid)
	assert.InDelta(t, 0.0, label.Return, 1e-12)
}

func TestCompute_PeakLabelTakesMaximum(t *testing.T) {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 150, 100)

	// Spike to 140 in the middle of the window, back to 110 at the end.
	for i := range bars {
		switch d := int(bars[i].Date.Sub(start).Hours() / 24); {
		case d == 45:
			bars[i].Close = 140
		case d >= 85:
			bars[i].Close = 110
		}
	}

	b := NewBuilder(logger.Nop())

	endpoint, err := b.Compute("TEST", start, contracts.Horizon3M, contracts.LabelEndpoint, bars)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, endpoint.Return, 1e-12)

	peak, err := b.Compute("TEST", start, contracts.Horizon3M, contracts.LabelPeak, bars)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, peak.Return, 1e-12, "peak label must capture the intra-window maximum")
}

func TestCompute_PeakRequiresFullWindow(t *testing.T) {
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 50, 100) // window not fully elapsed

	b := NewBuilder(logger.Nop())
	_, err := b.Compute("TEST", start, contracts.Horizon3M, contracts.LabelPeak, bars)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingLabel),
		"an intra-window peak must not be reported until the whole window has elapsed")
}

func TestCompute_SplitAdjustment(t *testing.T) {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	bars := flatBars(start, 60, 100)

	// 2:1 split at day 30: raw price halves, split factor doubles, so the
	// adjusted return stays flat.
	for i := range bars {
		if int(bars[i].Date.Sub(start).Hours()/24) >= 30 {
			bars[i].Close = 50
			bars[i].SplitFactor = 2
		}
	}

	b := NewBuilder(logger.Nop())
	label, err := b.Compute("TEST", start, contracts.Horizon1M, contracts.LabelEndpoint, bars)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, label.Return, 1e-12)
}
