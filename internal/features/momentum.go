package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rubenayla/invest/internal/contracts"
)

// Price-derived features. All functions take bars ordered by date
// ascending, already filtered to dates <= the row's as-of-date.

// trailingReturn computes the adjusted return over the last `days` trading
// days. ok is false when the history is too short.
func trailingReturn(bars []contracts.PriceBar, days int) (float64, bool) {
	if len(bars) < days+1 {
		return 0, false
	}

	current := bars[len(bars)-1].AdjClose()
	past := bars[len(bars)-1-days].AdjClose()
	if past == 0 {
		return 0, false
	}

	return current/past - 1, true
}

// trailingVolatility computes the standard deviation of daily adjusted
// returns over the trailing `window` returns.
func trailingVolatility(bars []contracts.PriceBar, window int) (float64, bool) {
	if len(bars) < window+1 {
		return 0, false
	}

	returns := make([]float64, 0, window)
	for i := len(bars) - window; i < len(bars); i++ {
		prev := bars[i-1].AdjClose()
		if prev == 0 {
			return 0, false
		}
		returns = append(returns, bars[i].AdjClose()/prev-1)
	}

	sd := stat.StdDev(returns, nil)
	if math.IsNaN(sd) {
		return 0, false
	}
	return sd, true
}

// volumeTrend computes the ratio of recent average volume to longer-run
// average volume.
func volumeTrend(bars []contracts.PriceBar, shortDays, longDays int) (float64, bool) {
	if len(bars) < longDays {
		return 0, false
	}

	long := averageVolume(bars[len(bars)-longDays:])
	if long == 0 {
		return 0, false
	}
	short := averageVolume(bars[len(bars)-shortDays:])

	return short / long, true
}

func averageVolume(bars []contracts.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}

	var sum int64
	for i := range bars {
		sum += bars[i].Volume
	}
	return float64(sum) / float64(len(bars))
}
