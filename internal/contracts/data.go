package contracts

import "time"

// DefaultReportingLagDays is the assumed delay between a fiscal period end
// and the filing becoming public. A snapshot is not visible to features or
// labels before AsOfDate + ReportingLagDays.
const DefaultReportingLagDays = 45

// Snapshot is one point-in-time fundamental observation for one ticker.
// Created by ingestion, immutable thereafter.
type Snapshot struct {
	Ticker           string     `json:"ticker"`
	AsOfDate         time.Time  `json:"as_of_date"`
	ReportingLagDays int        `json:"reporting_lag_days"`
	Sector           string     `json:"sector"`
	Metrics          MetricsMap `json:"metrics"` // nil value = metric not reported
}

// MetricsMap maps metric name to a nullable value.
type MetricsMap map[string]*float64

// EffectiveDate returns the first date at which this snapshot may be seen
// by any downstream feature or label.
func (s *Snapshot) EffectiveDate() time.Time {
	lag := s.ReportingLagDays
	if lag <= 0 {
		lag = DefaultReportingLagDays
	}
	return s.AsOfDate.AddDate(0, 0, lag)
}

// Metric returns the named metric value and whether it was reported.
func (s *Snapshot) Metric(name string) (float64, bool) {
	v, exists := s.Metrics[name]
	if !exists || v == nil {
		return 0, false
	}
	return *v, true
}

// PriceBar is one daily OHLCV observation for one ticker.
// Strictly one bar per (ticker, date).
type PriceBar struct {
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	Open           float64   `json:"open"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Close          float64   `json:"close"`
	Volume         int64     `json:"volume"`
	SplitFactor    float64   `json:"split_factor"`    // cumulative, 1.0 = no split
	DividendFactor float64   `json:"dividend_factor"` // cumulative, 1.0 = no dividend
}

// AdjClose returns the split/dividend adjusted close price. Returns used by
// features and labels are always computed on adjusted prices.
func (b *PriceBar) AdjClose() float64 {
	factor := b.SplitFactor * b.DividendFactor
	if factor <= 0 {
		factor = 1.0
	}
	return b.Close * factor
}
