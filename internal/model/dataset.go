package model

import (
	"fmt"
	"time"
)

// Dataset is a training matrix aligned row-for-row with labels and row
// metadata, ordered by date. X values must be finite; normalization
// upstream imputes missing values before anything reaches a fit.
type Dataset struct {
	ConfigVersion string
	FeatureNames  []string
	X             [][]float64
	Y             []float64
	Tickers       []string
	Dates         []time.Time
}

// Len reports the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// Validate checks that every aligned slice has the same length and that
// rows are ordered by date.
func (d *Dataset) Validate() error {
	n := len(d.X)
	if len(d.Y) != n || len(d.Tickers) != n || len(d.Dates) != n {
		return fmt.Errorf("dataset slices misaligned: x=%d y=%d tickers=%d dates=%d",
			len(d.X), len(d.Y), len(d.Tickers), len(d.Dates))
	}
	for i := 1; i < n; i++ {
		if d.Dates[i].Before(d.Dates[i-1]) {
			return fmt.Errorf("dataset rows not ordered by date at row %d", i)
		}
	}
	return nil
}

// Subset gathers the rows at idx into a new dataset view. The underlying
// feature vectors are shared, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	sub := &Dataset{
		ConfigVersion: d.ConfigVersion,
		FeatureNames:  d.FeatureNames,
		X:             make([][]float64, len(idx)),
		Y:             make([]float64, len(idx)),
		Tickers:       make([]string, len(idx)),
		Dates:         make([]time.Time, len(idx)),
	}
	for j, i := range idx {
		sub.X[j] = d.X[i]
		sub.Y[j] = d.Y[i]
		sub.Tickers[j] = d.Tickers[i]
		sub.Dates[j] = d.Dates[i]
	}
	return sub
}
