package contracts

import "fmt"

// BuildDiagnostics accounts for every row excluded during dataset
// construction, so silent data shrinkage is always visible.
type BuildDiagnostics struct {
	Tickers             int `json:"tickers"`
	RowsRequested       int `json:"rows_requested"`
	RowsBuilt           int `json:"rows_built"`
	InsufficientHistory int `json:"insufficient_history"`
	MissingLabel        int `json:"missing_label"`
	CacheHits           int `json:"cache_hits"`
	ZeroVarianceDates   int `json:"zero_variance_dates"`
}

// Add accumulates other into d.
func (d *BuildDiagnostics) Add(other BuildDiagnostics) {
	d.Tickers += other.Tickers
	d.RowsRequested += other.RowsRequested
	d.RowsBuilt += other.RowsBuilt
	d.InsufficientHistory += other.InsufficientHistory
	d.MissingLabel += other.MissingLabel
	d.CacheHits += other.CacheHits
	d.ZeroVarianceDates += other.ZeroVarianceDates
}

// Excluded returns the total number of excluded rows.
func (d *BuildDiagnostics) Excluded() int {
	return d.InsufficientHistory + d.MissingLabel
}

func (d *BuildDiagnostics) String() string {
	return fmt.Sprintf("rows=%d/%d excluded=%d (insufficient_history=%d missing_label=%d) cache_hits=%d",
		d.RowsBuilt, d.RowsRequested, d.Excluded(), d.InsufficientHistory, d.MissingLabel, d.CacheHits)
}
