package contracts

import "time"

// FeatureRow is the engineered representation for one (ticker, as-of-date)
// pair. Values is a fixed-order numeric vector whose ordering is defined by
// the feature config identified by ConfigVersion; NaN marks values that
// could not be computed. Missing is parallel to Values and records whether
// the underlying input was absent, since missingness itself carries signal.
// Rows are never mutated after creation; normalization produces new rows.
type FeatureRow struct {
	Ticker        string    `json:"ticker"`
	AsOfDate      time.Time `json:"as_of_date"`
	ConfigVersion string    `json:"config_version"`
	SectorCode    int       `json:"sector_code"`
	Values        []float64 `json:"values"`
	Missing       []bool    `json:"missing"`
}

// Clone returns a deep copy of the row.
func (r *FeatureRow) Clone() *FeatureRow {
	out := &FeatureRow{
		Ticker:        r.Ticker,
		AsOfDate:      r.AsOfDate,
		ConfigVersion: r.ConfigVersion,
		SectorCode:    r.SectorCode,
		Values:        make([]float64, len(r.Values)),
		Missing:       make([]bool, len(r.Missing)),
	}
	copy(out.Values, r.Values)
	copy(out.Missing, r.Missing)
	return out
}
