package normalize

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/rubenayla/invest/internal/contracts"
)

// Normalizer winsorizes and standardizes feature rows against their own
// cross-section: the peer rows sharing one as-of date. Statistics are never
// pooled across dates, which is what keeps the representation regime
// agnostic. Input rows are not mutated; FitTransform returns derived rows.
type Normalizer struct {
	lowerPct float64
	upperPct float64
	stdEps   float64
	log      zerolog.Logger
}

// New creates a normalizer with the standard [1st, 99th] percentile clip.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{
		lowerPct: 0.01,
		upperPct: 0.99,
		stdEps:   1e-12,
		log:      log.With().Str("component", "normalize").Logger(),
	}
}

// FitTransform normalizes a cross-section of rows that share one as-of
// date. Per numeric column, independently: clip to the [1st, 99th]
// percentile of that date's values, subtract that date's mean, divide by
// that date's standard deviation. Columns with (near) zero variance are
// treated as constant zero for the date instead of dividing by zero;
// their count is returned as a diagnostic. Values that were missing (NaN)
// stay flagged and are imputed to 0, the post-standardization mean.
func (n *Normalizer) FitTransform(rows []*contracts.FeatureRow) ([]*contracts.FeatureRow, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}

	date := rows[0].AsOfDate
	version := rows[0].ConfigVersion
	width := len(rows[0].Values)
	for _, r := range rows {
		if !r.AsOfDate.Equal(date) {
			return nil, 0, fmt.Errorf("cross-section mixes dates %s and %s",
				date.Format("2006-01-02"), r.AsOfDate.Format("2006-01-02"))
		}
		if r.ConfigVersion != version {
			return nil, 0, fmt.Errorf("cross-section mixes config versions %q and %q", version, r.ConfigVersion)
		}
		if len(r.Values) != width {
			return nil, 0, fmt.Errorf("cross-section mixes vector widths %d and %d", width, len(r.Values))
		}
	}

	out := make([]*contracts.FeatureRow, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}

	zeroVariance := 0
	column := make([]float64, 0, len(rows))

	for j := 0; j < width; j++ {
		column = column[:0]
		for _, r := range rows {
			if !math.IsNaN(r.Values[j]) {
				column = append(column, r.Values[j])
			}
		}

		if len(column) == 0 {
			// Nothing reported this date: constant zero.
			for _, r := range out {
				r.Values[j] = 0
			}
			continue
		}

		sort.Float64s(column)
		lo := stat.Quantile(n.lowerPct, stat.Empirical, column, nil)
		hi := stat.Quantile(n.upperPct, stat.Empirical, column, nil)

		// Mean/std of the winsorized distribution
		clipped := make([]float64, len(column))
		for k, v := range column {
			clipped[k] = clamp(v, lo, hi)
		}
		mean, std := stat.MeanStdDev(clipped, nil)
		if math.IsNaN(std) {
			std = 0
		}

		if std < n.stdEps {
			zeroVariance++
			for _, r := range out {
				r.Values[j] = 0
			}
			continue
		}

		for _, r := range out {
			if math.IsNaN(r.Values[j]) {
				r.Values[j] = 0 // cross-sectional mean after standardization
				continue
			}
			r.Values[j] = (clamp(r.Values[j], lo, hi) - mean) / std
		}
	}

	if zeroVariance > 0 {
		n.log.Debug().
			Str("date", date.Format("2006-01-02")).
			Int("zero_variance_columns", zeroVariance).
			Msg("constant features in cross-section")
	}

	return out, zeroVariance, nil
}

// TransformByDate groups rows by as-of date and normalizes each group
// separately, preserving the input order. The second return is the number
// of dates that had at least one zero-variance column.
func (n *Normalizer) TransformByDate(rows []*contracts.FeatureRow) ([]*contracts.FeatureRow, int, error) {
	groups := make(map[int64][]int)
	order := make([]int64, 0)
	for i, r := range rows {
		key := r.AsOfDate.Unix()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	out := make([]*contracts.FeatureRow, len(rows))
	zeroVarDates := 0

	for _, key := range order {
		idxs := groups[key]
		batch := make([]*contracts.FeatureRow, len(idxs))
		for k, i := range idxs {
			batch[k] = rows[i]
		}

		normalized, zeroVar, err := n.FitTransform(batch)
		if err != nil {
			return nil, 0, err
		}
		if zeroVar > 0 {
			zeroVarDates++
		}
		for k, i := range idxs {
			out[i] = normalized[k]
		}
	}

	return out, zeroVarDates, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
