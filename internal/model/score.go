package model

import (
	"fmt"
	"sort"

	"github.com/rubenayla/invest/internal/contracts"
)

// ScoredTicker is one entry of a predicted-return ranking.
type ScoredTicker struct {
	Rank   int     `json:"rank"`
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
}

// Rank scores a normalized cross-section and returns tickers ordered by
// predicted return, best first. Every row must have been engineered under
// the config version the model was trained with; a mismatch means the
// feature layout differs and the scores would be garbage.
func (m *Model) Rank(rows []*contracts.FeatureRow) ([]ScoredTicker, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty cross-section")
	}

	ranking := make([]ScoredTicker, len(rows))
	for i, row := range rows {
		if row.ConfigVersion != m.ConfigVersion {
			return nil, fmt.Errorf("row %s engineered under config %q, model trained with %q",
				row.Ticker, row.ConfigVersion, m.ConfigVersion)
		}
		if len(row.Values) != len(m.FeatureNames) {
			return nil, fmt.Errorf("row %s has %d features, model expects %d",
				row.Ticker, len(row.Values), len(m.FeatureNames))
		}
		ranking[i] = ScoredTicker{Ticker: row.Ticker, Score: m.Predict(row.Values)}
	}

	sort.SliceStable(ranking, func(a, b int) bool { return ranking[a].Score > ranking[b].Score })
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking, nil
}
