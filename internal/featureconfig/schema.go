package featureconfig

import "fmt"

// FeatureNames returns the fixed-order names of the engineered feature
// vector for this configuration. The engineer writes values in exactly
// this order and scoring checks the config version, so a training/inference
// schema mismatch is an explicit error rather than a silent misalignment.
func (f Features) FeatureNames() []string {
	names := make([]string, 0, f.NumFeatures())

	// Base metrics off the latest visible snapshot
	names = append(names, f.BaseMetrics...)

	// Lagged values
	for _, m := range f.BaseMetrics {
		for _, lag := range f.LagDepths {
			names = append(names, fmt.Sprintf("%s_lag%d", m, lag))
		}
	}

	// Quarter-over-quarter and year-over-year changes
	for _, m := range f.BaseMetrics {
		names = append(names, m+"_qoq", m+"_yoy")
	}

	// Rolling statistics
	for _, m := range f.BaseMetrics {
		for _, w := range f.RollingWindows {
			names = append(names,
				fmt.Sprintf("%s_mean%d", m, w),
				fmt.Sprintf("%s_std%d", m, w),
				fmt.Sprintf("%s_slope%d", m, w))
		}
	}

	// Price momentum, volatility, volume trend
	for _, d := range f.MomentumLookbacksDays {
		names = append(names, fmt.Sprintf("ret_%dd", d))
	}
	names = append(names, fmt.Sprintf("vol_%dd", f.VolatilityWindowDays))
	names = append(names, "volume_trend")

	return names
}

// NumFeatures returns the length of the engineered vector.
func (f Features) NumFeatures() int {
	b := len(f.BaseMetrics)
	return b*(1+len(f.LagDepths)+2+3*len(f.RollingWindows)) +
		len(f.MomentumLookbacksDays) + 2
}

// SectorCode maps a sector name to its categorical code under this
// configuration's fixed vocabulary. Code 0 is reserved for unknown.
func (f Features) SectorCode(sector string) int {
	for i, s := range f.Sectors {
		if s == sector {
			return i + 1
		}
	}
	return 0
}
