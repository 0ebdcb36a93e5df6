package featureconfig

import (
	"time"

	"github.com/rubenayla/invest/internal/contracts"
)

// Config is the full configuration of a dataset/model run: which features
// to engineer, which label to build, how to split, how to train. It is an
// explicit, immutable value threaded through every call; nothing in the
// pipeline reads process-wide state.
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Features Features `yaml:"features" json:"features"`
	Label    Label    `yaml:"label" json:"label"`
	Split    Split    `yaml:"split" json:"split"`
	Model    Model    `yaml:"model" json:"model"`
	Holdout  Holdout  `yaml:"holdout" json:"holdout"`
}

// Meta identifies the configuration.
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Features selects the engineered feature set.
type Features struct {
	BaseMetrics           []string `yaml:"base_metrics" json:"base_metrics"`
	LagDepths             []int    `yaml:"lag_depths" json:"lag_depths"`
	RollingWindows        []int    `yaml:"rolling_windows" json:"rolling_windows"`
	MomentumLookbacksDays []int    `yaml:"momentum_lookbacks_days" json:"momentum_lookbacks_days"`
	VolatilityWindowDays  int      `yaml:"volatility_window_days" json:"volatility_window_days"`
	VolumeShortDays       int      `yaml:"volume_short_days" json:"volume_short_days"`
	VolumeLongDays        int      `yaml:"volume_long_days" json:"volume_long_days"`
	Sectors               []string `yaml:"sectors" json:"sectors"`
}

// MinSnapshots returns the minimum number of historical snapshots a ticker
// must have to produce a valid row: the deepest configured lag plus one.
func (f Features) MinSnapshots() int {
	deepest := 0
	for _, lag := range f.LagDepths {
		if lag > deepest {
			deepest = lag
		}
	}
	return deepest + 1
}

// Label selects the forward-return target.
type Label struct {
	Horizon string `yaml:"horizon" json:"horizon"` // 1m|3m|1y|3y
	Kind    string `yaml:"kind" json:"kind"`       // endpoint|peak
}

// ParsedHorizon returns the typed horizon. Validate has already rejected
// unknown values by the time this is called.
func (l Label) ParsedHorizon() contracts.Horizon {
	h, _ := contracts.ParseHorizon(l.Horizon)
	return h
}

// ParsedKind returns the typed label kind.
func (l Label) ParsedKind() contracts.LabelKind {
	if l.Kind == "peak" {
		return contracts.LabelPeak
	}
	return contracts.LabelEndpoint
}

// Split configures the purged/embargoed time-series splitter.
type Split struct {
	NumFolds    int `yaml:"num_folds" json:"num_folds"`
	PurgeDays   int `yaml:"purge_days" json:"purge_days"`
	EmbargoDays int `yaml:"embargo_days" json:"embargo_days"`
}

// Model configures the gradient-boosted trainer. Seed is explicit so that
// two runs of the same config are bit-for-bit comparable.
type Model struct {
	NumTrees            int     `yaml:"num_trees" json:"num_trees"`
	MaxDepth            int     `yaml:"max_depth" json:"max_depth"`
	LearningRate        float64 `yaml:"learning_rate" json:"learning_rate"`
	MinSamplesLeaf      int     `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	Subsample           float64 `yaml:"subsample" json:"subsample"`
	EarlyStoppingRounds int     `yaml:"early_stopping_rounds" json:"early_stopping_rounds"`
	Seed                int64   `yaml:"seed" json:"seed"`
}

// Holdout configures the true temporal holdout evaluation.
type Holdout struct {
	Cutoff string `yaml:"cutoff" json:"cutoff"` // YYYY-MM-DD
}

// CutoffDate parses the holdout cutoff.
func (h Holdout) CutoffDate() (time.Time, error) {
	return time.Parse("2006-01-02", h.Cutoff)
}

// Lite returns the lite feature configuration: lag depths {1,2}, requiring
// only 4 historical quarters per ticker.
func Lite() *Config {
	cfg := Full()
	cfg.Meta.ConfigID = "rank_lite"
	cfg.Meta.Version = "lite-v1"
	cfg.Features.LagDepths = []int{1, 2}
	cfg.Features.RollingWindows = []int{4}
	return cfg
}

// Full returns the full feature configuration: lag depths {1,2,4,8},
// requiring 9+ historical quarters per ticker.
func Full() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "rank_full",
			Version:  "full-v1",
		},
		Features: Features{
			BaseMetrics: []string{
				"pe", "pb", "ps",
				"gross_margin", "operating_margin", "net_margin",
				"roe", "roa",
				"debt_to_equity", "current_ratio",
				"revenue", "net_income",
			},
			LagDepths:             []int{1, 2, 4, 8},
			RollingWindows:        []int{4, 8},
			MomentumLookbacksDays: []int{21, 63, 126, 252},
			VolatilityWindowDays:  63,
			VolumeShortDays:       21,
			VolumeLongDays:        126,
			Sectors: []string{
				"technology", "healthcare", "financials", "consumer_cyclical",
				"consumer_defensive", "industrials", "energy", "materials",
				"utilities", "real_estate", "communication",
			},
		},
		Label: Label{
			Horizon: "1y",
			Kind:    "endpoint",
		},
		Split: Split{
			NumFolds:    5,
			PurgeDays:   365,
			EmbargoDays: 21,
		},
		Model: Model{
			NumTrees:            300,
			MaxDepth:            3,
			LearningRate:        0.05,
			MinSamplesLeaf:      20,
			Subsample:           0.8,
			EarlyStoppingRounds: 25,
			Seed:                42,
		},
		Holdout: Holdout{
			Cutoff: "2023-01-01",
		},
	}
}
