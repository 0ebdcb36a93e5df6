package featureconfig

import (
	"fmt"

	"github.com/rubenayla/invest/internal/contracts"
)

// ValidationError is a fatal configuration error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints. Failure stops the program:
// a misconfigured run would silently produce an invalid dataset.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}
	if cfg.Meta.Version == "" {
		return ValidationError{"meta.version", "required"}
	}

	// === Features ===
	if len(cfg.Features.BaseMetrics) == 0 {
		return ValidationError{"features.base_metrics", "required"}
	}
	seen := make(map[string]bool, len(cfg.Features.BaseMetrics))
	for i, m := range cfg.Features.BaseMetrics {
		if m == "" {
			return ValidationError{fmt.Sprintf("features.base_metrics[%d]", i), "must not be empty"}
		}
		if seen[m] {
			return ValidationError{fmt.Sprintf("features.base_metrics[%d]", i), fmt.Sprintf("duplicate metric %q", m)}
		}
		seen[m] = true
	}
	if len(cfg.Features.LagDepths) == 0 {
		return ValidationError{"features.lag_depths", "required"}
	}
	prev := 0
	for i, lag := range cfg.Features.LagDepths {
		if lag <= prev {
			return ValidationError{fmt.Sprintf("features.lag_depths[%d]", i), "must be strictly increasing and > 0"}
		}
		prev = lag
	}
	for i, w := range cfg.Features.RollingWindows {
		if w < 2 {
			return ValidationError{fmt.Sprintf("features.rolling_windows[%d]", i), "must be >= 2"}
		}
	}
	prev = 0
	for i, d := range cfg.Features.MomentumLookbacksDays {
		if d <= prev {
			return ValidationError{fmt.Sprintf("features.momentum_lookbacks_days[%d]", i), "must be strictly increasing and > 0"}
		}
		prev = d
	}
	if cfg.Features.VolatilityWindowDays < 2 {
		return ValidationError{"features.volatility_window_days", "must be >= 2"}
	}
	if cfg.Features.VolumeShortDays <= 0 || cfg.Features.VolumeLongDays <= cfg.Features.VolumeShortDays {
		return ValidationError{"features.volume_long_days", "must be > volume_short_days > 0"}
	}
	if len(cfg.Features.Sectors) == 0 {
		return ValidationError{"features.sectors", "required"}
	}

	// === Label ===
	if _, err := contracts.ParseHorizon(cfg.Label.Horizon); err != nil {
		return ValidationError{"label.horizon", err.Error()}
	}
	if cfg.Label.Kind != "endpoint" && cfg.Label.Kind != "peak" {
		return ValidationError{"label.kind", "must be endpoint or peak"}
	}

	// === Split ===
	if cfg.Split.NumFolds < 2 {
		return ValidationError{"split.num_folds", "must be >= 2"}
	}
	if cfg.Split.PurgeDays < 0 {
		return ValidationError{"split.purge_days", "must be >= 0"}
	}
	horizon, _ := contracts.ParseHorizon(cfg.Label.Horizon)
	if cfg.Split.PurgeDays < horizon.Days() {
		return ValidationError{"split.purge_days", fmt.Sprintf("must cover the label horizon (%d days)", horizon.Days())}
	}
	if cfg.Split.EmbargoDays < 0 {
		return ValidationError{"split.embargo_days", "must be >= 0"}
	}

	// === Model ===
	if cfg.Model.NumTrees <= 0 {
		return ValidationError{"model.num_trees", "must be > 0"}
	}
	if cfg.Model.MaxDepth <= 0 {
		return ValidationError{"model.max_depth", "must be > 0"}
	}
	if cfg.Model.LearningRate <= 0 || cfg.Model.LearningRate > 1 {
		return ValidationError{"model.learning_rate", "must be in (0, 1]"}
	}
	if cfg.Model.MinSamplesLeaf < 1 {
		return ValidationError{"model.min_samples_leaf", "must be >= 1"}
	}
	if cfg.Model.Subsample <= 0 || cfg.Model.Subsample > 1 {
		return ValidationError{"model.subsample", "must be in (0, 1]"}
	}

	// === Holdout ===
	if cfg.Holdout.Cutoff != "" {
		if _, err := cfg.Holdout.CutoffDate(); err != nil {
			return ValidationError{"holdout.cutoff", "must be YYYY-MM-DD"}
		}
	}

	return nil
}
