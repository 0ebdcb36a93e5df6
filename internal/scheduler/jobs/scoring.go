package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/dataset"
	"github.com/rubenayla/invest/internal/model"
)

// Scoring re-ranks the universe every morning with the persisted model.
type Scoring struct {
	builder   *dataset.Builder
	modelPath string
	version   string
	topN      int
	log       zerolog.Logger
}

// NewScoring creates the daily scoring job. version pins the feature
// config the persisted model must have been trained under.
func NewScoring(builder *dataset.Builder, modelPath, version string, topN int, log zerolog.Logger) *Scoring {
	if topN <= 0 {
		topN = 10
	}
	return &Scoring{
		builder:   builder,
		modelPath: modelPath,
		version:   version,
		topN:      topN,
		log:       log.With().Str("job", "scoring").Logger(),
	}
}

func (j *Scoring) Name() string { return "scoring" }

// Schedule runs at 06:30, after the nightly sync has landed.
func (j *Scoring) Schedule() string { return "0 30 6 * * *" }

func (j *Scoring) Run(ctx context.Context) error {
	m, err := model.Load(j.modelPath, j.version)
	if err != nil {
		return err
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	rows, diag, err := j.builder.BuildScoring(ctx, asOf, nil)
	if err != nil {
		return err
	}

	ranking, err := m.Rank(rows)
	if err != nil {
		return err
	}

	top := ranking
	if len(top) > j.topN {
		top = top[:j.topN]
	}
	for _, s := range top {
		j.log.Info().
			Int("rank", s.Rank).
			Str("ticker", s.Ticker).
			Float64("score", s.Score).
			Msg("ranked")
	}
	j.log.Info().
		Str("diagnostics", diag.String()).
		Int("ranked", len(ranking)).
		Msg("scoring complete")
	return nil
}
