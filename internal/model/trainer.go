package model

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/contracts"
)

// Trainer runs fold-wise training over a purged split and produces
// out-of-fold predictions for evaluation.
type Trainer struct {
	params FitParams
	log    zerolog.Logger
}

// NewTrainer builds a trainer with the given boosting parameters.
func NewTrainer(params FitParams, log zerolog.Logger) *Trainer {
	return &Trainer{
		params: params,
		log:    log.With().Str("component", "trainer").Logger(),
	}
}

// CVResult holds the per-fold models and the out-of-fold predictions.
// OOFPred is aligned with the dataset rows; OOFValid marks rows that fell
// inside some fold's validation window (boundary rows may fall in none
// after purging).
type CVResult struct {
	Models   []*Model
	OOFPred  []float64
	OOFValid []bool
}

// CrossValidate trains one model per fold on that fold's training rows,
// using the fold's own validation rows for early stopping, and records
// each model's predictions on its validation rows. Cancellation is
// honored between folds.
func (t *Trainer) CrossValidate(ctx context.Context, ds *Dataset, folds []contracts.Fold) (*CVResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if len(folds) == 0 {
		return nil, fmt.Errorf("no folds to train on")
	}

	res := &CVResult{
		Models:   make([]*Model, 0, len(folds)),
		OOFPred:  make([]float64, ds.Len()),
		OOFValid: make([]bool, ds.Len()),
	}

	for _, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cross-validation canceled at fold %d: %w", fold.Index, err)
		}

		train := ds.Subset(fold.TrainIdx)
		val := ds.Subset(fold.ValIdx)

		m, err := Fit(train.X, train.Y, val.X, val.Y, t.params, t.log)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold.Index, err)
		}
		m.ConfigVersion = ds.ConfigVersion
		m.FeatureNames = ds.FeatureNames
		res.Models = append(res.Models, m)

		preds := m.PredictBatch(val.X)
		for j, i := range fold.ValIdx {
			res.OOFPred[i] = preds[j]
			res.OOFValid[i] = true
		}

		t.log.Info().
			Int("fold", fold.Index).
			Int("train_rows", len(fold.TrainIdx)).
			Int("val_rows", len(fold.ValIdx)).
			Int("trees", len(m.Trees)).
			Int("purged", fold.Purged).
			Int("embargoed", fold.Embargoed).
			Msg("fold trained")
	}

	return res, nil
}

// TrainFull fits a single model on every row; used to produce the model
// that scores live snapshots after cross-validation has vetted the
// configuration. No validation set means no early stopping: the tree
// count found during cross-validation should be baked into the params.
func (t *Trainer) TrainFull(ctx context.Context, ds *Dataset) (*Model, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := Fit(ds.X, ds.Y, nil, nil, t.params, t.log)
	if err != nil {
		return nil, err
	}
	m.ConfigVersion = ds.ConfigVersion
	m.FeatureNames = ds.FeatureNames

	t.log.Info().
		Int("rows", ds.Len()).
		Int("trees", len(m.Trees)).
		Str("config_version", ds.ConfigVersion).
		Msg("full model trained")
	return m, nil
}
