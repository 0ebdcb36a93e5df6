package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/featureconfig"
)

// Model is a gradient-boosted ensemble of regression trees fit to squared
// error. Predictions are relative ranking scores, not calibrated returns.
type Model struct {
	ConfigVersion string   `json:"config_version"`
	FeatureNames  []string `json:"feature_names"`
	BaseScore     float64  `json:"base_score"`
	LearningRate  float64  `json:"learning_rate"`
	Trees         []*Tree  `json:"trees"`
}

// FitParams are the boosting hyperparameters. Seed drives every random
// choice the fit makes; two fits with the same data and seed produce
// identical models.
type FitParams struct {
	NumTrees            int
	MaxDepth            int
	LearningRate        float64
	MinSamplesLeaf      int
	Subsample           float64
	EarlyStoppingRounds int
	Seed                int64
}

// ParamsFromConfig maps the model section of a feature config onto fit
// parameters.
func ParamsFromConfig(cfg *featureconfig.Config) FitParams {
	return FitParams{
		NumTrees:            cfg.Model.NumTrees,
		MaxDepth:            cfg.Model.MaxDepth,
		LearningRate:        cfg.Model.LearningRate,
		MinSamplesLeaf:      cfg.Model.MinSamplesLeaf,
		Subsample:           cfg.Model.Subsample,
		EarlyStoppingRounds: cfg.Model.EarlyStoppingRounds,
		Seed:                cfg.Model.Seed,
	}
}

// Fit trains on (x, y). When valX is non-empty, validation RMSE is
// tracked every round and boosting stops after EarlyStoppingRounds rounds
// without improvement, keeping only the trees up to the best round.
func Fit(x [][]float64, y []float64, valX [][]float64, valY []float64, p FitParams, log zerolog.Logger) (*Model, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("training set size mismatch: %d rows, %d labels", len(x), len(y))
	}
	if p.NumTrees <= 0 || p.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid boosting parameters: trees=%d lr=%f", p.NumTrees, p.LearningRate)
	}

	rng := rand.New(rand.NewSource(p.Seed))

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	m := &Model{
		BaseScore:    base,
		LearningRate: p.LearningRate,
		Trees:        make([]*Tree, 0, p.NumTrees),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = base
	}
	valPred := make([]float64, len(valY))
	for i := range valPred {
		valPred[i] = base
	}

	residuals := make([]float64, len(y))
	sampleSize := len(y)
	if p.Subsample > 0 && p.Subsample < 1 {
		sampleSize = int(math.Max(1, p.Subsample*float64(len(y))))
	}

	tp := treeParams{maxDepth: p.MaxDepth, minSamplesLeaf: p.MinSamplesLeaf}
	bestRMSE := math.Inf(1)
	bestRound := -1

	for round := 0; round < p.NumTrees; round++ {
		for i := range y {
			residuals[i] = y[i] - pred[i]
		}

		idx := sampleRows(rng, len(y), sampleSize)
		tree := fitTree(x, residuals, idx, tp)
		m.Trees = append(m.Trees, tree)

		for i := range pred {
			pred[i] += p.LearningRate * tree.Predict(x[i])
		}

		if len(valY) == 0 {
			continue
		}
		for i := range valPred {
			valPred[i] += p.LearningRate * tree.Predict(valX[i])
		}
		r := rmse(valPred, valY)
		if r < bestRMSE {
			bestRMSE = r
			bestRound = round
		} else if p.EarlyStoppingRounds > 0 && round-bestRound >= p.EarlyStoppingRounds {
			m.Trees = m.Trees[:bestRound+1]
			log.Debug().
				Int("stopped_at", round).
				Int("best_round", bestRound).
				Float64("val_rmse", bestRMSE).
				Msg("early stopping")
			break
		}
	}

	return m, nil
}

// Predict scores one feature vector.
func (m *Model) Predict(row []float64) float64 {
	score := m.BaseScore
	for _, t := range m.Trees {
		score += m.LearningRate * t.Predict(row)
	}
	return score
}

// PredictBatch scores every row.
func (m *Model) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}
	return out
}

// sampleRows draws size row indices without replacement.
func sampleRows(rng *rand.Rand, n, size int) []int {
	if size >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := rng.Perm(n)
	return perm[:size]
}

func rmse(pred, actual []float64) float64 {
	var sum float64
	for i := range pred {
		d := pred[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred)))
}
