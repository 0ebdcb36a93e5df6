package eval

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/model"
	"github.com/rubenayla/invest/pkg/logger"
)

func TestAverageRanks_Ties(t *testing.T) {
	ranks := averageRanks([]float64{3, 1, 1, 2})
	assert.Equal(t, []float64{4, 1.5, 1.5, 3}, ranks)
}

func TestRankIC_PerfectAndInverse(t *testing.T) {
	pred := make([]float64, 12)
	actual := make([]float64, 12)
	inverse := make([]float64, 12)
	for i := range pred {
		pred[i] = float64(i)
		actual[i] = float64(i) * 10
		inverse[i] = -float64(i)
	}

	ic, ok := rankIC(pred, actual)
	require.True(t, ok)
	assert.InDelta(t, 1.0, ic, 1e-9)

	ic, ok = rankIC(inverse, actual)
	require.True(t, ok)
	assert.InDelta(t, -1.0, ic, 1e-9)
}

func TestRankIC_SmallOrConstantCrossSection(t *testing.T) {
	_, ok := rankIC([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.False(t, ok, "cross-section below minimum must not be scored")

	constant := make([]float64, 15)
	varying := make([]float64, 15)
	for i := range varying {
		varying[i] = float64(i)
	}
	_, ok = rankIC(constant, varying)
	assert.False(t, ok, "constant predictions carry no ranking information")
}

func TestDecileSpread(t *testing.T) {
	pred := make([]float64, 20)
	actual := make([]float64, 20)
	for i := range pred {
		pred[i] = float64(i)
		actual[i] = float64(i) * 0.01
	}

	spread, ok := decileSpread(pred, actual)
	require.True(t, ok)
	// Top decile holds rows 19,18 (mean 0.185); bottom holds 0,1 (mean 0.005).
	assert.InDelta(t, 0.18, spread, 1e-9)
}

// panelDataset builds months of cross-sections with numTickers rows each
// and a learnable signal y = 2*x0 - x1 plus mild noise.
func panelDataset(t *testing.T, months, numTickers int, seed int64) *model.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)

	n := months * numTickers
	ds := &model.Dataset{
		ConfigVersion: "full-v1",
		FeatureNames:  []string{"f0", "f1", "f2", "f3"},
		X:             make([][]float64, 0, n),
		Y:             make([]float64, 0, n),
		Tickers:       make([]string, 0, n),
		Dates:         make([]time.Time, 0, n),
	}
	for m := 0; m < months; m++ {
		date := start.AddDate(0, m, 0)
		for i := 0; i < numTickers; i++ {
			row := make([]float64, 4)
			for f := range row {
				row[f] = rng.NormFloat64()
			}
			ds.X = append(ds.X, row)
			ds.Y = append(ds.Y, 2*row[0]-row[1]+0.1*rng.NormFloat64())
			ds.Tickers = append(ds.Tickers, fmt.Sprintf("T%02d", i))
			ds.Dates = append(ds.Dates, date)
		}
	}
	return ds
}

func farFuture() time.Time {
	return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestEvaluateFolds_PerfectPredictions(t *testing.T) {
	ds := panelDataset(t, 4, 15, 1)
	half := ds.Len() / 2

	cv := &model.CVResult{
		OOFPred:  append([]float64(nil), ds.Y...),
		OOFValid: make([]bool, ds.Len()),
	}
	for i := range cv.OOFValid {
		cv.OOFValid[i] = true
	}

	folds := []contracts.Fold{
		{Index: 0, ValIdx: indexRange(0, half), ValStart: ds.Dates[0], ValEnd: ds.Dates[half-1]},
		{Index: 1, ValIdx: indexRange(half, ds.Len()), ValStart: ds.Dates[half], ValEnd: ds.Dates[ds.Len()-1]},
	}

	e := NewEvaluator(farFuture(), logger.Nop())
	reports, err := e.EvaluateFolds(ds, cv, folds, 90)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	for _, r := range reports {
		assert.InDelta(t, 1.0, r.MeanIC, 1e-9, "fold %d", r.Fold)
		assert.Equal(t, 2, r.Dates, "fold %d", r.Fold)
		assert.Zero(t, r.Skipped)
		assert.Positive(t, r.MeanSpread)
	}
}

func TestEvaluateFolds_ImmatureRowsExcluded(t *testing.T) {
	ds := panelDataset(t, 2, 15, 2)
	cv := &model.CVResult{
		OOFPred:  append([]float64(nil), ds.Y...),
		OOFValid: make([]bool, ds.Len()),
	}
	for i := range cv.OOFValid {
		cv.OOFValid[i] = true
	}
	folds := []contracts.Fold{
		{Index: 0, ValIdx: indexRange(0, ds.Len()), ValStart: ds.Dates[0], ValEnd: ds.Dates[ds.Len()-1]},
	}

	// "Now" sits 30 days past the first date: a 90-day label window has
	// not elapsed for any row, so every row is excluded.
	now := ds.Dates[0].AddDate(0, 0, 30)
	e := NewEvaluator(now, logger.Nop())
	reports, err := e.EvaluateFolds(ds, cv, folds, 90)
	require.NoError(t, err)

	assert.Equal(t, ds.Len(), reports[0].Immature)
	assert.Zero(t, reports[0].Dates)
}

func TestHoldout_TrainBeforeCutoffEvalAfter(t *testing.T) {
	ds := panelDataset(t, 14, 25, 3)
	cutoff := ds.Dates[0].AddDate(0, 9, 0)

	params := model.FitParams{
		NumTrees:       40,
		MaxDepth:       3,
		LearningRate:   0.1,
		MinSamplesLeaf: 5,
		Subsample:      0.8,
		Seed:           42,
	}
	trainer := model.NewTrainer(params, logger.Nop())

	e := NewEvaluator(farFuture(), logger.Nop())
	r, err := e.Holdout(context.Background(), ds, trainer, cutoff, 90)
	require.NoError(t, err)

	// Rows whose 90-day window crosses the cutoff belong to neither side.
	assert.Less(t, r.TrainRows+r.TestRows, ds.Len())
	assert.Positive(t, r.TrainRows)
	assert.Positive(t, r.TestRows)
	assert.Greater(t, r.MeanIC, 0.5, "model should rank a strong synthetic signal")
	t.Logf("holdout: train=%d test=%d ic=%.3f spread=%.4f", r.TrainRows, r.TestRows, r.MeanIC, r.MeanSpread)
}

func TestHoldout_DegenerateCutoff(t *testing.T) {
	ds := panelDataset(t, 4, 12, 4)
	trainer := model.NewTrainer(model.FitParams{NumTrees: 5, MaxDepth: 2, LearningRate: 0.1, MinSamplesLeaf: 2, Seed: 1}, logger.Nop())
	e := NewEvaluator(farFuture(), logger.Nop())

	_, err := e.Holdout(context.Background(), ds, trainer, ds.Dates[0].AddDate(-1, 0, 0), 90)
	require.Error(t, err, "cutoff before all data leaves no training rows")
}

func TestBuildReport_GapRatio(t *testing.T) {
	folds := []FoldReport{
		{Fold: 0, MeanIC: 0.6, Dates: 10},
		{Fold: 1, MeanIC: 0.6, Dates: 10},
	}
	holdout := &HoldoutReport{MeanIC: 0.2}

	rep := BuildReport(folds, holdout)
	assert.InDelta(t, 0.6, rep.CVMeanIC, 1e-9)
	assert.InDelta(t, 3.0, rep.GapRatio, 1e-9)
}

func indexRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}
