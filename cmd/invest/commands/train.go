package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/internal/dataset"
	"github.com/rubenayla/invest/internal/eval"
	"github.com/rubenayla/invest/internal/model"
	"github.com/rubenayla/invest/internal/split"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the ranking model",
	Long: `Builds the dataset, runs purged/embargoed cross-validation, reports
fold and holdout metrics, then fits the final model on all rows and
persists it with its feature-config version.

Example:
  go run ./cmd/invest train --from 2018-01-01 --to 2023-06-01 --out model.json`,
	RunE: runTrain,
}

var (
	trainFrom     string
	trainTo       string
	trainInterval int
	trainTickers  string
	trainOut      string
)

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainFrom, "from", "", "first as-of date (YYYY-MM-DD, required)")
	trainCmd.Flags().StringVar(&trainTo, "to", "", "last as-of date (YYYY-MM-DD, default: today)")
	trainCmd.Flags().IntVar(&trainInterval, "interval", 30, "days between as-of dates")
	trainCmd.Flags().StringVar(&trainTickers, "tickers", "", "comma-separated universe (default: all stored)")
	trainCmd.Flags().StringVar(&trainOut, "out", "model.json", "output path for the trained model")

	trainCmd.MarkFlagRequired("from")
}

func runTrain(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("=== Train ===")
	ds, folds, rep, trainer, err := runPipeline(cmd.Context(), a, trainFrom, trainTo, trainInterval, trainTickers)
	if err != nil {
		return err
	}
	printReport(rep)

	// Final model: every row, no early stopping.
	fmt.Println("\nFitting final model on all rows...")
	final, err := trainer.TrainFull(cmd.Context(), ds)
	if err != nil {
		return fmt.Errorf("train final model: %w", err)
	}
	if err := model.Save(trainOut, final); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	fmt.Printf("Model saved to %s (%d trees, config %s, %d folds validated)\n",
		trainOut, len(final.Trees), final.ConfigVersion, len(folds))
	return nil
}

// runPipeline builds the dataset, splits it, cross-validates, and
// evaluates. Shared by train and evaluate.
func runPipeline(ctx context.Context, a *app, from, to string, interval int, tickers string) (*model.Dataset, []contracts.Fold, *eval.Report, *model.Trainer, error) {
	fromDate, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid --from date: %w", err)
	}
	toDate := time.Now().UTC().Truncate(24 * time.Hour)
	if to != "" {
		toDate, err = time.Parse("2006-01-02", to)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("invalid --to date: %w", err)
		}
	}

	builder := a.newDatasetBuilder()
	res, err := builder.Build(ctx, dataset.Request{
		Tickers:      splitTickers(tickers),
		Start:        fromDate,
		End:          toDate,
		IntervalDays: interval,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build dataset: %w", err)
	}
	printDiagnostics(res.Diagnostics)
	fmt.Println()

	ds := builder.TrainingDataset(res)
	folds, err := split.Split(dataset.SplitRows(res), split.Params{
		NumFolds:    a.featureCfg.Split.NumFolds,
		PurgeDays:   a.featureCfg.Split.PurgeDays,
		EmbargoDays: a.featureCfg.Split.EmbargoDays,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("split: %w", err)
	}

	trainer := model.NewTrainer(model.ParamsFromConfig(a.featureCfg), a.log)
	cv, err := trainer.CrossValidate(ctx, ds, folds)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("cross-validate: %w", err)
	}

	horizonDays := a.featureCfg.Label.ParsedHorizon().Days()
	evaluator := eval.NewEvaluator(time.Now().UTC(), a.log)
	foldReports, err := evaluator.EvaluateFolds(ds, cv, folds, horizonDays)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("evaluate folds: %w", err)
	}

	var holdout *eval.HoldoutReport
	if a.featureCfg.Holdout.Cutoff != "" {
		cutoff, err := a.featureCfg.Holdout.CutoffDate()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		holdout, err = evaluator.Holdout(ctx, ds, trainer, cutoff, horizonDays)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("holdout: %w", err)
		}
	}

	return ds, folds, eval.BuildReport(foldReports, holdout), trainer, nil
}
