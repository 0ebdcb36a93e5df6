package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubenayla/invest/internal/model"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the current universe with a trained model",
	Long: `Engineers feature rows for one as-of date, normalizes them against
the current cross-section, and prints the model's predicted-return
ranking. The model's feature-config version must match the active config.

Example:
  go run ./cmd/invest score --model model.json
  go run ./cmd/invest score --model model.json --date 2024-03-01 --top 20`,
	RunE: runScore,
}

var (
	scoreModel   string
	scoreDate    string
	scoreTickers string
	scoreTop     int
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreModel, "model", "model.json", "trained model path")
	scoreCmd.Flags().StringVar(&scoreDate, "date", "", "as-of date (YYYY-MM-DD, default: today)")
	scoreCmd.Flags().StringVar(&scoreTickers, "tickers", "", "comma-separated universe (default: all stored)")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 20, "number of names to print")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	// The version check here is what guarantees training-time and
	// scoring-time feature engineering are identical.
	m, err := model.Load(scoreModel, a.featureCfg.Meta.Version)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if scoreDate != "" {
		asOf, err = time.Parse("2006-01-02", scoreDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	fmt.Println("=== Score ===")
	fmt.Printf("Model  : %s (config %s, %d trees)\n", scoreModel, m.ConfigVersion, len(m.Trees))
	fmt.Printf("As of  : %s\n\n", asOf.Format("2006-01-02"))

	rows, diag, err := a.newDatasetBuilder().BuildScoring(cmd.Context(), asOf, splitTickers(scoreTickers))
	if err != nil {
		return fmt.Errorf("build scoring rows: %w", err)
	}

	ranking, err := m.Rank(rows)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	printRanking(ranking, scoreTop)
	fmt.Println()
	printDiagnostics(diag)
	return nil
}
