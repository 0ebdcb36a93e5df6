package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate ranking quality without persisting a model",
	Long: `Runs the same purged cross-validation and temporal holdout as train
and prints the report, but fits nothing beyond what evaluation needs.

Example:
  go run ./cmd/invest evaluate --from 2018-01-01 --to 2023-06-01`,
	RunE: runEvaluate,
}

var (
	evalFrom     string
	evalTo       string
	evalInterval int
	evalTickers  string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalFrom, "from", "", "first as-of date (YYYY-MM-DD, required)")
	evaluateCmd.Flags().StringVar(&evalTo, "to", "", "last as-of date (YYYY-MM-DD, default: today)")
	evaluateCmd.Flags().IntVar(&evalInterval, "interval", 30, "days between as-of dates")
	evaluateCmd.Flags().StringVar(&evalTickers, "tickers", "", "comma-separated universe (default: all stored)")

	evaluateCmd.MarkFlagRequired("from")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("=== Evaluate ===")
	_, _, rep, _, err := runPipeline(cmd.Context(), a, evalFrom, evalTo, evalInterval, evalTickers)
	if err != nil {
		return err
	}
	printReport(rep)
	return nil
}
