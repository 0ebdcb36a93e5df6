package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubenayla/invest/internal/ingest"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch provider data into the store",
	Long: `Pulls daily bars and quarterly fundamentals from the configured
provider and upserts them. Safe to re-run; writes are idempotent.

Example:
  go run ./cmd/invest ingest --tickers AAPL,MSFT,NVDA --from 2015-01-01`,
	RunE: runIngest,
}

var (
	ingestTickers string
	ingestFrom    string
	ingestTo      string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestTickers, "tickers", "", "comma-separated tickers (required)")
	ingestCmd.Flags().StringVar(&ingestFrom, "from", "", "first bar date (YYYY-MM-DD, required)")
	ingestCmd.Flags().StringVar(&ingestTo, "to", "", "last bar date (YYYY-MM-DD, default: today)")

	ingestCmd.MarkFlagRequired("tickers")
	ingestCmd.MarkFlagRequired("from")
}

func runIngest(cmd *cobra.Command, args []string) error {
	from, err := time.Parse("2006-01-02", ingestFrom)
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if ingestTo != "" {
		to, err = time.Parse("2006-01-02", ingestTo)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	tickers := splitTickers(ingestTickers)
	fmt.Println("=== Ingest ===")
	fmt.Printf("Tickers : %d\n", len(tickers))
	fmt.Printf("Period  : %s ~ %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))

	client := ingest.NewClient(a.cfg, a.log)
	service := ingest.NewService(client, a.store.Snapshots, a.store.Prices, a.log)

	start := time.Now()
	if err := service.SyncUniverse(cmd.Context(), tickers, from, to); err != nil {
		return fmt.Errorf("sync universe: %w", err)
	}

	fmt.Printf("Synced %d tickers in %.1fs\n", len(tickers), time.Since(start).Seconds())
	return nil
}
