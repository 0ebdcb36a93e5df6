package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rubenayla/invest/internal/ingest"
	"github.com/rubenayla/invest/internal/scheduler"
	"github.com/rubenayla/invest/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly sync and scoring scheduler",
	Long: `Starts the long-running scheduler: nightly provider sync at 02:00 and
universe scoring at 06:30. Stops cleanly on SIGINT/SIGTERM.

Example:
  go run ./cmd/invest scheduler --tickers AAPL,MSFT,NVDA --model model.json`,
	RunE: runScheduler,
}

var (
	schedTickers  string
	schedModel    string
	schedLookback int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedTickers, "tickers", "", "comma-separated universe to sync (required)")
	schedulerCmd.Flags().StringVar(&schedModel, "model", "model.json", "trained model path for scoring")
	schedulerCmd.Flags().IntVar(&schedLookback, "lookback", 7, "days of prices to re-fetch each night")

	schedulerCmd.MarkFlagRequired("tickers")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	tickers := splitTickers(schedTickers)

	client := ingest.NewClient(a.cfg, a.log)
	service := ingest.NewService(client, a.store.Snapshots, a.store.Prices, a.log)
	builder := a.newDatasetBuilder()

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewDataSync(service, tickers, schedLookback, a.log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewScoring(builder, schedModel, a.featureCfg.Meta.Version, 10, a.log)); err != nil {
		return err
	}

	fmt.Println("=== Scheduler ===")
	fmt.Printf("Jobs: %v\n", sched.Jobs())
	sched.Start()

	// Block until shutdown signal.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down...")
	sched.Stop()
	return nil
}
