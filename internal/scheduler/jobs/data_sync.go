package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/ingest"
)

// DataSync pulls the latest provider data for the configured universe.
type DataSync struct {
	service      *ingest.Service
	universe     []string
	lookbackDays int
	log          zerolog.Logger
}

// NewDataSync creates the nightly sync job. lookbackDays bounds how far
// back prices are re-fetched; upserts make overlap harmless.
func NewDataSync(service *ingest.Service, universe []string, lookbackDays int, log zerolog.Logger) *DataSync {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &DataSync{
		service:      service,
		universe:     universe,
		lookbackDays: lookbackDays,
		log:          log.With().Str("job", "data_sync").Logger(),
	}
}

func (j *DataSync) Name() string { return "data_sync" }

// Schedule runs nightly at 02:00, after US market close and provider
// end-of-day settlement.
func (j *DataSync) Schedule() string { return "0 0 2 * * *" }

func (j *DataSync) Run(ctx context.Context) error {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -j.lookbackDays)

	j.log.Info().
		Int("tickers", len(j.universe)).
		Time("from", from).
		Time("to", to).
		Msg("syncing universe")
	return j.service.SyncUniverse(ctx, j.universe, from, to)
}
