package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rubenayla/invest/internal/contracts"
)

// PriceRepository reads and writes daily price bars.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetHistory retrieves a ticker's daily bars dated at or before
// upperBound, oldest first.
func (r *PriceRepository) GetHistory(ctx context.Context, ticker string, upperBound time.Time) ([]contracts.PriceBar, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price,
		       volume, split_factor, dividend_factor
		FROM invest.price_bars
		WHERE ticker = $1 AND trade_date <= $2
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, upperBound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(
			&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close,
			&b.Volume, &b.SplitFactor, &b.DividendFactor,
		); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Save upserts a single bar.
func (r *PriceRepository) Save(ctx context.Context, b *contracts.PriceBar) error {
	query := `
		INSERT INTO invest.price_bars (ticker, trade_date, open_price, high_price, low_price,
		                               close_price, volume, split_factor, dividend_factor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			split_factor = EXCLUDED.split_factor,
			dividend_factor = EXCLUDED.dividend_factor
	`

	_, err := r.pool.Exec(ctx, query,
		b.Ticker, b.Date, b.Open, b.High, b.Low, b.Close,
		b.Volume, b.SplitFactor, b.DividendFactor,
	)
	return err
}

// SaveBatch upserts multiple bars.
func (r *PriceRepository) SaveBatch(ctx context.Context, bars []contracts.PriceBar) error {
	for i := range bars {
		if err := r.Save(ctx, &bars[i]); err != nil {
			return err
		}
	}
	return nil
}
