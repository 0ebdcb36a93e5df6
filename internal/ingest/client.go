package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/pkg/config"
	"github.com/rubenayla/invest/pkg/httputil"
)

// Client talks to the market-data provider's JSON API.
type Client struct {
	http    *httputil.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewClient creates a provider client from the process configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		http:    httputil.New(cfg.Provider.RequestsPerSec, cfg.Provider.Timeout, log),
		baseURL: cfg.Provider.BaseURL,
		apiKey:  cfg.Provider.APIKey,
		log:     log.With().Str("component", "ingest").Logger(),
	}
}

// priceResponse is the provider's daily-bars payload.
type priceResponse struct {
	Ticker string `json:"ticker"`
	Bars   []struct {
		Date           string  `json:"date"`
		Open           float64 `json:"open"`
		High           float64 `json:"high"`
		Low            float64 `json:"low"`
		Close          float64 `json:"close"`
		Volume         int64   `json:"volume"`
		SplitFactor    float64 `json:"split_factor"`
		DividendFactor float64 `json:"dividend_factor"`
	} `json:"bars"`
}

// fundamentalsResponse is the provider's quarterly-report payload.
type fundamentalsResponse struct {
	Ticker           string `json:"ticker"`
	Sector           string `json:"sector"`
	ReportingLagDays int    `json:"reporting_lag_days"`
	Reports          []struct {
		Date    string               `json:"date"`
		Metrics contracts.MetricsMap `json:"metrics"`
	} `json:"reports"`
}

// FetchPrices retrieves a ticker's daily bars for [from, to].
func (c *Client) FetchPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	u := fmt.Sprintf("%s/v1/prices/%s?from=%s&to=%s&apikey=%s",
		c.baseURL, url.PathEscape(ticker),
		from.Format("2006-01-02"), to.Format("2006-01-02"),
		url.QueryEscape(c.apiKey))

	body, err := c.http.GetJSON(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", ticker, err)
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode prices for %s: %w", ticker, err)
	}

	bars := make([]contracts.PriceBar, 0, len(resp.Bars))
	for _, raw := range resp.Bars {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			return nil, fmt.Errorf("bad bar date %q for %s: %w", raw.Date, ticker, err)
		}
		bars = append(bars, contracts.PriceBar{
			Ticker:         ticker,
			Date:           date,
			Open:           raw.Open,
			High:           raw.High,
			Low:            raw.Low,
			Close:          raw.Close,
			Volume:         raw.Volume,
			SplitFactor:    raw.SplitFactor,
			DividendFactor: raw.DividendFactor,
		})
	}
	return bars, nil
}

// FetchFundamentals retrieves a ticker's full quarterly report history.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) ([]contracts.Snapshot, error) {
	u := fmt.Sprintf("%s/v1/fundamentals/%s?apikey=%s",
		c.baseURL, url.PathEscape(ticker), url.QueryEscape(c.apiKey))

	body, err := c.http.GetJSON(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch fundamentals for %s: %w", ticker, err)
	}

	var resp fundamentalsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode fundamentals for %s: %w", ticker, err)
	}

	snaps := make([]contracts.Snapshot, 0, len(resp.Reports))
	for _, raw := range resp.Reports {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			return nil, fmt.Errorf("bad report date %q for %s: %w", raw.Date, ticker, err)
		}
		snaps = append(snaps, contracts.Snapshot{
			Ticker:           ticker,
			AsOfDate:         date,
			ReportingLagDays: resp.ReportingLagDays,
			Sector:           resp.Sector,
			Metrics:          raw.Metrics,
		})
	}
	return snaps, nil
}
