package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubenayla/invest/internal/contracts"
	"github.com/rubenayla/invest/pkg/httputil"
	"github.com/rubenayla/invest/pkg/logger"
)

const pricesBody = `{
	"ticker": "AAPL",
	"bars": [
		{"date": "2024-01-02", "open": 100, "high": 102, "low": 99, "close": 101, "volume": 5000, "split_factor": 1, "dividend_factor": 1},
		{"date": "2024-01-03", "open": 101, "high": 103, "low": 100, "close": 102.5, "volume": 6000, "split_factor": 1, "dividend_factor": 1}
	]
}`

const fundamentalsBody = `{
	"ticker": "AAPL",
	"sector": "technology",
	"reporting_lag_days": 45,
	"reports": [
		{"date": "2023-09-30", "metrics": {"pe": 28.5, "roe": 0.45, "revenue": 89500}},
		{"date": "2023-12-31", "metrics": {"pe": 30.1, "roe": 0.47, "revenue": 119600}}
	]
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		http:    httputil.New(100, 5*time.Second, logger.Nop()).DisableRetry(),
		baseURL: srv.URL,
		apiKey:  "test-key",
		log:     logger.Nop(),
	}
}

func TestFetchPrices(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v1/prices/AAPL"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(pricesBody))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	bars, err := c.FetchPrices(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, int64(6000), bars[1].Volume)
}

func TestFetchPrices_BadDate(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker": "AAPL", "bars": [{"date": "01/02/2024"}]}`))
	})

	_, err := c.FetchPrices(context.Background(), "AAPL", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad bar date")
}

func TestFetchFundamentals(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v1/fundamentals/AAPL"))
		w.Write([]byte(fundamentalsBody))
	})

	snaps, err := c.FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assert.Equal(t, "technology", snaps[0].Sector)
	assert.Equal(t, 45, snaps[0].ReportingLagDays)
	pe, ok := snaps[1].Metric("pe")
	require.True(t, ok)
	assert.Equal(t, 30.1, pe)
}

func TestFetchFundamentals_ServerError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchFundamentals(context.Background(), "AAPL")
	require.Error(t, err)
}

type captureWriter struct {
	mu    sync.Mutex
	snaps []contracts.Snapshot
	bars  []contracts.PriceBar
}

func (c *captureWriter) SaveBatch(_ context.Context, snaps []contracts.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, snaps...)
	return nil
}

type captureBarWriter struct{ parent *captureWriter }

func (c captureBarWriter) SaveBatch(_ context.Context, bars []contracts.PriceBar) error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.bars = append(c.parent.bars, bars...)
	return nil
}

func TestSyncUniverse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/prices/") {
			w.Write([]byte(pricesBody))
			return
		}
		w.Write([]byte(fundamentalsBody))
	})

	capture := &captureWriter{}
	svc := NewService(c, capture, captureBarWriter{capture}, logger.Nop())

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	err := svc.SyncUniverse(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, from, to)
	require.NoError(t, err)

	assert.Len(t, capture.bars, 6, "two bars per ticker")
	assert.Len(t, capture.snaps, 6, "two snapshots per ticker")
}

func TestSyncUniverse_EmptyTickers(t *testing.T) {
	svc := NewService(nil, nil, nil, logger.Nop())
	err := svc.SyncUniverse(context.Background(), nil, time.Now(), time.Now())
	require.Error(t, err)
}
