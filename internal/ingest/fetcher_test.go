package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/external/yahoo"
	"github.com/marketlens/screener/internal/resolver"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/logger"
	"github.com/marketlens/screener/pkg/redis"
)

type fakeMappingStore struct {
	mu       sync.Mutex
	mappings map[string]contracts.SymbolMapping
	upserts  []contracts.SymbolMapping
}

func newFakeMappingStore() *fakeMappingStore {
	return &fakeMappingStore{mappings: make(map[string]contracts.SymbolMapping)}
}

func (f *fakeMappingStore) Get(_ context.Context, tickerRaw string) (*contracts.SymbolMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mappings[tickerRaw]
	if !ok {
		return nil, store.ErrMappingNotFound
	}
	return &m, nil
}

func (f *fakeMappingStore) Upsert(_ context.Context, m contracts.SymbolMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mappings[m.TickerRaw] = m
	f.upserts = append(f.upserts, m)
	return nil
}

func (f *fakeMappingStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

// chartServer serves the v8 chart endpoint: known symbols get a two-bar
// series, everything else a 404. The counter tracks upstream request volume.
func chartServer(known map[string]bool, requests *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		if !known[symbol] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{
			"meta":{"symbol":%q,"currency":"USD","gmtoffset":-18000},
			"timestamp":[1704290400,1704376800],
			"indicators":{"quote":[{"close":[101.5,102.25],"volume":[1000,1200]}]}
		}],"error":null}}`, symbol)
	}))
}

func newTestFetcher(t *testing.T, chartURL string, mappings *fakeMappingStore) *Fetcher {
	t.Helper()
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Yahoo:     config.YahooConfig{ChartBaseURL: chartURL},
		Fetch: config.FetchConfig{
			WindowDays:    5,
			Workers:       1,
			RatePerSecond: 1000,
			SymbolTimeout: 5 * time.Second,
		},
	}
	log := logger.New(cfg)

	cacheClient, err := redis.New(cfg)
	require.NoError(t, err)
	cache := redis.NewCache(cacheClient, "test")

	res := resolver.New(mappings, cache, log)
	return NewFetcher(cfg, yahoo.NewClient(cfg, log), res, log)
}

func TestFetchFallbackHealsMapping(t *testing.T) {
	var requests atomic.Int64
	srv := chartServer(map[string]bool{"BRK-B": true}, &requests)
	defer srv.Close()

	mappings := newFakeMappingStore()
	f := newTestFetcher(t, srv.URL, mappings)

	result := f.Fetch(context.Background(), "BRK.B")

	require.NoError(t, result.Err)
	assert.True(t, result.Healed)
	assert.Equal(t, "BRK-B", result.Symbol)
	require.Len(t, result.Bars, 2)
	assert.Equal(t, "BRK.B", result.Bars[0].Ticker)
	assert.Equal(t, 101.5, result.Bars[0].Close)

	require.Equal(t, 1, mappings.upsertCount())
	assert.Equal(t, "BRK.B", mappings.upserts[0].TickerRaw)
	assert.Equal(t, "BRK-B", mappings.upserts[0].TickerExternal)

	// The healed mapping resolves directly next time; no further writes.
	again := f.Fetch(context.Background(), "BRK.B")
	require.NoError(t, again.Err)
	assert.False(t, again.Healed)
	assert.Equal(t, "BRK-B", again.Symbol)
	assert.Equal(t, 1, mappings.upsertCount())
}

func TestFetchBothSpellingsFail(t *testing.T) {
	var requests atomic.Int64
	srv := chartServer(nil, &requests)
	defer srv.Close()

	mappings := newFakeMappingStore()
	f := newTestFetcher(t, srv.URL, mappings)

	result := f.Fetch(context.Background(), "BF.B")

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, yahoo.ErrSymbolNotFound)
	assert.False(t, result.Healed)
	assert.Empty(t, result.Bars)
	assert.Zero(t, mappings.upsertCount())
	assert.EqualValues(t, 2, requests.Load())
}

func TestFetchNoAlternateCandidate(t *testing.T) {
	var requests atomic.Int64
	srv := chartServer(nil, &requests)
	defer srv.Close()

	mappings := newFakeMappingStore()
	f := newTestFetcher(t, srv.URL, mappings)

	result := f.Fetch(context.Background(), "MSFT")

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, yahoo.ErrSymbolNotFound)
	assert.Zero(t, mappings.upsertCount())
	assert.EqualValues(t, 1, requests.Load())
}

func TestFetchPrimarySuccess(t *testing.T) {
	var requests atomic.Int64
	srv := chartServer(map[string]bool{"AAPL": true}, &requests)
	defer srv.Close()

	mappings := newFakeMappingStore()
	f := newTestFetcher(t, srv.URL, mappings)

	result := f.Fetch(context.Background(), "AAPL")

	require.NoError(t, result.Err)
	assert.False(t, result.Healed)
	assert.Equal(t, "AAPL", result.Symbol)
	require.Len(t, result.Bars, 2)
	assert.Equal(t, "AAPL", result.Bars[0].Ticker)
	assert.Zero(t, mappings.upsertCount())
}

func TestIsSymbolFailure(t *testing.T) {
	assert.True(t, isSymbolFailure(yahoo.ErrSymbolNotFound))
	assert.True(t, isSymbolFailure(fmt.Errorf("BRK.B: %w", yahoo.ErrEmptySeries)))
	assert.False(t, isSymbolFailure(errors.New("connection refused")))
	assert.False(t, isSymbolFailure(context.DeadlineExceeded))
}
