package ingest

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/external/yahoo"
	"github.com/marketlens/screener/internal/resolver"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/logger"
)

// FetchResult is the outcome of fetching one ticker's price window.
type FetchResult struct {
	TickerRaw string
	Symbol    string
	Healed    bool
	Bars      []contracts.PriceBar
	Err       error
}

// Fetcher pulls daily bars from the provider with rate limiting, a
// per-symbol timeout, and the single-step symbol fallback.
type Fetcher struct {
	yahoo         *yahoo.Client
	resolver      *resolver.Resolver
	limiter       *rate.Limiter
	windowDays    int
	symbolTimeout time.Duration
	logger        *logger.Logger
}

func NewFetcher(cfg *config.Config, yc *yahoo.Client, res *resolver.Resolver, log *logger.Logger) *Fetcher {
	return &Fetcher{
		yahoo:         yc,
		resolver:      res,
		limiter:       rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), 1),
		windowDays:    cfg.Fetch.WindowDays,
		symbolTimeout: cfg.Fetch.SymbolTimeout,
		logger:        log.WithField("component", "fetcher"),
	}
}

// Fetch resolves tickerRaw, pulls its daily window, and on a symbol-level
// failure tries the one alternate spelling. A successful alternate heals the
// stored mapping; this is the only mapping write the fetch can make. When
// both attempts fail the mapping is left untouched.
func (f *Fetcher) Fetch(ctx context.Context, tickerRaw string) FetchResult {
	result := FetchResult{TickerRaw: tickerRaw}

	symbol, err := f.resolver.Resolve(ctx, tickerRaw)
	if err != nil {
		result.Err = err
		return result
	}
	result.Symbol = symbol

	bars, err := f.fetchOnce(ctx, symbol)
	if err == nil {
		result.Bars = rekey(tickerRaw, bars)
		return result
	}
	if !isSymbolFailure(err) {
		result.Err = err
		return result
	}

	alt, ok := resolver.Alternate(symbol)
	if !ok {
		result.Err = err
		return result
	}

	f.logger.WithFields(map[string]interface{}{
		"ticker":    tickerRaw,
		"symbol":    symbol,
		"alternate": alt,
	}).Warn("symbol rejected, trying alternate")

	bars, altErr := f.fetchOnce(ctx, alt)
	if altErr != nil {
		// Report the original failure; the alternate was a best effort.
		result.Err = err
		return result
	}

	if healErr := f.resolver.Heal(ctx, tickerRaw, alt); healErr != nil {
		f.logger.WithError(healErr).WithField("ticker", tickerRaw).Warn("mapping heal failed")
	} else {
		result.Healed = true
	}
	result.Symbol = alt
	result.Bars = rekey(tickerRaw, bars)
	return result
}

func (f *Fetcher) fetchOnce(ctx context.Context, symbol string) ([]yahoo.Bar, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, f.symbolTimeout)
	defer cancel()
	return f.yahoo.DailyBars(fetchCtx, symbol, f.windowDays)
}

// isSymbolFailure reports whether the error suggests a wrong symbol rather
// than a transport problem. Only these trigger the alternate attempt.
func isSymbolFailure(err error) bool {
	return errors.Is(err, yahoo.ErrSymbolNotFound) || errors.Is(err, yahoo.ErrEmptySeries)
}

// rekey stamps provider bars with the internal raw ticker. All persistence
// downstream is keyed on the raw ticker regardless of which provider
// spelling produced the data.
func rekey(tickerRaw string, bars []yahoo.Bar) []contracts.PriceBar {
	out := make([]contracts.PriceBar, len(bars))
	for i, b := range bars {
		out[i] = contracts.PriceBar{
			Ticker:    tickerRaw,
			TradeDate: b.Date,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return out
}
