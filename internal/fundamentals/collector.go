package fundamentals

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/marketlens/screener/internal/external/yahoo"
	"github.com/marketlens/screener/internal/resolver"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/logger"
)

const maxAttempts = 2

// Collector refreshes fundamentals and financial-statement snapshots for
// tickers whose stored data has gone stale.
type Collector struct {
	yahoo      *yahoo.Client
	resolver   *resolver.Resolver
	repo       *store.FundamentalsRepository
	limiter    *rate.Limiter
	maxAgeDays int
	logger     *logger.Logger
}

func NewCollector(cfg *config.Config, yc *yahoo.Client, res *resolver.Resolver, repo *store.FundamentalsRepository, log *logger.Logger) *Collector {
	return &Collector{
		yahoo:      yc,
		resolver:   res,
		repo:       repo,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), 1),
		maxAgeDays: cfg.FundamentalsMaxAge,
		logger:     log.WithField("component", "fundamentals"),
	}
}

// Stats tallies one fundamentals run.
type Stats struct {
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Run refreshes every stale ticker sequentially under the shared rate
// limit. Per-ticker failures are tallied and skipped.
func (c *Collector) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	tickers, err := c.repo.StaleTickers(ctx, c.maxAgeDays)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Requested: len(tickers)}
	c.logger.WithField("stale", len(tickers)).Info("fundamentals refresh started")

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		if err := c.collectOne(ctx, ticker); err != nil {
			stats.Failed++
			c.logger.WithError(err).WithField("ticker", ticker).Warn("fundamentals fetch failed")
			continue
		}
		stats.Succeeded++
	}

	stats.Elapsed = time.Since(start)
	c.logger.WithFields(map[string]interface{}{
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"elapsed":   stats.Elapsed.String(),
	}).Info("fundamentals refresh finished")
	return stats, nil
}

func (c *Collector) collectOne(ctx context.Context, ticker string) error {
	symbol, err := c.resolver.Resolve(ctx, ticker)
	if err != nil {
		return err
	}

	var snap *yahoo.CompanySnapshot
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = c.limiter.Wait(ctx); err != nil {
			return err
		}
		snap, err = c.yahoo.QuoteSummary(ctx, symbol)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}

	snap.Fundamentals.Ticker = ticker
	snap.Financials.Ticker = ticker
	if err := c.repo.UpsertFundamentals(ctx, snap.Fundamentals); err != nil {
		return err
	}
	return c.repo.UpsertFinancials(ctx, snap.Financials)
}
