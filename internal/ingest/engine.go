package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

// defaultLookback is how many stored bars are reloaded per ticker before
// recomputation. Enough to fill the 200-day window with margin for holidays
// and halts.
const defaultLookback = 500

// Summary tallies one pipeline run. The run itself succeeds as long as it
// completes; per-ticker failures are recorded here, not raised.
type Summary struct {
	Requested     int           `json:"requested"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	Healed        int           `json:"healed"`
	BarsWritten   int           `json:"bars_written"`
	IndicatorRows int           `json:"indicator_rows"`
	Failures      []Failure     `json:"failures,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Failure records one ticker the run could not ingest.
type Failure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Engine runs the daily ingestion pipeline: fetch bars per ticker, persist
// them, and recompute indicators, all within one transaction per ticker.
type Engine struct {
	pool       *pgxpool.Pool
	fetcher    *Fetcher
	prices     *store.PriceRepository
	indicators *store.IndicatorRepository
	workers    int
	lookback   int
	logger     *logger.Logger
}

func NewEngine(pool *pgxpool.Pool, fetcher *Fetcher, prices *store.PriceRepository, indicators *store.IndicatorRepository, workers, lookback int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if lookback < 1 {
		lookback = defaultLookback
	}
	return &Engine{
		pool:       pool,
		fetcher:    fetcher,
		prices:     prices,
		indicators: indicators,
		workers:    workers,
		lookback:   lookback,
		logger:     log.WithField("component", "pipeline"),
	}
}

type tickerOutcome struct {
	result        FetchResult
	barsWritten   int
	indicatorRows int
	persistErr    error
}

// Run ingests the given tickers concurrently and returns the tally. A
// ticker that fails in fetch or persist is counted and skipped; it never
// aborts the run or leaves partial writes behind.
func (e *Engine) Run(ctx context.Context, tickers []string) (*Summary, error) {
	start := time.Now()
	e.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": e.workers,
	}).Info("pipeline run started")

	jobs := make(chan string)
	outcomes := make(chan tickerOutcome, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				outcomes <- e.processTicker(ctx, ticker)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range tickers {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	summary := &Summary{Requested: len(tickers)}
	for o := range outcomes {
		switch {
		case o.result.Err != nil:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Ticker: o.result.TickerRaw,
				Reason: o.result.Err.Error(),
			})
		case o.persistErr != nil:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Ticker: o.result.TickerRaw,
				Reason: o.persistErr.Error(),
			})
		default:
			summary.Succeeded++
			summary.BarsWritten += o.barsWritten
			summary.IndicatorRows += o.indicatorRows
			if o.result.Healed {
				summary.Healed++
			}
		}
	}
	summary.Elapsed = time.Since(start)

	e.logger.WithFields(map[string]interface{}{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"healed":    summary.Healed,
		"bars":      summary.BarsWritten,
		"elapsed":   summary.Elapsed.String(),
	}).Info("pipeline run finished")

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *Engine) processTicker(ctx context.Context, ticker string) tickerOutcome {
	o := tickerOutcome{result: e.fetcher.Fetch(ctx, ticker)}
	if o.result.Err != nil {
		e.logger.WithError(o.result.Err).WithField("ticker", ticker).Warn("fetch failed")
		return o
	}
	o.barsWritten, o.indicatorRows, o.persistErr = e.persist(ctx, o.result.TickerRaw, o.result.Bars)
	if o.persistErr != nil {
		e.logger.WithError(o.persistErr).WithField("ticker", ticker).Error("persist failed")
	}
	return o
}

// persist writes the fetched bars and the recomputed indicators for their
// dates in a single transaction. Either both land or neither does.
func (e *Engine) persist(ctx context.Context, ticker string, bars []contracts.PriceBar) (int, int, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx for %s: %w", ticker, err)
	}
	defer tx.Rollback(ctx)

	barsWritten, err := e.prices.UpsertBarsTx(ctx, tx, bars)
	if err != nil {
		return 0, 0, err
	}

	history, err := e.prices.RecentBarsTx(ctx, tx, ticker, e.lookback)
	if err != nil {
		return 0, 0, err
	}

	rows := indicatorRowsForDates(ComputeIndicators(history), fetchedDates(bars))
	indicatorRows, err := e.indicators.UpsertRowsTx(ctx, tx, rows)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit %s: %w", ticker, err)
	}
	return barsWritten, indicatorRows, nil
}

func fetchedDates(bars []contracts.PriceBar) map[string]bool {
	dates := make(map[string]bool, len(bars))
	for _, b := range bars {
		dates[b.TradeDate.Format("2006-01-02")] = true
	}
	return dates
}

// indicatorRowsForDates keeps only rows for dates touched by this fetch.
// Older history stays untouched even though the recomputation covered it.
func indicatorRowsForDates(rows []contracts.IndicatorRow, dates map[string]bool) []contracts.IndicatorRow {
	out := make([]contracts.IndicatorRow, 0, len(dates))
	for _, r := range rows {
		if dates[r.TradeDate.Format("2006-01-02")] {
			out = append(out, r)
		}
	}
	return out
}
