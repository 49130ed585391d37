package universe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/external/wiki"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

const (
	CodeSP500 = "SP500"
	CodeTSX60 = "TSX60"

	sourceWikipedia = "wikipedia"
)

// Refresher rebuilds the tracked universe from the index constituent pages
// and seeds the symbol mappings for tickers whose provider spelling differs
// from the raw ticker.
type Refresher struct {
	wiki      *wiki.Client
	companies *store.CompanyRepository
	mappings  *store.SymbolMappingRepository
	logger    *logger.Logger
}

func NewRefresher(wc *wiki.Client, companies *store.CompanyRepository, mappings *store.SymbolMappingRepository, log *logger.Logger) *Refresher {
	return &Refresher{
		wiki:      wc,
		companies: companies,
		mappings:  mappings,
		logger:    log.WithField("component", "universe"),
	}
}

// RefreshStats tallies one universe refresh.
type RefreshStats struct {
	SP500    int `json:"sp500"`
	TSX60    int `json:"tsx60"`
	Mappings int `json:"mappings"`
}

// Run scrapes both index pages, upserts companies and mappings, and records
// today's membership snapshot. Members never leave the companies table when
// dropped from an index; membership history tracks that instead.
func (r *Refresher) Run(ctx context.Context) (*RefreshStats, error) {
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	stats := &RefreshStats{}

	sp500, err := r.wiki.SP500Constituents(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh SP500: %w", err)
	}
	n, err := r.ingestUniverse(ctx, CodeSP500, sp500, asOf, false)
	if err != nil {
		return nil, err
	}
	stats.SP500 = len(sp500)
	stats.Mappings += n

	tsx60, err := r.wiki.TSX60Constituents(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh TSX60: %w", err)
	}
	n, err = r.ingestUniverse(ctx, CodeTSX60, tsx60, asOf, true)
	if err != nil {
		return nil, err
	}
	stats.TSX60 = len(tsx60)
	stats.Mappings += n

	r.logger.WithFields(map[string]interface{}{
		"sp500":    stats.SP500,
		"tsx60":    stats.TSX60,
		"mappings": stats.Mappings,
	}).Info("universe refreshed")
	return stats, nil
}

func (r *Refresher) ingestUniverse(ctx context.Context, code string, companies []contracts.Company, asOf time.Time, tsx bool) (int, error) {
	mappings := 0
	tickers := make([]string, 0, len(companies))
	for _, c := range companies {
		if err := r.companies.Upsert(ctx, c); err != nil {
			return mappings, fmt.Errorf("ingest %s: %w", code, err)
		}
		tickers = append(tickers, c.Ticker)

		external := NormalizeSymbol(c.Ticker, tsx)
		if external == c.Ticker {
			continue // identity mappings are implicit
		}
		exchange, currency := "US", "USD"
		if tsx {
			exchange, currency = "TSX", "CAD"
		}
		err := r.mappings.Upsert(ctx, contracts.SymbolMapping{
			TickerRaw:      c.Ticker,
			TickerExternal: external,
			Exchange:       exchange,
			Currency:       currency,
		})
		if err != nil {
			return mappings, fmt.Errorf("ingest %s: %w", code, err)
		}
		mappings++
	}

	if err := r.companies.RecordMembership(ctx, code, asOf, tickers, sourceWikipedia); err != nil {
		return mappings, err
	}
	return mappings, nil
}

// NormalizeSymbol derives the provider spelling of a raw index ticker: the
// class-share dot becomes a dash, and Toronto listings get the .TO suffix.
func NormalizeSymbol(raw string, tsx bool) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ".", "-")
	if tsx {
		s += ".TO"
	}
	return s
}
