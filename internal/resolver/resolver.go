package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
	"github.com/marketlens/screener/pkg/redis"
)

// knownSuffixes are provider exchange suffixes that must survive class-share
// separator rewriting.
var knownSuffixes = []string{".TO", ".V"}

// MappingStore is the slice of the symbol-mapping repository the resolver
// depends on. Get reports an unknown ticker with store.ErrMappingNotFound.
type MappingStore interface {
	Get(ctx context.Context, tickerRaw string) (*contracts.SymbolMapping, error)
	Upsert(ctx context.Context, m contracts.SymbolMapping) error
}

// Resolver maps internal raw tickers to provider symbols, caching lookups
// and self-healing mappings after a successful fallback fetch.
type Resolver struct {
	mappings MappingStore
	cache    *redis.Cache
	logger   *logger.Logger
}

func New(mappings MappingStore, cache *redis.Cache, log *logger.Logger) *Resolver {
	return &Resolver{
		mappings: mappings,
		cache:    cache,
		logger:   log.WithField("component", "resolver"),
	}
}

// Resolve returns the provider symbol for a raw ticker. Unmapped tickers
// resolve to themselves; the mapping table only stores exceptions and
// suffix-bearing listings.
func (r *Resolver) Resolve(ctx context.Context, tickerRaw string) (string, error) {
	var cached string
	if hit, err := r.cache.Get(ctx, redis.SymbolMappingKey(tickerRaw), &cached); err == nil && hit {
		return cached, nil
	}

	m, err := r.mappings.Get(ctx, tickerRaw)
	if errors.Is(err, store.ErrMappingNotFound) {
		return tickerRaw, nil
	}
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, redis.SymbolMappingKey(tickerRaw), m.TickerExternal, redis.TTLDaily); err != nil {
		r.logger.WithError(err).Warn("symbol cache write failed")
	}
	return m.TickerExternal, nil
}

// Alternate derives the single fallback candidate for a symbol the provider
// rejected: the class-share separator dot becomes a dash, with any exchange
// suffix preserved (BRK.B -> BRK-B, CTC.A.TO -> CTC-A.TO). The second return
// is false when no distinct candidate exists.
func Alternate(symbol string) (string, bool) {
	suffix := ""
	body := symbol
	for _, s := range knownSuffixes {
		if strings.HasSuffix(body, s) {
			suffix = s
			body = strings.TrimSuffix(body, s)
			break
		}
	}
	if !strings.Contains(body, ".") {
		return "", false
	}
	alt := strings.ReplaceAll(body, ".", "-") + suffix
	if alt == symbol {
		return "", false
	}
	return alt, true
}

// Heal records that workingSymbol is the provider symbol for tickerRaw after
// a fallback fetch succeeded. Exchange and currency carry over from the
// existing mapping when present, otherwise they are inferred from the
// symbol's suffix.
func (r *Resolver) Heal(ctx context.Context, tickerRaw, workingSymbol string) error {
	exchange, currency := inferListing(workingSymbol)
	if existing, err := r.mappings.Get(ctx, tickerRaw); err == nil {
		exchange, currency = existing.Exchange, existing.Currency
	}

	m := contracts.SymbolMapping{
		TickerRaw:      tickerRaw,
		TickerExternal: workingSymbol,
		Exchange:       exchange,
		Currency:       currency,
	}
	if err := r.mappings.Upsert(ctx, m); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, redis.SymbolMappingKey(tickerRaw), workingSymbol, redis.TTLDaily); err != nil {
		r.logger.WithError(err).Warn("symbol cache write failed")
	}
	r.logger.WithFields(map[string]interface{}{
		"ticker": tickerRaw,
		"symbol": workingSymbol,
	}).Info("healed symbol mapping")
	return nil
}

func inferListing(symbol string) (exchange, currency string) {
	for _, s := range knownSuffixes {
		if strings.HasSuffix(symbol, s) {
			return "TSX", "CAD"
		}
	}
	return "US", "USD"
}
