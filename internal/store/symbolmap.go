package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// ErrMappingNotFound is returned when a raw ticker has no external mapping.
var ErrMappingNotFound = errors.New("symbol mapping not found")

// SymbolMappingRepository manages raw-to-external symbol mappings.
type SymbolMappingRepository struct {
	pool *pgxpool.Pool
}

func NewSymbolMappingRepository(pool *pgxpool.Pool) *SymbolMappingRepository {
	return &SymbolMappingRepository{pool: pool}
}

// Get returns the mapping for one raw ticker.
func (r *SymbolMappingRepository) Get(ctx context.Context, tickerRaw string) (*contracts.SymbolMapping, error) {
	var m contracts.SymbolMapping
	err := r.pool.QueryRow(ctx, `
		SELECT ticker_raw, ticker_external, exchange, currency, updated_at
		FROM ticker_map WHERE ticker_raw = $1`, tickerRaw).
		Scan(&m.TickerRaw, &m.TickerExternal, &m.Exchange, &m.Currency, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping %s: %w", tickerRaw, err)
	}
	return &m, nil
}

// Upsert writes a mapping, last write wins.
func (r *SymbolMappingRepository) Upsert(ctx context.Context, m contracts.SymbolMapping) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ticker_map (ticker_raw, ticker_external, exchange, currency, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker_raw) DO UPDATE SET
			ticker_external = EXCLUDED.ticker_external,
			exchange = EXCLUDED.exchange,
			currency = EXCLUDED.currency,
			updated_at = NOW()`,
		m.TickerRaw, m.TickerExternal, m.Exchange, m.Currency)
	if err != nil {
		return fmt.Errorf("upsert mapping %s: %w", m.TickerRaw, err)
	}
	return nil
}

// All returns every mapping keyed by raw ticker.
func (r *SymbolMappingRepository) All(ctx context.Context) (map[string]contracts.SymbolMapping, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker_raw, ticker_external, exchange, currency, updated_at FROM ticker_map`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.SymbolMapping)
	for rows.Next() {
		var m contracts.SymbolMapping
		if err := rows.Scan(&m.TickerRaw, &m.TickerExternal, &m.Exchange, &m.Currency, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out[m.TickerRaw] = m
	}
	return out, rows.Err()
}
