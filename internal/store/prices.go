package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// PriceRepository manages daily close bars. Writes inside the ingestion
// pipeline go through a caller-owned transaction so price and indicator
// writes for one ticker commit atomically.
type PriceRepository struct {
	pool *pgxpool.Pool
}

func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// UpsertBarsTx writes bars within tx. Conflicting (ticker, trade_date) rows
// are overwritten. Returns the number of bars written.
func (r *PriceRepository) UpsertBarsTx(ctx context.Context, tx pgx.Tx, bars []contracts.PriceBar) (int, error) {
	for _, b := range bars {
		_, err := tx.Exec(ctx, `
			INSERT INTO prices (ticker, trade_date, close_price, volume)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (ticker, trade_date) DO UPDATE SET
				close_price = EXCLUDED.close_price,
				volume = EXCLUDED.volume`,
			b.Ticker, b.TradeDate, b.Close, b.Volume)
		if err != nil {
			return 0, fmt.Errorf("upsert bar %s %s: %w", b.Ticker, b.TradeDate.Format("2006-01-02"), err)
		}
	}
	return len(bars), nil
}

// RecentBarsTx loads up to limit most recent bars for a ticker within tx,
// returned in ascending date order ready for indicator recomputation.
func (r *PriceRepository) RecentBarsTx(ctx context.Context, tx pgx.Tx, ticker string, limit int) ([]contracts.PriceBar, error) {
	rows, err := tx.Query(ctx, `
		SELECT ticker, trade_date, close_price, volume
		FROM (
			SELECT ticker, trade_date, close_price, volume
			FROM prices WHERE ticker = $1
			ORDER BY trade_date DESC
			LIMIT $2
		) recent
		ORDER BY trade_date ASC`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("recent bars %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Ticker, &b.TradeDate, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestDate returns the most recent bar stored for a ticker. The bool is
// false when no bars exist; query failures are returned as errors.
func (r *PriceRepository) LatestDate(ctx context.Context, ticker string) (contracts.PriceBar, bool, error) {
	var b contracts.PriceBar
	err := r.pool.QueryRow(ctx, `
		SELECT ticker, trade_date, close_price, volume
		FROM prices WHERE ticker = $1
		ORDER BY trade_date DESC LIMIT 1`, ticker).
		Scan(&b.Ticker, &b.TradeDate, &b.Close, &b.Volume)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.PriceBar{}, false, nil
	}
	if err != nil {
		return contracts.PriceBar{}, false, fmt.Errorf("latest bar %s: %w", ticker, err)
	}
	return b, true, nil
}

// PurgeOlderThan removes bars before the cutoff date. Used by the retention
// job; the conformed store keeps the full history.
func (r *PriceRepository) PurgeOlderThan(ctx context.Context, cutoff string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prices WHERE trade_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge prices: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of stored bars.
func (r *PriceRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prices`).Scan(&n)
	return n, err
}
