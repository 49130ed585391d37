package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// IndicatorRepository manages derived rolling indicators. Rows are written in
// the same transaction as the price bars they derive from.
type IndicatorRepository struct {
	pool *pgxpool.Pool
}

func NewIndicatorRepository(pool *pgxpool.Pool) *IndicatorRepository {
	return &IndicatorRepository{pool: pool}
}

// UpsertRowsTx writes indicator rows within tx, overwriting on conflict.
func (r *IndicatorRepository) UpsertRowsTx(ctx context.Context, tx pgx.Tx, rows []contracts.IndicatorRow) (int, error) {
	for _, m := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO metrics (ticker, trade_date, ma50, ma200, rsi14)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ticker, trade_date) DO UPDATE SET
				ma50 = EXCLUDED.ma50,
				ma200 = EXCLUDED.ma200,
				rsi14 = EXCLUDED.rsi14`,
			m.Ticker, m.TradeDate, m.MA50, m.MA200, m.RSI14)
		if err != nil {
			return 0, fmt.Errorf("upsert metrics %s %s: %w", m.Ticker, m.TradeDate.Format("2006-01-02"), err)
		}
	}
	return len(rows), nil
}

// PurgeOlderThan removes indicator rows before the cutoff date.
func (r *IndicatorRepository) PurgeOlderThan(ctx context.Context, cutoff string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM metrics WHERE trade_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge metrics: %w", err)
	}
	return tag.RowsAffected(), nil
}
