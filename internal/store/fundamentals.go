package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// FundamentalsRepository manages point-in-time fundamentals and financial
// statement snapshots.
type FundamentalsRepository struct {
	pool *pgxpool.Pool
}

func NewFundamentalsRepository(pool *pgxpool.Pool) *FundamentalsRepository {
	return &FundamentalsRepository{pool: pool}
}

// UpsertFundamentals writes one snapshot, overwriting the same report date.
func (r *FundamentalsRepository) UpsertFundamentals(ctx context.Context, f contracts.Fundamentals) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fundamentals (ticker, report_date, market_cap, pe_ratio, trailing_eps, forward_eps, dividend_yield)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, report_date) DO UPDATE SET
			market_cap = EXCLUDED.market_cap,
			pe_ratio = EXCLUDED.pe_ratio,
			trailing_eps = EXCLUDED.trailing_eps,
			forward_eps = EXCLUDED.forward_eps,
			dividend_yield = EXCLUDED.dividend_yield`,
		f.Ticker, f.ReportDate, f.MarketCap, f.PERatio, f.TrailingEPS, f.ForwardEPS, f.DividendYield)
	if err != nil {
		return fmt.Errorf("upsert fundamentals %s: %w", f.Ticker, err)
	}
	return nil
}

// UpsertFinancials writes one financial-statement snapshot.
func (r *FundamentalsRepository) UpsertFinancials(ctx context.Context, f contracts.Financials) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO financials (ticker, report_date, revenue, net_income, free_cash_flow, debt_to_equity, roe)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, report_date) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			net_income = EXCLUDED.net_income,
			free_cash_flow = EXCLUDED.free_cash_flow,
			debt_to_equity = EXCLUDED.debt_to_equity,
			roe = EXCLUDED.roe`,
		f.Ticker, f.ReportDate, f.Revenue, f.NetIncome, f.FreeCashFlow, f.DebtToEquity, f.ROE)
	if err != nil {
		return fmt.Errorf("upsert financials %s: %w", f.Ticker, err)
	}
	return nil
}

// PurgeOlderThan removes fundamentals and financials snapshots before the
// cutoff date. The warehouse keeps the transferred history.
func (r *FundamentalsRepository) PurgeOlderThan(ctx context.Context, cutoff string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fundamentals WHERE report_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge fundamentals: %w", err)
	}
	purged := tag.RowsAffected()

	tag, err = r.pool.Exec(ctx, `DELETE FROM financials WHERE report_date < $1`, cutoff)
	if err != nil {
		return purged, fmt.Errorf("purge financials: %w", err)
	}
	return purged + tag.RowsAffected(), nil
}

// StaleTickers returns tickers whose latest fundamentals snapshot is older
// than maxAgeDays, plus tickers with no snapshot at all.
func (r *FundamentalsRepository) StaleTickers(ctx context.Context, maxAgeDays int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.ticker FROM companies c
		LEFT JOIN (
			SELECT ticker, MAX(report_date) AS latest FROM fundamentals GROUP BY ticker
		) f ON f.ticker = c.ticker
		WHERE f.latest IS NULL OR f.latest < CURRENT_DATE - $1::int
		ORDER BY c.ticker`, maxAgeDays)
	if err != nil {
		return nil, fmt.Errorf("stale fundamentals: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
