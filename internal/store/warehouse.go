package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// WarehouseRepository moves ingested data into the conformed star schema and
// serves the read queries built on its views.
type WarehouseRepository struct {
	pool *pgxpool.Pool
}

func NewWarehouseRepository(pool *pgxpool.Pool) *WarehouseRepository {
	return &WarehouseRepository{pool: pool}
}

// TransferStats reports how many rows each transfer step touched.
type TransferStats struct {
	Companies    int64 `json:"companies"`
	Prices       int64 `json:"prices"`
	Metrics      int64 `json:"metrics"`
	Fundamentals int64 `json:"fundamentals"`
	Financials   int64 `json:"financials"`
}

// Transfer copies ingestion-side rows into the star schema in one
// transaction. Every step is an idempotent upsert keyed on the dimension
// surrogate keys, so re-running a transfer is safe.
func (r *WarehouseRepository) Transfer(ctx context.Context) (*TransferStats, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	stats := &TransferStats{}

	tag, err := tx.Exec(ctx, `
		INSERT INTO warehouse.dim_company (ticker, name, sector, industry)
		SELECT ticker, name, sector, industry FROM companies
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry`)
	if err != nil {
		return nil, fmt.Errorf("transfer companies: %w", err)
	}
	stats.Companies = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `
		INSERT INTO warehouse.fact_prices (company_id, date_id, close_price, volume)
		SELECT dc.company_id, dd.date_id, p.close_price, p.volume
		FROM prices p
		JOIN warehouse.dim_company dc ON dc.ticker = p.ticker
		JOIN warehouse.dim_date dd ON dd.full_date = p.trade_date
		ON CONFLICT (company_id, date_id) DO UPDATE SET
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume`)
	if err != nil {
		return nil, fmt.Errorf("transfer prices: %w", err)
	}
	stats.Prices = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `
		INSERT INTO warehouse.fact_metrics (company_id, date_id, ma50, ma200, rsi14)
		SELECT dc.company_id, dd.date_id, m.ma50, m.ma200, m.rsi14
		FROM metrics m
		JOIN warehouse.dim_company dc ON dc.ticker = m.ticker
		JOIN warehouse.dim_date dd ON dd.full_date = m.trade_date
		ON CONFLICT (company_id, date_id) DO UPDATE SET
			ma50 = EXCLUDED.ma50,
			ma200 = EXCLUDED.ma200,
			rsi14 = EXCLUDED.rsi14`)
	if err != nil {
		return nil, fmt.Errorf("transfer metrics: %w", err)
	}
	stats.Metrics = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `
		INSERT INTO warehouse.fact_fundamentals (company_id, date_id, market_cap, pe_ratio, trailing_eps, forward_eps, dividend_yield)
		SELECT dc.company_id, dd.date_id, f.market_cap, f.pe_ratio, f.trailing_eps, f.forward_eps, f.dividend_yield
		FROM fundamentals f
		JOIN warehouse.dim_company dc ON dc.ticker = f.ticker
		JOIN warehouse.dim_date dd ON dd.full_date = f.report_date
		ON CONFLICT (company_id, date_id) DO UPDATE SET
			market_cap = EXCLUDED.market_cap,
			pe_ratio = EXCLUDED.pe_ratio,
			trailing_eps = EXCLUDED.trailing_eps,
			forward_eps = EXCLUDED.forward_eps,
			dividend_yield = EXCLUDED.dividend_yield`)
	if err != nil {
		return nil, fmt.Errorf("transfer fundamentals: %w", err)
	}
	stats.Fundamentals = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `
		INSERT INTO warehouse.fact_financials (company_id, date_id, revenue, net_income, free_cash_flow, debt_to_equity, roe)
		SELECT dc.company_id, dd.date_id, f.revenue, f.net_income, f.free_cash_flow, f.debt_to_equity, f.roe
		FROM financials f
		JOIN warehouse.dim_company dc ON dc.ticker = f.ticker
		JOIN warehouse.dim_date dd ON dd.full_date = f.report_date
		ON CONFLICT (company_id, date_id) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			net_income = EXCLUDED.net_income,
			free_cash_flow = EXCLUDED.free_cash_flow,
			debt_to_equity = EXCLUDED.debt_to_equity,
			roe = EXCLUDED.roe`)
	if err != nil {
		return nil, fmt.Errorf("transfer financials: %w", err)
	}
	stats.Financials = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transfer: %w", err)
	}
	return stats, nil
}

// RankingInputs loads the per-ticker sub-scores and display fields from the
// rankings view. Composite scoring happens in the ranking engine.
func (r *WarehouseRepository) RankingInputs(ctx context.Context) ([]contracts.RankingRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, COALESCE(name, ''), COALESCE(sector, ''), COALESCE(industry, ''),
			price_date, close_price, rsi14, pe_ratio, dividend_yield, market_cap,
			trend_score, rsi_score, value_score, size_score, yield_score, reasons
		FROM warehouse.v_rankings_latest`)
	if err != nil {
		return nil, fmt.Errorf("ranking inputs: %w", err)
	}
	defer rows.Close()

	var out []contracts.RankingRow
	for rows.Next() {
		var row contracts.RankingRow
		if err := rows.Scan(
			&row.Ticker, &row.Name, &row.Sector, &row.Industry,
			&row.PriceDate, &row.ClosePrice, &row.RSI14,
			&row.PERatio, &row.DividendYield, &row.MarketCap,
			&row.Scores.Trend, &row.Scores.RSI, &row.Scores.Value,
			&row.Scores.Size, &row.Scores.Yield, &row.Reasons,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ScreenerRow is one row of the latest-state screener view.
type ScreenerRow struct {
	Ticker        string     `json:"ticker"`
	Name          string     `json:"name,omitempty"`
	Sector        string     `json:"sector,omitempty"`
	Industry      string     `json:"industry,omitempty"`
	Date          *string    `json:"price_date"`
	ClosePrice    *float64   `json:"close_price"`
	Volume        *int64     `json:"volume"`
	MA50          *float64   `json:"ma50"`
	MA200         *float64   `json:"ma200"`
	RSI14         *float64   `json:"rsi14"`
	MarketCap     *int64     `json:"market_cap"`
	PERatio       *float64   `json:"pe_ratio"`
	DividendYield *float64   `json:"dividend_yield"`
	TrendBullish  *bool      `json:"trend_bullish"`
	RSIOversold   *bool      `json:"rsi_oversold"`
	RSIOverbought *bool      `json:"rsi_overbought"`
}

// ScreenerFilter narrows the screener result set. Zero values mean no filter.
type ScreenerFilter struct {
	Query        string // matches ticker or name, case-insensitive
	Sector       string
	RSIMax       *float64
	TrendBullish bool
	Oversold     bool
	Limit        int
}

// ScreenerLatest queries the latest-state view with optional filters.
func (r *WarehouseRepository) ScreenerLatest(ctx context.Context, f ScreenerFilter) ([]ScreenerRow, error) {
	q := `
		SELECT ticker, COALESCE(name, ''), COALESCE(sector, ''), COALESCE(industry, ''),
			TO_CHAR(price_date, 'YYYY-MM-DD'), close_price, volume, ma50, ma200, rsi14,
			market_cap, pe_ratio, dividend_yield,
			trend_bullish, rsi_oversold, rsi_overbought
		FROM warehouse.v_screener_latest
		WHERE 1=1`
	args := []interface{}{}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		q += fmt.Sprintf(" AND (ticker ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}
	if f.Sector != "" {
		args = append(args, f.Sector)
		q += fmt.Sprintf(" AND sector = $%d", len(args))
	}
	if f.RSIMax != nil {
		args = append(args, *f.RSIMax)
		q += fmt.Sprintf(" AND rsi14 <= $%d", len(args))
	}
	if f.TrendBullish {
		q += " AND trend_bullish IS TRUE"
	}
	if f.Oversold {
		q += " AND rsi_oversold IS TRUE"
	}
	q += " ORDER BY ticker"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("screener query: %w", err)
	}
	defer rows.Close()

	var out []ScreenerRow
	for rows.Next() {
		var s ScreenerRow
		if err := rows.Scan(
			&s.Ticker, &s.Name, &s.Sector, &s.Industry,
			&s.Date, &s.ClosePrice, &s.Volume, &s.MA50, &s.MA200, &s.RSI14,
			&s.MarketCap, &s.PERatio, &s.DividendYield,
			&s.TrendBullish, &s.RSIOversold, &s.RSIOverbought,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Series returns joined price and indicator history for one ticker over the
// trailing number of days, ascending by date.
func (r *WarehouseRepository) Series(ctx context.Context, ticker string, days int) ([]contracts.SeriesPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.full_date, p.close_price, p.volume, m.ma50, m.ma200, m.rsi14
		FROM warehouse.v_price_series p
		LEFT JOIN warehouse.v_metrics_series m
			ON m.ticker = p.ticker AND m.full_date = p.full_date
		WHERE p.ticker = $1 AND p.full_date >= CURRENT_DATE - $2::int
		ORDER BY p.full_date ASC`, ticker, days)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []contracts.SeriesPoint
	for rows.Next() {
		var p contracts.SeriesPoint
		if err := rows.Scan(&p.Date, &p.Close, &p.Volume, &p.MA50, &p.MA200, &p.RSI14); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
