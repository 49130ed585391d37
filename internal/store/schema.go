package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order; every statement is idempotent so the
// migrate command can be re-run safely.
var migrations = []string{
	// --- ingestion tables ---
	`CREATE TABLE IF NOT EXISTS companies (
		ticker    TEXT PRIMARY KEY,
		name      TEXT,
		sector    TEXT,
		industry  TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS ticker_map (
		ticker_raw      TEXT PRIMARY KEY REFERENCES companies(ticker) ON DELETE CASCADE,
		ticker_external TEXT NOT NULL,
		exchange        TEXT NOT NULL DEFAULT 'US',
		currency        TEXT NOT NULL DEFAULT 'USD',
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS universe_membership_daily (
		universe_code TEXT NOT NULL,
		as_of_date    DATE NOT NULL,
		ticker_raw    TEXT NOT NULL,
		source        TEXT NOT NULL DEFAULT 'wikipedia',
		is_member     BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (universe_code, as_of_date, ticker_raw)
	)`,

	`CREATE TABLE IF NOT EXISTS prices (
		ticker      TEXT NOT NULL REFERENCES companies(ticker) ON DELETE CASCADE,
		trade_date  DATE NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		volume      BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (ticker, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS metrics (
		ticker     TEXT NOT NULL REFERENCES companies(ticker) ON DELETE CASCADE,
		trade_date DATE NOT NULL,
		ma50       DOUBLE PRECISION,
		ma200      DOUBLE PRECISION,
		rsi14      DOUBLE PRECISION,
		PRIMARY KEY (ticker, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS fundamentals (
		ticker         TEXT NOT NULL REFERENCES companies(ticker) ON DELETE CASCADE,
		report_date    DATE NOT NULL,
		market_cap     BIGINT,
		pe_ratio       DOUBLE PRECISION,
		trailing_eps   DOUBLE PRECISION,
		forward_eps    DOUBLE PRECISION,
		dividend_yield DOUBLE PRECISION,
		PRIMARY KEY (ticker, report_date)
	)`,

	`CREATE TABLE IF NOT EXISTS financials (
		ticker         TEXT NOT NULL REFERENCES companies(ticker) ON DELETE CASCADE,
		report_date    DATE NOT NULL,
		revenue        BIGINT,
		net_income     BIGINT,
		free_cash_flow BIGINT,
		debt_to_equity DOUBLE PRECISION,
		roe            DOUBLE PRECISION,
		PRIMARY KEY (ticker, report_date)
	)`,

	`CREATE TABLE IF NOT EXISTS ranking_config (
		name       TEXT PRIMARY KEY,
		weights    JSONB NOT NULL,
		params     JSONB NOT NULL DEFAULT '{}'::jsonb,
		active     BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`INSERT INTO ranking_config (name, weights, params, active)
	 VALUES (
		'default',
		'{"trend": 0.35, "rsi": 0.25, "value": 0.2, "size": 0.1, "yield": 0.1}'::jsonb,
		'{}'::jsonb,
		TRUE
	 )
	 ON CONFLICT (name) DO NOTHING`,

	`CREATE TABLE IF NOT EXISTS data_quality_daily (
		dq_date                       DATE PRIMARY KEY,
		created_at                    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		universe_companies            INT NOT NULL,
		companies_in_dim              INT NOT NULL,
		tickers_with_price_today      INT NOT NULL,
		tickers_missing_price_today   INT NOT NULL,
		pct_with_price_today          DOUBLE PRECISION NOT NULL,
		tickers_with_metrics_today    INT NOT NULL,
		tickers_missing_metrics_today INT NOT NULL,
		pct_with_metrics_today        DOUBLE PRECISION NOT NULL,
		tickers_with_ma200_today      INT NOT NULL,
		pct_with_ma200_today          DOUBLE PRECISION NOT NULL,
		tickers_with_rsi_today        INT NOT NULL,
		pct_with_rsi_today            DOUBLE PRECISION NOT NULL,
		duplicates_fact_prices        INT NOT NULL,
		duplicates_fact_metrics       INT NOT NULL,
		nonpositive_prices_today      INT NOT NULL,
		zero_volume_today             INT NOT NULL,
		notes                         TEXT
	)`,

	// --- conformed store (star schema) ---
	`CREATE SCHEMA IF NOT EXISTS warehouse`,

	`CREATE TABLE IF NOT EXISTS warehouse.dim_company (
		company_id SERIAL PRIMARY KEY,
		ticker     TEXT NOT NULL UNIQUE,
		name       TEXT,
		sector     TEXT,
		industry   TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse.dim_date (
		date_id     SERIAL PRIMARY KEY,
		full_date   DATE NOT NULL UNIQUE,
		year        INT NOT NULL,
		quarter     INT NOT NULL,
		month       INT NOT NULL,
		week        INT NOT NULL,
		day         INT NOT NULL,
		day_of_week TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse.fact_prices (
		company_id  INT NOT NULL REFERENCES warehouse.dim_company(company_id),
		date_id     INT NOT NULL REFERENCES warehouse.dim_date(date_id),
		close_price DOUBLE PRECISION,
		volume      BIGINT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (company_id, date_id)
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse.fact_metrics (
		company_id INT NOT NULL REFERENCES warehouse.dim_company(company_id),
		date_id    INT NOT NULL REFERENCES warehouse.dim_date(date_id),
		ma50       DOUBLE PRECISION,
		ma200      DOUBLE PRECISION,
		rsi14      DOUBLE PRECISION,
		PRIMARY KEY (company_id, date_id)
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse.fact_fundamentals (
		company_id     INT NOT NULL REFERENCES warehouse.dim_company(company_id),
		date_id        INT NOT NULL REFERENCES warehouse.dim_date(date_id),
		market_cap     BIGINT,
		pe_ratio       DOUBLE PRECISION,
		trailing_eps   DOUBLE PRECISION,
		forward_eps    DOUBLE PRECISION,
		dividend_yield DOUBLE PRECISION,
		PRIMARY KEY (company_id, date_id)
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse.fact_financials (
		company_id     INT NOT NULL REFERENCES warehouse.dim_company(company_id),
		date_id        INT NOT NULL REFERENCES warehouse.dim_date(date_id),
		revenue        BIGINT,
		net_income     BIGINT,
		free_cash_flow BIGINT,
		debt_to_equity DOUBLE PRECISION,
		roe            DOUBLE PRECISION,
		PRIMARY KEY (company_id, date_id)
	)`,

	`INSERT INTO warehouse.dim_date (full_date, year, quarter, month, week, day, day_of_week)
	 SELECT d::date,
		EXTRACT(YEAR FROM d)::INT,
		EXTRACT(QUARTER FROM d)::INT,
		EXTRACT(MONTH FROM d)::INT,
		EXTRACT(WEEK FROM d)::INT,
		EXTRACT(DAY FROM d)::INT,
		TO_CHAR(d, 'Day')
	 FROM generate_series('2015-01-01'::date, '2035-12-31'::date, interval '1 day') d
	 ON CONFLICT (full_date) DO NOTHING`,

	`CREATE OR REPLACE VIEW warehouse.v_price_series AS
	 SELECT c.ticker, d.full_date, fp.close_price, fp.volume
	 FROM warehouse.fact_prices fp
	 JOIN warehouse.dim_company c ON c.company_id = fp.company_id
	 JOIN warehouse.dim_date d ON d.date_id = fp.date_id`,

	`CREATE OR REPLACE VIEW warehouse.v_metrics_series AS
	 SELECT c.ticker, d.full_date, fm.ma50, fm.ma200, fm.rsi14
	 FROM warehouse.fact_metrics fm
	 JOIN warehouse.dim_company c ON c.company_id = fm.company_id
	 JOIN warehouse.dim_date d ON d.date_id = fm.date_id`,

	`CREATE OR REPLACE VIEW warehouse.v_screener_latest AS
	 WITH latest_price AS (
		SELECT DISTINCT ON (ticker) ticker, full_date, close_price, volume
		FROM warehouse.v_price_series
		ORDER BY ticker, full_date DESC
	 ),
	 latest_metrics AS (
		SELECT DISTINCT ON (ticker) ticker, full_date, ma50, ma200, rsi14
		FROM warehouse.v_metrics_series
		ORDER BY ticker, full_date DESC
	 ),
	 latest_fund AS (
		SELECT DISTINCT ON (c.ticker) c.ticker, ff.market_cap, ff.pe_ratio, ff.dividend_yield
		FROM warehouse.fact_fundamentals ff
		JOIN warehouse.dim_company c ON c.company_id = ff.company_id
		JOIN warehouse.dim_date d ON d.date_id = ff.date_id
		ORDER BY c.ticker, d.full_date DESC
	 )
	 SELECT
		dc.ticker, dc.name, dc.sector, dc.industry,
		lp.full_date AS price_date,
		lp.close_price, lp.volume,
		lm.ma50, lm.ma200, lm.rsi14,
		lf.market_cap, lf.pe_ratio, lf.dividend_yield,
		(lp.close_price > lm.ma200 AND lm.ma50 > lm.ma200) AS trend_bullish,
		(lm.rsi14 <= 30) AS rsi_oversold,
		(lm.rsi14 >= 70) AS rsi_overbought
	 FROM warehouse.dim_company dc
	 LEFT JOIN latest_price lp ON lp.ticker = dc.ticker
	 LEFT JOIN latest_metrics lm ON lm.ticker = dc.ticker
	 LEFT JOIN latest_fund lf ON lf.ticker = dc.ticker`,

	// Sub-score derivation lives in the view layer; the ranking engine
	// treats these columns as opaque normalized inputs.
	`CREATE OR REPLACE VIEW warehouse.v_rankings_latest AS
	 SELECT
		s.ticker, s.name, s.sector, s.industry,
		s.price_date, s.close_price, s.rsi14,
		s.pe_ratio, s.dividend_yield, s.market_cap,
		CASE
			WHEN s.close_price IS NULL OR s.ma200 IS NULL THEN 0.0
			WHEN s.close_price > s.ma200 AND s.ma50 > s.ma200 THEN 1.0
			WHEN s.close_price > s.ma200 THEN 0.6
			WHEN s.ma50 IS NOT NULL AND s.close_price > s.ma50 THEN 0.4
			ELSE 0.0
		END AS trend_score,
		CASE
			WHEN s.rsi14 IS NULL THEN 0.0
			ELSE GREATEST(0.0, LEAST(1.0, (70.0 - s.rsi14) / 40.0))
		END AS rsi_score,
		CASE
			WHEN s.pe_ratio IS NULL OR s.pe_ratio <= 0 THEN 0.0
			WHEN s.pe_ratio < 10 THEN 1.0
			WHEN s.pe_ratio < 20 THEN 0.7
			WHEN s.pe_ratio < 35 THEN 0.4
			ELSE 0.1
		END AS value_score,
		CASE
			WHEN s.market_cap IS NULL OR s.market_cap <= 0 THEN 0.0
			ELSE GREATEST(0.0, LEAST(1.0, (LN(s.market_cap) - LN(1e8)) / (LN(1e13) - LN(1e8))))
		END AS size_score,
		CASE
			WHEN s.dividend_yield IS NULL OR s.dividend_yield <= 0 THEN 0.0
			ELSE LEAST(1.0, s.dividend_yield / 0.05)
		END AS yield_score,
		jsonb_build_object(
			'trend_bullish', s.trend_bullish,
			'rsi14', s.rsi14,
			'pe_ratio', s.pe_ratio,
			'dividend_yield', s.dividend_yield,
			'market_cap', s.market_cap
		) AS reasons
	 FROM warehouse.v_screener_latest s`,
}

// Migrate applies the embedded schema. Safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
