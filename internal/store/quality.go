package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// ErrSnapshotNotFound is returned when no quality snapshot exists for a date.
var ErrSnapshotNotFound = errors.New("data quality snapshot not found")

// DataQualityRepository persists and computes daily quality snapshots.
type DataQualityRepository struct {
	pool *pgxpool.Pool
}

func NewDataQualityRepository(pool *pgxpool.Pool) *DataQualityRepository {
	return &DataQualityRepository{pool: pool}
}

// ComputeCounts runs the snapshot base query. Coverage and sanity counts
// are taken on the latest available price/metrics dates in the conformed
// store, not on the snapshot's calendar date: a weekend or pre-ingest run
// reports the most recent trading day's coverage instead of a zeroed row.
// It returns raw counts only; percentage derivation happens in the
// aggregator. A failure here must leave data_quality_daily untouched, so
// this method never writes.
func (r *DataQualityRepository) ComputeCounts(ctx context.Context, dqDate time.Time) (*contracts.DataQualitySnapshot, error) {
	snap := &contracts.DataQualitySnapshot{DQDate: dqDate}
	err := r.pool.QueryRow(ctx, `
		WITH universe AS (
			SELECT ticker FROM warehouse.dim_company
		),
		latest_price_day AS (
			SELECT MAX(full_date) AS d FROM warehouse.v_price_series
		),
		latest_metrics_day AS (
			SELECT MAX(full_date) AS d FROM warehouse.v_metrics_series
		),
		price_latest AS (
			SELECT DISTINCT ticker FROM warehouse.v_price_series
			WHERE full_date = (SELECT d FROM latest_price_day)
		),
		metrics_latest AS (
			SELECT ticker, ma200, rsi14 FROM warehouse.v_metrics_series
			WHERE full_date = (SELECT d FROM latest_metrics_day)
		),
		dup_prices AS (
			SELECT COALESCE(SUM(cnt - 1), 0) AS n FROM (
				SELECT COUNT(*) AS cnt FROM warehouse.fact_prices
				GROUP BY company_id, date_id HAVING COUNT(*) > 1
			) d
		),
		dup_metrics AS (
			SELECT COALESCE(SUM(cnt - 1), 0) AS n FROM (
				SELECT COUNT(*) AS cnt FROM warehouse.fact_metrics
				GROUP BY company_id, date_id HAVING COUNT(*) > 1
			) d
		)
		SELECT
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM universe),
			(SELECT COUNT(*) FROM price_latest),
			(SELECT COUNT(*) FROM universe u WHERE NOT EXISTS (SELECT 1 FROM price_latest p WHERE p.ticker = u.ticker)),
			(SELECT COUNT(*) FROM metrics_latest),
			(SELECT COUNT(*) FROM universe u WHERE NOT EXISTS (SELECT 1 FROM metrics_latest m WHERE m.ticker = u.ticker)),
			(SELECT COUNT(*) FROM metrics_latest WHERE ma200 IS NOT NULL),
			(SELECT COUNT(*) FROM metrics_latest WHERE rsi14 IS NOT NULL),
			(SELECT n FROM dup_prices),
			(SELECT n FROM dup_metrics),
			(SELECT COUNT(*) FROM warehouse.v_price_series
				WHERE full_date = (SELECT d FROM latest_price_day) AND close_price <= 0),
			(SELECT COUNT(*) FROM warehouse.v_price_series
				WHERE full_date = (SELECT d FROM latest_price_day) AND volume = 0)`).
		Scan(
			&snap.UniverseCompanies,
			&snap.CompaniesInDim,
			&snap.TickersWithPriceToday,
			&snap.TickersMissingPriceToday,
			&snap.TickersWithMetricsToday,
			&snap.TickersMissingMetricsToday,
			&snap.TickersWithMA200Today,
			&snap.TickersWithRSIToday,
			&snap.DuplicatesFactPrices,
			&snap.DuplicatesFactMetrics,
			&snap.NonpositivePricesToday,
			&snap.ZeroVolumeToday,
		)
	if err != nil {
		return nil, fmt.Errorf("compute quality counts for %s: %w", dqDate.Format("2006-01-02"), err)
	}
	return snap, nil
}

// Upsert writes one snapshot keyed on dq_date; re-running on the same day
// overwrites the existing row.
func (r *DataQualityRepository) Upsert(ctx context.Context, s contracts.DataQualitySnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO data_quality_daily (
			dq_date, universe_companies, companies_in_dim,
			tickers_with_price_today, tickers_missing_price_today, pct_with_price_today,
			tickers_with_metrics_today, tickers_missing_metrics_today, pct_with_metrics_today,
			tickers_with_ma200_today, pct_with_ma200_today,
			tickers_with_rsi_today, pct_with_rsi_today,
			duplicates_fact_prices, duplicates_fact_metrics,
			nonpositive_prices_today, zero_volume_today, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (dq_date) DO UPDATE SET
			created_at = NOW(),
			universe_companies = EXCLUDED.universe_companies,
			companies_in_dim = EXCLUDED.companies_in_dim,
			tickers_with_price_today = EXCLUDED.tickers_with_price_today,
			tickers_missing_price_today = EXCLUDED.tickers_missing_price_today,
			pct_with_price_today = EXCLUDED.pct_with_price_today,
			tickers_with_metrics_today = EXCLUDED.tickers_with_metrics_today,
			tickers_missing_metrics_today = EXCLUDED.tickers_missing_metrics_today,
			pct_with_metrics_today = EXCLUDED.pct_with_metrics_today,
			tickers_with_ma200_today = EXCLUDED.tickers_with_ma200_today,
			pct_with_ma200_today = EXCLUDED.pct_with_ma200_today,
			tickers_with_rsi_today = EXCLUDED.tickers_with_rsi_today,
			pct_with_rsi_today = EXCLUDED.pct_with_rsi_today,
			duplicates_fact_prices = EXCLUDED.duplicates_fact_prices,
			duplicates_fact_metrics = EXCLUDED.duplicates_fact_metrics,
			nonpositive_prices_today = EXCLUDED.nonpositive_prices_today,
			zero_volume_today = EXCLUDED.zero_volume_today,
			notes = EXCLUDED.notes`,
		s.DQDate, s.UniverseCompanies, s.CompaniesInDim,
		s.TickersWithPriceToday, s.TickersMissingPriceToday, s.PctWithPriceToday,
		s.TickersWithMetricsToday, s.TickersMissingMetricsToday, s.PctWithMetricsToday,
		s.TickersWithMA200Today, s.PctWithMA200Today,
		s.TickersWithRSIToday, s.PctWithRSIToday,
		s.DuplicatesFactPrices, s.DuplicatesFactMetrics,
		s.NonpositivePricesToday, s.ZeroVolumeToday, s.Notes)
	if err != nil {
		return fmt.Errorf("upsert quality snapshot %s: %w", s.DQDate.Format("2006-01-02"), err)
	}
	return nil
}

// GetByDate reads back the snapshot for one date.
func (r *DataQualityRepository) GetByDate(ctx context.Context, dqDate time.Time) (*contracts.DataQualitySnapshot, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectSnapshot+` WHERE dq_date = $1`, dqDate))
}

// Latest returns the most recent snapshot.
func (r *DataQualityRepository) Latest(ctx context.Context) (*contracts.DataQualitySnapshot, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectSnapshot+` ORDER BY dq_date DESC LIMIT 1`))
}

// History returns up to limit snapshots, newest first.
func (r *DataQualityRepository) History(ctx context.Context, limit int) ([]contracts.DataQualitySnapshot, error) {
	rows, err := r.pool.Query(ctx, selectSnapshot+` ORDER BY dq_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("quality history: %w", err)
	}
	defer rows.Close()

	var out []contracts.DataQualitySnapshot
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const selectSnapshot = `
	SELECT dq_date, created_at, universe_companies, companies_in_dim,
		tickers_with_price_today, tickers_missing_price_today, pct_with_price_today,
		tickers_with_metrics_today, tickers_missing_metrics_today, pct_with_metrics_today,
		tickers_with_ma200_today, pct_with_ma200_today,
		tickers_with_rsi_today, pct_with_rsi_today,
		duplicates_fact_prices, duplicates_fact_metrics,
		nonpositive_prices_today, zero_volume_today, notes
	FROM data_quality_daily`

func (r *DataQualityRepository) scanOne(row pgx.Row) (*contracts.DataQualitySnapshot, error) {
	s, err := r.scanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quality snapshot: %w", err)
	}
	return s, nil
}

func (r *DataQualityRepository) scanRow(row pgx.Row) (*contracts.DataQualitySnapshot, error) {
	var s contracts.DataQualitySnapshot
	err := row.Scan(
		&s.DQDate, &s.CreatedAt, &s.UniverseCompanies, &s.CompaniesInDim,
		&s.TickersWithPriceToday, &s.TickersMissingPriceToday, &s.PctWithPriceToday,
		&s.TickersWithMetricsToday, &s.TickersMissingMetricsToday, &s.PctWithMetricsToday,
		&s.TickersWithMA200Today, &s.PctWithMA200Today,
		&s.TickersWithRSIToday, &s.PctWithRSIToday,
		&s.DuplicatesFactPrices, &s.DuplicatesFactMetrics,
		&s.NonpositivePricesToday, &s.ZeroVolumeToday, &s.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
