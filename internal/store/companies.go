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

// CompanyRepository manages the companies table and daily universe
// membership snapshots.
type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// Upsert inserts or refreshes one company. Descriptive fields follow the
// latest scrape; the ticker itself is never rewritten.
func (r *CompanyRepository) Upsert(ctx context.Context, c contracts.Company) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO companies (ticker, name, sector, industry)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry`,
		c.Ticker, c.Name, c.Sector, c.Industry)
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", c.Ticker, err)
	}
	return nil
}

// Tickers returns all known raw tickers in stable order.
func (r *CompanyRepository) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT ticker FROM companies ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
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

// Get returns one company, or nil when the ticker is unknown. Query failures
// are returned, not folded into the not-found result.
func (r *CompanyRepository) Get(ctx context.Context, ticker string) (*contracts.Company, error) {
	var c contracts.Company
	err := r.pool.QueryRow(ctx, `
		SELECT ticker, COALESCE(name, ''), COALESCE(sector, ''), COALESCE(industry, '')
		FROM companies WHERE ticker = $1`, ticker).
		Scan(&c.Ticker, &c.Name, &c.Sector, &c.Industry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", ticker, err)
	}
	return &c, nil
}

// RecordMembership writes the daily membership snapshot for one universe.
// Re-running on the same day overwrites rather than duplicating.
func (r *CompanyRepository) RecordMembership(ctx context.Context, universeCode string, asOf time.Time, tickers []string, source string) error {
	for _, t := range tickers {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO universe_membership_daily (universe_code, as_of_date, ticker_raw, source, is_member)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (universe_code, as_of_date, ticker_raw) DO UPDATE SET
				source = EXCLUDED.source,
				is_member = TRUE`,
			universeCode, asOf, t, source)
		if err != nil {
			return fmt.Errorf("record membership %s/%s: %w", universeCode, t, err)
		}
	}
	return nil
}

// Count returns the number of tracked companies.
func (r *CompanyRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	return n, err
}
