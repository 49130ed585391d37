package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/ingest"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

var sectors = []string{
	"Information Technology", "Financials", "Health Care", "Energy",
	"Industrials", "Consumer Discretionary", "Consumer Staples",
	"Materials", "Utilities", "Real Estate", "Communication Services",
}

// Generator fills an empty database with a synthetic universe for local
// development: fake companies, random-walk price history, and the derived
// indicators. Never meant for production databases.
type Generator struct {
	pool       *pgxpool.Pool
	companies  *store.CompanyRepository
	prices     *store.PriceRepository
	indicators *store.IndicatorRepository
	funds      *store.FundamentalsRepository
	faker      *gofakeit.Faker
	logger     *logger.Logger
}

func NewGenerator(pool *pgxpool.Pool, companies *store.CompanyRepository, prices *store.PriceRepository, indicators *store.IndicatorRepository, funds *store.FundamentalsRepository, seed uint64, log *logger.Logger) *Generator {
	return &Generator{
		pool:       pool,
		companies:  companies,
		prices:     prices,
		indicators: indicators,
		funds:      funds,
		faker:      gofakeit.New(seed),
		logger:     log.WithField("component", "seed"),
	}
}

// Run seeds companyCount companies with historyDays of daily bars each.
func (g *Generator) Run(ctx context.Context, companyCount, historyDays int) error {
	g.logger.WithFields(map[string]interface{}{
		"companies": companyCount,
		"days":      historyDays,
	}).Info("seeding synthetic universe")

	used := make(map[string]bool)
	for i := 0; i < companyCount; i++ {
		ticker := g.uniqueTicker(used)
		company := contracts.Company{
			Ticker:   ticker,
			Name:     g.faker.Company(),
			Sector:   sectors[g.faker.IntRange(0, len(sectors)-1)],
			Industry: g.faker.BuzzWord(),
		}
		if err := g.companies.Upsert(ctx, company); err != nil {
			return err
		}
		if err := g.seedHistory(ctx, ticker, historyDays); err != nil {
			return err
		}
		if err := g.seedFundamentals(ctx, ticker); err != nil {
			return err
		}
	}

	g.logger.Info("seed complete")
	return nil
}

func (g *Generator) uniqueTicker(used map[string]bool) string {
	for {
		n := g.faker.IntRange(3, 4)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteByte(byte('A' + g.faker.IntRange(0, 25)))
		}
		t := b.String()
		if !used[t] {
			used[t] = true
			return t
		}
	}
}

// seedHistory writes a bounded random walk and its indicators in one
// transaction, mirroring how the real pipeline persists a ticker.
func (g *Generator) seedHistory(ctx context.Context, ticker string, days int) error {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	price := g.faker.Float64Range(10, 500)

	bars := make([]contracts.PriceBar, 0, days)
	for d := days - 1; d >= 0; d-- {
		date := end.AddDate(0, 0, -d)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		price *= 1 + g.faker.Float64Range(-0.03, 0.03)
		if price < 1 {
			price = 1
		}
		bars = append(bars, contracts.PriceBar{
			Ticker:    ticker,
			TradeDate: date,
			Close:     price,
			Volume:    int64(g.faker.IntRange(100_000, 50_000_000)),
		})
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed %s: %w", ticker, err)
	}
	defer tx.Rollback(ctx)

	if _, err := g.prices.UpsertBarsTx(ctx, tx, bars); err != nil {
		return err
	}
	if _, err := g.indicators.UpsertRowsTx(ctx, tx, ingest.ComputeIndicators(bars)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (g *Generator) seedFundamentals(ctx context.Context, ticker string) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	marketCap := int64(g.faker.IntRange(500, 2_000_000)) * 1_000_000
	pe := g.faker.Float64Range(4, 60)
	eps := g.faker.Float64Range(0.5, 25)
	divYield := g.faker.Float64Range(0, 0.06)

	return g.funds.UpsertFundamentals(ctx, contracts.Fundamentals{
		Ticker:        ticker,
		ReportDate:    today,
		MarketCap:     &marketCap,
		PERatio:       &pe,
		TrailingEPS:   &eps,
		DividendYield: &divYield,
	})
}
