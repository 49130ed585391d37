package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/dataquality"
	"github.com/marketlens/screener/internal/external/wiki"
	"github.com/marketlens/screener/internal/external/yahoo"
	"github.com/marketlens/screener/internal/fundamentals"
	"github.com/marketlens/screener/internal/ingest"
	"github.com/marketlens/screener/internal/resolver"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/internal/universe"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/database"
	"github.com/marketlens/screener/pkg/logger"
	cacheredis "github.com/marketlens/screener/pkg/redis"
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Daily equity screener for the S&P 500 and TSX 60",
	Long: `screener ingests daily prices for the tracked universe, derives rolling
indicators, snapshots data quality, and serves rankings over HTTP.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		apiCmd,
		pipelineCmd,
		universeCmd,
		fundamentalsCmd,
		warehouseCmd,
		dqCmd,
		migrateCmd,
		seedCmd,
		schedulerCmd,
	)
}

// app bundles the wired dependencies shared by every command.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *cacheredis.Client

	companies  *store.CompanyRepository
	mappings   *store.SymbolMappingRepository
	prices     *store.PriceRepository
	indicators *store.IndicatorRepository
	funds      *store.FundamentalsRepository
	weights    *store.WeightSetRepository
	quality    *store.DataQualityRepository
	warehouse  *store.WarehouseRepository

	resolver   *resolver.Resolver
	yahoo      *yahoo.Client
	wiki       *wiki.Client
	engine     *ingest.Engine
	aggregator *dataquality.Aggregator
	refresher  *universe.Refresher
	collector  *fundamentals.Collector
}

// newApp loads config and wires the full dependency graph. Every command
// goes through here so they all share one pool and one logger setup.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := cacheredis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	cache := cacheredis.NewCache(rc, "screener")

	a := &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		redis: rc,

		companies:  store.NewCompanyRepository(db.Pool),
		mappings:   store.NewSymbolMappingRepository(db.Pool),
		prices:     store.NewPriceRepository(db.Pool),
		indicators: store.NewIndicatorRepository(db.Pool),
		funds:      store.NewFundamentalsRepository(db.Pool),
		weights:    store.NewWeightSetRepository(db.Pool),
		quality:    store.NewDataQualityRepository(db.Pool),
		warehouse:  store.NewWarehouseRepository(db.Pool),
	}

	a.yahoo = yahoo.NewClient(cfg, log)
	a.wiki = wiki.NewClient(cfg, log)
	a.resolver = resolver.New(a.mappings, cache, log)

	fetcher := ingest.NewFetcher(cfg, a.yahoo, a.resolver, log)
	a.engine = ingest.NewEngine(db.Pool, fetcher, a.prices, a.indicators,
		cfg.Fetch.Workers, cfg.Fetch.HistoryWindow, log)
	a.aggregator = dataquality.New(a.quality, log)
	a.refresher = universe.NewRefresher(a.wiki, a.companies, a.mappings, log)
	a.collector = fundamentals.NewCollector(cfg, a.yahoo, a.resolver, a.funds, log)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
