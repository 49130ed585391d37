package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Loaded once at process start; immutable afterwards.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis (optional symbol-mapping cache)
	Redis RedisConfig

	// External providers
	Yahoo YahooConfig
	Wiki  WikiConfig

	// Ingestion
	Fetch FetchConfig

	// Retention
	RetentionDays      int // per-ticker price/metric history window, in days
	FundamentalsMaxAge int // days before a company's fundamentals are stale

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// YahooConfig holds the market-data provider configuration.
type YahooConfig struct {
	ChartBaseURL string
	QuoteBaseURL string
}

// WikiConfig holds the universe-constituents source configuration.
type WikiConfig struct {
	SP500URL string
	TSX60URL string
}

// FetchConfig holds time-series fetch tuning.
type FetchConfig struct {
	WindowDays    int           // trailing calendar days to request
	Workers       int           // parallel fetch workers
	RatePerSecond float64       // upstream request rate limit
	SymbolTimeout time.Duration // per-symbol request timeout
	HistoryWindow int           // trailing observations loaded for recompute
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			ChartBaseURL: getEnv("YAHOO_CHART_BASE_URL", "https://query1.finance.yahoo.com"),
			QuoteBaseURL: getEnv("YAHOO_QUOTE_BASE_URL", "https://query2.finance.yahoo.com"),
		},

		Wiki: WikiConfig{
			SP500URL: getEnv("WIKI_SP500_URL", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"),
			TSX60URL: getEnv("WIKI_TSX60_URL", "https://en.wikipedia.org/wiki/S%26P/TSX_60"),
		},

		Fetch: FetchConfig{
			WindowDays:    getEnvAsInt("FETCH_WINDOW_DAYS", 14),
			Workers:       getEnvAsInt("FETCH_WORKERS", 5),
			RatePerSecond: getEnvAsFloat("FETCH_RATE_PER_SECOND", 4.0),
			SymbolTimeout: getEnvAsDuration("FETCH_SYMBOL_TIMEOUT", "20s"),
			HistoryWindow: getEnvAsInt("FETCH_HISTORY_WINDOW", 500),
		},

		RetentionDays:      getEnvAsInt("RETENTION_DAYS", 400),
		FundamentalsMaxAge: getEnvAsInt("FUNDAMENTALS_MAX_AGE_DAYS", 90),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Fetch.Workers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be >= 1")
	}
	if c.Fetch.WindowDays < 1 {
		return fmt.Errorf("FETCH_WINDOW_DAYS must be >= 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
