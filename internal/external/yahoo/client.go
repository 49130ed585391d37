package yahoo

import (
	"errors"
	"time"

	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/httputil"
	"github.com/marketlens/screener/pkg/logger"
)

// ErrSymbolNotFound indicates the provider does not know the requested
// symbol. The resolver uses it to decide whether a fallback attempt is
// worth making.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrEmptySeries indicates the provider knows the symbol but returned no
// usable daily bars for the requested window.
var ErrEmptySeries = errors.New("empty price series")

// Client talks to the public Yahoo Finance endpoints.
type Client struct {
	http         *httputil.Client
	chartBaseURL string
	quoteBaseURL string
	logger       *logger.Logger
}

// Bar is one provider-side daily observation. The ticker attached to it is
// whatever symbol was requested; callers re-key to the internal raw ticker.
type Bar struct {
	Date   time.Time
	Close  float64
	Volume int64
}

// NewClient creates a Yahoo client with retrying HTTP transport.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		http:         httputil.NewWithTimeout(log, 20*time.Second),
		chartBaseURL: cfg.Yahoo.ChartBaseURL,
		quoteBaseURL: cfg.Yahoo.QuoteBaseURL,
		logger:       log.WithField("component", "yahoo"),
	}
}
