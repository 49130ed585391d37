package contracts

import "time"

// Company is a member of the tracked universe. The raw ticker is the stable
// internal key; it is created by the universe refresh and never mutated.
type Company struct {
	Ticker   string
	Name     string
	Sector   string
	Industry string
}

// SymbolMapping maps an internal raw ticker to the external provider symbol.
// Mutable: the external symbol may be corrected after a failed fetch
// (last write wins, timestamped).
type SymbolMapping struct {
	TickerRaw      string
	TickerExternal string
	Exchange       string
	Currency       string
	UpdatedAt      time.Time
}

// PriceBar is one daily close observation for a ticker.
// Unique on (ticker, trade date); re-fetch overwrites, never duplicates.
type PriceBar struct {
	Ticker    string
	TradeDate time.Time
	Close     float64
	Volume    int64
}

// IndicatorRow holds derived rolling indicators for one ticker and date.
// Fields are nil while the lookback window is not yet filled.
type IndicatorRow struct {
	Ticker    string
	TradeDate time.Time
	MA50      *float64
	MA200     *float64
	RSI14     *float64
}

// SeriesPoint is one joined price+indicator observation for chart queries.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	Close  *float64  `json:"close"`
	Volume *int64    `json:"volume"`
	MA50   *float64  `json:"ma50"`
	MA200  *float64  `json:"ma200"`
	RSI14  *float64  `json:"rsi14"`
}

// Fundamentals is a point-in-time fundamentals snapshot for a company.
type Fundamentals struct {
	Ticker        string
	ReportDate    time.Time
	MarketCap     *int64
	PERatio       *float64
	TrailingEPS   *float64
	ForwardEPS    *float64
	DividendYield *float64
}

// Financials is a point-in-time financial-statement snapshot for a company.
type Financials struct {
	Ticker       string
	ReportDate   time.Time
	Revenue      *int64
	NetIncome    *int64
	FreeCashFlow *int64
	DebtToEquity *float64
	ROE          *float64
}
