package contracts

import "time"

// RequiredFactors is the factor set every weight set must cover.
var RequiredFactors = []string{"trend", "rsi", "value", "size", "yield"}

// WeightSet is an operator-edited ranking configuration. Exactly one row is
// active at a time; activation discipline is owned by the store, the ranking
// engine only reads the active row.
type WeightSet struct {
	Name      string                 `json:"name"`
	Weights   map[string]float64     `json:"weights"`
	Params    map[string]interface{} `json:"params"`
	Active    bool                   `json:"active"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// FactorScores holds the precomputed per-factor sub-scores for one ticker.
// They are produced by the conformed-store view layer and treated as opaque
// normalized inputs here.
type FactorScores struct {
	Trend float64 `json:"trend_score"`
	RSI   float64 `json:"rsi_score"`
	Value float64 `json:"value_score"`
	Size  float64 `json:"size_score"`
	Yield float64 `json:"yield_score"`
}

// RankingRow is a derived ranking result. Never persisted; recomputed on
// every query against the active weight set.
type RankingRow struct {
	Ticker        string                 `json:"ticker"`
	Name          string                 `json:"name,omitempty"`
	Sector        string                 `json:"sector,omitempty"`
	Industry      string                 `json:"industry,omitempty"`
	PriceDate     *time.Time             `json:"price_date"`
	ClosePrice    *float64               `json:"close_price"`
	RSI14         *float64               `json:"rsi14"`
	PERatio       *float64               `json:"pe_ratio"`
	DividendYield *float64               `json:"dividend_yield"`
	MarketCap     *int64                 `json:"market_cap"`
	Score         *float64               `json:"score"`
	Scores        FactorScores           `json:"scores"`
	Reasons       map[string]interface{} `json:"reasons"`
}
