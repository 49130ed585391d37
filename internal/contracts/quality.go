package contracts

import "time"

// DataQualitySnapshot is the daily ingestion quality snapshot. One row per
// calendar day, keyed on DQDate; re-running on the same day overwrites the
// row, history is append-only across days.
type DataQualitySnapshot struct {
	DQDate    time.Time `json:"dq_date"`
	CreatedAt time.Time `json:"created_at"`

	UniverseCompanies int `json:"universe_companies"`
	CompaniesInDim    int `json:"companies_in_dim"`

	TickersWithPriceToday    int     `json:"tickers_with_price_today"`
	TickersMissingPriceToday int     `json:"tickers_missing_price_today"`
	PctWithPriceToday        float64 `json:"pct_with_price_today"`

	TickersWithMetricsToday    int     `json:"tickers_with_metrics_today"`
	TickersMissingMetricsToday int     `json:"tickers_missing_metrics_today"`
	PctWithMetricsToday        float64 `json:"pct_with_metrics_today"`

	TickersWithMA200Today int     `json:"tickers_with_ma200_today"`
	PctWithMA200Today     float64 `json:"pct_with_ma200_today"`

	TickersWithRSIToday int     `json:"tickers_with_rsi_today"`
	PctWithRSIToday     float64 `json:"pct_with_rsi_today"`

	DuplicatesFactPrices  int `json:"duplicates_fact_prices"`
	DuplicatesFactMetrics int `json:"duplicates_fact_metrics"`

	NonpositivePricesToday int `json:"nonpositive_prices_today"`
	ZeroVolumeToday        int `json:"zero_volume_today"`

	Notes *string `json:"notes,omitempty"`
}
