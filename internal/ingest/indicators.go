package ingest

import (
	"github.com/marketlens/screener/internal/contracts"
)

const (
	ma50Window  = 50
	ma200Window = 200
	rsiPeriod   = 14
)

// ComputeIndicators derives rolling indicators for every bar in an
// ascending-date series. Indicator fields stay nil until their lookback
// window is filled; a 49-bar history yields no ma50 anywhere.
func ComputeIndicators(bars []contracts.PriceBar) []contracts.IndicatorRow {
	rows := make([]contracts.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = contracts.IndicatorRow{
			Ticker:    b.Ticker,
			TradeDate: b.TradeDate,
			MA50:      simpleMean(bars, i, ma50Window),
			MA200:     simpleMean(bars, i, ma200Window),
			RSI14:     rsi(bars, i, rsiPeriod),
		}
	}
	return rows
}

// simpleMean averages the window closes ending at index i, or nil while the
// window is not yet filled.
func simpleMean(bars []contracts.PriceBar, i, window int) *float64 {
	if i+1 < window {
		return nil
	}
	var sum float64
	for j := i - window + 1; j <= i; j++ {
		sum += bars[j].Close
	}
	v := sum / float64(window)
	return &v
}

// rsi computes the simple-mean RSI over the trailing period of day-over-day
// changes. When the window holds no losses the value is exactly 100.
func rsi(bars []contracts.PriceBar, i, period int) *float64 {
	if i < period {
		return nil
	}
	var gains, losses float64
	for j := i - period + 1; j <= i; j++ {
		diff := bars[j].Close - bars[j-1].Close
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		v := 100.0
		return &v
	}
	rs := avgGain / avgLoss
	v := 100.0 - 100.0/(1.0+rs)
	return &v
}
