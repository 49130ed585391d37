package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
)

func barsFromCloses(closes []float64) []contracts.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.PriceBar{
			Ticker:    "TEST",
			TradeDate: start.AddDate(0, 0, i),
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestMovingAverageNilUntilWindowFilled(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	assert.Nil(t, rows[48].MA50, "49 bars must not produce an ma50")
	require.NotNil(t, rows[49].MA50, "50th bar fills the window")
	// mean of 1..50
	assert.InDelta(t, 25.5, *rows[49].MA50, 1e-9)
	// mean of 2..51
	assert.InDelta(t, 26.5, *rows[50].MA50, 1e-9)

	assert.Nil(t, rows[59].MA200, "60 bars cannot fill a 200-day window")
}

func TestMA200RequiresFullWindow(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 10.0
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	assert.Nil(t, rows[198].MA200)
	require.NotNil(t, rows[199].MA200)
	assert.InDelta(t, 10.0, *rows[199].MA200, 1e-9)
}

func TestRSIRequiresFourteenDiffs(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i%3)
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	assert.Nil(t, rows[13].RSI14, "14 bars hold only 13 diffs")
	assert.NotNil(t, rows[14].RSI14)
}

func TestRSIAllGainsIsExactlyHundred(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	require.NotNil(t, rows[14].RSI14)
	assert.Equal(t, 100.0, *rows[14].RSI14, "zero average loss must yield exactly 100")
}

func TestRSIFlatSeriesIsHundred(t *testing.T) {
	// A flat series has zero gains and zero losses; the zero-loss rule wins.
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 50.0
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	require.NotNil(t, rows[14].RSI14)
	assert.Equal(t, 100.0, *rows[14].RSI14)
}

func TestRSIBalancedGainsAndLosses(t *testing.T) {
	// Alternate +1/-1 over the window: avg gain equals avg loss, RSI = 50.
	closes := make([]float64, 15)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	require.NotNil(t, rows[14].RSI14)
	assert.InDelta(t, 50.0, *rows[14].RSI14, 1e-9)
}

func TestRSIAllLossesIsZero(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rows := ComputeIndicators(barsFromCloses(closes))

	require.NotNil(t, rows[14].RSI14)
	assert.InDelta(t, 0.0, *rows[14].RSI14, 1e-9)
}

func TestComputeIndicatorsPreservesKeys(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3})
	rows := ComputeIndicators(bars)

	require.Len(t, rows, 3)
	for i := range rows {
		assert.Equal(t, bars[i].Ticker, rows[i].Ticker)
		assert.Equal(t, bars[i].TradeDate, rows[i].TradeDate)
	}
}
