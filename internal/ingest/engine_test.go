package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
)

func TestFetchedDates(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3})
	dates := fetchedDates(bars)

	require.Len(t, dates, 3)
	assert.True(t, dates["2024-01-01"])
	assert.True(t, dates["2024-01-03"])
	assert.False(t, dates["2024-01-04"])
}

func TestIndicatorRowsForDatesFiltersToFetchWindow(t *testing.T) {
	// 60 days of history recomputed, but only the last 5 dates were fetched:
	// only those 5 rows may be written back.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	history := barsFromCloses(closes)
	rows := ComputeIndicators(history)

	fetched := fetchedDates(history[55:])
	kept := indicatorRowsForDates(rows, fetched)

	require.Len(t, kept, 5)
	for _, r := range kept {
		assert.True(t, fetched[r.TradeDate.Format("2006-01-02")])
		require.NotNil(t, r.MA50, "rows inside the fetch window still see the full history")
	}
}

func TestIndicatorRowsForDatesEmptyFetch(t *testing.T) {
	rows := ComputeIndicators(barsFromCloses([]float64{1, 2, 3}))
	kept := indicatorRowsForDates(rows, map[string]bool{})
	assert.Empty(t, kept)
}

func TestIndicatorRowsForDatesMatchesOnCalendarDate(t *testing.T) {
	// A stored row whose timestamp differs in time-of-day still matches on
	// its calendar date.
	rows := []contracts.IndicatorRow{{
		Ticker:    "TEST",
		TradeDate: time.Date(2024, 1, 2, 13, 30, 0, 0, time.UTC),
	}}
	kept := indicatorRowsForDates(rows, map[string]bool{"2024-01-02": true})
	assert.Len(t, kept, 1)
}
