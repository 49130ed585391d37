package dataquality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marketlens/screener/internal/contracts"
)

func TestPct(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		universe int
		want     float64
	}{
		{"three quarters", 150, 200, 75.0},
		{"full coverage", 200, 200, 100.0},
		{"no coverage", 0, 200, 0.0},
		{"empty universe", 150, 0, 0.0},
		{"zero over zero", 0, 0, 0.0},
		{"rounds to two places", 1, 3, 33.33},
		{"rounds up", 2, 3, 66.67},
		{"single member", 1, 503, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pct(tt.count, tt.universe))
		})
	}
}

func TestApplyPercentagesUsesCompanyDimension(t *testing.T) {
	snap := &contracts.DataQualitySnapshot{
		UniverseCompanies:       563,
		CompaniesInDim:          200,
		TickersWithPriceToday:   150,
		TickersWithMetricsToday: 100,
		TickersWithMA200Today:   50,
		TickersWithRSIToday:     200,
	}

	applyPercentages(snap)

	assert.Equal(t, 75.0, snap.PctWithPriceToday)
	assert.Equal(t, 50.0, snap.PctWithMetricsToday)
	assert.Equal(t, 25.0, snap.PctWithMA200Today)
	assert.Equal(t, 100.0, snap.PctWithRSIToday)
}

func TestApplyPercentagesEmptyDimension(t *testing.T) {
	snap := &contracts.DataQualitySnapshot{TickersWithPriceToday: 10}
	applyPercentages(snap)
	assert.Equal(t, 0.0, snap.PctWithPriceToday)
}

func TestTodayIsLocalMidnight(t *testing.T) {
	got := Today()
	now := time.Now()

	assert.Equal(t, now.Location(), got.Location())
	assert.Zero(t, got.Hour())
	assert.Zero(t, got.Minute())
	assert.Zero(t, got.Second())
	assert.Zero(t, got.Nanosecond())

	y1, m1, d1 := got.Date()
	y2, m2, d2 := now.Date()
	assert.Equal(t, [3]int{y2, int(m2), d2}, [3]int{y1, int(m1), d1})
}
