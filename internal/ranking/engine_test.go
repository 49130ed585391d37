package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
)

func defaultWeights() map[string]float64 {
	return map[string]float64{
		"trend": 0.35, "rsi": 0.25, "value": 0.2, "size": 0.1, "yield": 0.1,
	}
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{"valid default", defaultWeights(), false},
		{"nil", nil, true},
		{"empty", map[string]float64{}, true},
		{"missing yield", map[string]float64{
			"trend": 0.4, "rsi": 0.3, "value": 0.2, "size": 0.1,
		}, true},
		{"extra factor permitted", map[string]float64{
			"trend": 0.3, "rsi": 0.2, "value": 0.2, "size": 0.1, "yield": 0.1, "momentum": 0.1,
		}, false},
		{"sum too low", map[string]float64{
			"trend": 0.2, "rsi": 0.2, "value": 0.2, "size": 0.1, "yield": 0.1,
		}, true},
		{"sum too high", map[string]float64{
			"trend": 0.5, "rsi": 0.3, "value": 0.2, "size": 0.2, "yield": 0.1,
		}, true},
		{"negative weight", map[string]float64{
			"trend": 0.7, "rsi": 0.25, "value": 0.2, "size": 0.1, "yield": -0.25,
		}, true},
		{"sum slightly under one", map[string]float64{
			"trend": 0.335, "rsi": 0.25, "value": 0.2, "size": 0.11, "yield": 0.1,
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if tt.wantErr {
				assert.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompositeScore(t *testing.T) {
	score := composite(defaultWeights(), contracts.FactorScores{
		Trend: 0.8, RSI: 0.5, Value: 0.6, Size: 0.4, Yield: 0.2,
	})
	assert.Equal(t, 0.595, score)
}

func TestCompositeRoundsToFourPlaces(t *testing.T) {
	score := composite(defaultWeights(), contracts.FactorScores{
		Trend: 1.0 / 3.0, RSI: 1.0 / 3.0, Value: 1.0 / 3.0, Size: 1.0 / 3.0, Yield: 1.0 / 3.0,
	})
	assert.Equal(t, 0.3333, score)
}

func rankRow(ticker, sector string, scores *contracts.FactorScores) contracts.RankingRow {
	row := contracts.RankingRow{Ticker: ticker, Sector: sector}
	if scores != nil {
		d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
		row.PriceDate = &d
		row.Scores = *scores
	}
	return row
}

func TestRankOrdersDescendingNullsLast(t *testing.T) {
	rows := []contracts.RankingRow{
		rankRow("LOW", "Tech", &contracts.FactorScores{Trend: 0.1}),
		rankRow("NODATA", "Tech", nil),
		rankRow("HIGH", "Tech", &contracts.FactorScores{Trend: 1, RSI: 1, Value: 1, Size: 1, Yield: 1}),
	}

	ws := contracts.WeightSet{Weights: defaultWeights()}
	ranked, err := Rank(rows, ws, Options{})
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "HIGH", ranked[0].Ticker)
	assert.Equal(t, "LOW", ranked[1].Ticker)
	assert.Equal(t, "NODATA", ranked[2].Ticker)
	assert.Nil(t, ranked[2].Score, "rows without price data stay unscored")

	require.NotNil(t, ranked[0].Score)
	assert.Equal(t, 1.0, *ranked[0].Score)
}

func TestRankTieBreaksByTicker(t *testing.T) {
	scores := &contracts.FactorScores{Trend: 0.5, RSI: 0.5, Value: 0.5, Size: 0.5, Yield: 0.5}
	rows := []contracts.RankingRow{
		rankRow("ZZZ", "", scores),
		rankRow("AAA", "", scores),
	}

	ranked, err := Rank(rows, contracts.WeightSet{Weights: defaultWeights()}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "AAA", ranked[0].Ticker)
	assert.Equal(t, "ZZZ", ranked[1].Ticker)
}

func TestRankSectorFilterAndLimit(t *testing.T) {
	rows := []contracts.RankingRow{
		rankRow("A", "Tech", &contracts.FactorScores{Trend: 0.9}),
		rankRow("B", "Energy", &contracts.FactorScores{Trend: 0.8}),
		rankRow("C", "Tech", &contracts.FactorScores{Trend: 0.7}),
		rankRow("D", "Tech", &contracts.FactorScores{Trend: 0.6}),
	}

	ranked, err := Rank(rows, contracts.WeightSet{Weights: defaultWeights()}, Options{Sector: "Tech", Limit: 2})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "A", ranked[0].Ticker)
	assert.Equal(t, "C", ranked[1].Ticker)
}

func TestRankRejectsInvalidWeights(t *testing.T) {
	rows := []contracts.RankingRow{rankRow("A", "", &contracts.FactorScores{})}
	_, err := Rank(rows, contracts.WeightSet{Weights: map[string]float64{"trend": 1.0}}, Options{})
	assert.Error(t, err)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	rows := []contracts.RankingRow{
		rankRow("A", "", &contracts.FactorScores{Trend: 0.9}),
	}
	_, err := Rank(rows, contracts.WeightSet{Weights: defaultWeights()}, Options{})
	require.NoError(t, err)
	assert.Nil(t, rows[0].Score, "input rows must stay unscored")
}
