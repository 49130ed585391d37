package yahoo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChart(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": [{
				"meta": {"symbol": "AAPL", "currency": "USD", "gmtoffset": -14400},
				"timestamp": [1717075800, 1717162200, 1717248600],
				"indicators": {"quote": [{
					"close": [191.29, null, 194.03],
					"volume": [75158300, null, 50080500]
				}]}
			}],
			"error": null
		}
	}`)

	bars, err := parseChart(body)
	require.NoError(t, err)
	require.Len(t, bars, 2, "null close row must be dropped")

	assert.Equal(t, 191.29, bars[0].Close)
	assert.Equal(t, int64(75158300), bars[0].Volume)
	assert.Equal(t, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), bars[0].Date)

	assert.Equal(t, 194.03, bars[1].Close)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), bars[1].Date)
}

func TestParseChartMissingVolume(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": [{
				"meta": {"gmtoffset": 0},
				"timestamp": [1717075800],
				"indicators": {"quote": [{"close": [10.5], "volume": [null]}]}
			}],
			"error": null
		}
	}`)

	bars, err := parseChart(body)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, int64(0), bars[0].Volume, "missing volume defaults to zero")
}

func TestParseChartNotFound(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": null,
			"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
		}
	}`)

	_, err := parseChart(body)
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}

func TestParseChartEmptySeries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no results", `{"chart": {"result": [], "error": null}}`},
		{"no timestamps", `{"chart": {"result": [{"meta": {}, "timestamp": [], "indicators": {"quote": [{"close": [], "volume": []}]}}], "error": null}}`},
		{"all closes null", `{"chart": {"result": [{"meta": {}, "timestamp": [1717075800], "indicators": {"quote": [{"close": [null], "volume": [100]}]}}], "error": null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseChart([]byte(tt.body))
			assert.True(t, errors.Is(err, ErrEmptySeries))
		})
	}
}

func TestParseChartShapeMismatch(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": [{
				"meta": {},
				"timestamp": [1717075800, 1717162200],
				"indicators": {"quote": [{"close": [10.5], "volume": [100]}]}
			}],
			"error": null
		}
	}`)

	_, err := parseChart(body)
	assert.Error(t, err)
}
