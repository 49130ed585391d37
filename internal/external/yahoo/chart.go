package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

// chartResponse mirrors the v8 chart payload. Only the fields the pipeline
// consumes are declared; everything else is ignored.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// DailyBars fetches up to days of daily close bars for symbol. Bars with a
// missing or non-finite close are dropped; a missing volume becomes zero.
func (c *Client) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%dd&interval=1d&events=div",
		c.chartBaseURL, url.PathEscape(symbol), days)

	resp, err := c.http.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("chart for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chart body for %s: %w", symbol, err)
	}
	bars, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("fetched daily bars")
	return bars, nil
}

// parseChart decodes a chart payload into clean daily bars. The provider
// reports bar timestamps in exchange-local trading time; the calendar date
// is derived by applying the meta gmtoffset before truncating.
func parseChart(body []byte) ([]Bar, error) {
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if cr.Chart.Error != nil {
		if cr.Chart.Error.Code == "Not Found" {
			return nil, ErrSymbolNotFound
		}
		return nil, fmt.Errorf("chart error: %s (%s)", cr.Chart.Error.Description, cr.Chart.Error.Code)
	}
	if len(cr.Chart.Result) == 0 {
		return nil, ErrEmptySeries
	}

	res := cr.Chart.Result[0]
	if len(res.Timestamp) == 0 || len(res.Indicators.Quote) == 0 {
		return nil, ErrEmptySeries
	}
	quote := res.Indicators.Quote[0]
	if len(quote.Close) != len(res.Timestamp) {
		return nil, fmt.Errorf("chart shape mismatch: %d timestamps, %d closes",
			len(res.Timestamp), len(quote.Close))
	}

	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePtr := quote.Close[i]
		if closePtr == nil || math.IsNaN(*closePtr) || math.IsInf(*closePtr, 0) {
			continue
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		local := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		bars = append(bars, Bar{Date: date, Close: *closePtr, Volume: volume})
	}
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	return bars, nil
}
