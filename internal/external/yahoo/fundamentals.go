package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/marketlens/screener/internal/contracts"
)

// rawValue is Yahoo's number envelope: {"raw": 123.4, "fmt": "123.40"}.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v *rawValue) float() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

func (v *rawValue) int() *int64 {
	if v == nil || v.Raw == nil {
		return nil
	}
	n := int64(*v.Raw)
	return &n
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *struct {
				MarketCap     *rawValue `json:"marketCap"`
				TrailingPE    *rawValue `json:"trailingPE"`
				DividendYield *rawValue `json:"dividendYield"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics *struct {
				TrailingEPS *rawValue `json:"trailingEps"`
				ForwardEPS  *rawValue `json:"forwardEps"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				TotalRevenue      *rawValue `json:"totalRevenue"`
				NetIncomeToCommon *rawValue `json:"netIncomeToCommon"`
				FreeCashflow      *rawValue `json:"freeCashflow"`
				DebtToEquity      *rawValue `json:"debtToEquity"`
				ReturnOnEquity    *rawValue `json:"returnOnEquity"`
			} `json:"financialData"`
		} `json:"result"`
		Error *chartError `json:"error"`
	} `json:"quoteSummary"`
}

// CompanySnapshot bundles one fundamentals pull for a symbol.
type CompanySnapshot struct {
	Fundamentals contracts.Fundamentals
	Financials   contracts.Financials
}

// QuoteSummary fetches the fundamentals and financial-statement snapshot for
// one symbol, stamped with today's date.
func (c *Client) QuoteSummary(ctx context.Context, symbol string) (*CompanySnapshot, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,defaultKeyStatistics,financialData",
		c.quoteBaseURL, url.PathEscape(symbol))

	resp, err := c.http.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("quote summary for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("quote summary for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var qr quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode quote summary for %s: %w", symbol, err)
	}
	if qr.QuoteSummary.Error != nil {
		if qr.QuoteSummary.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("quote summary for %s: %s", symbol, qr.QuoteSummary.Error.Description)
	}
	if len(qr.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	res := qr.QuoteSummary.Result[0]
	today := time.Now().UTC().Truncate(24 * time.Hour)
	snap := &CompanySnapshot{
		Fundamentals: contracts.Fundamentals{ReportDate: today},
		Financials:   contracts.Financials{ReportDate: today},
	}
	if sd := res.SummaryDetail; sd != nil {
		snap.Fundamentals.MarketCap = sd.MarketCap.int()
		snap.Fundamentals.PERatio = sd.TrailingPE.float()
		snap.Fundamentals.DividendYield = sd.DividendYield.float()
	}
	if ks := res.DefaultKeyStatistics; ks != nil {
		snap.Fundamentals.TrailingEPS = ks.TrailingEPS.float()
		snap.Fundamentals.ForwardEPS = ks.ForwardEPS.float()
	}
	if fd := res.FinancialData; fd != nil {
		snap.Financials.Revenue = fd.TotalRevenue.int()
		snap.Financials.NetIncome = fd.NetIncomeToCommon.int()
		snap.Financials.FreeCashFlow = fd.FreeCashflow.int()
		snap.Financials.DebtToEquity = fd.DebtToEquity.float()
		snap.Financials.ROE = fd.ReturnOnEquity.float()
	}
	return snap, nil
}
