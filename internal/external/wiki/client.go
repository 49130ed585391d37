package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/httputil"
	"github.com/marketlens/screener/pkg/logger"
)

// ErrNoConstituentsTable indicates no table with a Symbol column was found
// on the page. Page layout changes surface as this error instead of a
// silently wrong universe.
var ErrNoConstituentsTable = errors.New("no constituents table found")

// Client scrapes index constituent lists from Wikipedia.
type Client struct {
	http     *httputil.Client
	sp500URL string
	tsx60URL string
	logger   *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		http:     httputil.NewWithTimeout(log, 30*time.Second),
		sp500URL: cfg.Wiki.SP500URL,
		tsx60URL: cfg.Wiki.TSX60URL,
		logger:   log.WithField("component", "wiki"),
	}
}

// SP500Constituents scrapes the current S&P 500 member list.
func (c *Client) SP500Constituents(ctx context.Context) ([]contracts.Company, error) {
	return c.scrape(ctx, c.sp500URL)
}

// TSX60Constituents scrapes the current S&P/TSX 60 member list.
func (c *Client) TSX60Constituents(ctx context.Context) ([]contracts.Company, error) {
	return c.scrape(ctx, c.tsx60URL)
}

func (c *Client) scrape(ctx context.Context, pageURL string) ([]contracts.Company, error) {
	resp, err := c.http.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	companies, err := parseConstituents(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	c.logger.WithFields(map[string]interface{}{
		"url":       pageURL,
		"companies": len(companies),
	}).Info("scraped constituents")
	return companies, nil
}

// parseConstituents locates the constituents table by its header row rather
// than by position; Wikipedia pages reorder tables without notice.
func parseConstituents(doc *goquery.Document) ([]contracts.Company, error) {
	var companies []contracts.Company
	found := false

	doc.Find("table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := headerColumns(table)
		symbolIdx, ok := cols["symbol"]
		if !ok {
			if symbolIdx, ok = cols["ticker"]; !ok {
				return true // keep looking
			}
		}
		nameIdx := firstOf(cols, "security", "company", "name")
		sectorIdx := firstOf(cols, "gics sector", "sector")
		industryIdx := firstOf(cols, "gics sub-industry", "industry")

		table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= symbolIdx {
				return // header or malformed row
			}
			ticker := cleanCell(cells.Eq(symbolIdx))
			if ticker == "" {
				return
			}
			c := contracts.Company{Ticker: ticker}
			if nameIdx >= 0 && cells.Length() > nameIdx {
				c.Name = cleanCell(cells.Eq(nameIdx))
			}
			if sectorIdx >= 0 && cells.Length() > sectorIdx {
				c.Sector = cleanCell(cells.Eq(sectorIdx))
			}
			if industryIdx >= 0 && cells.Length() > industryIdx {
				c.Industry = cleanCell(cells.Eq(industryIdx))
			}
			companies = append(companies, c)
		})
		found = true
		return false
	})

	if !found {
		return nil, ErrNoConstituentsTable
	}
	if len(companies) == 0 {
		return nil, errors.New("constituents table has no rows")
	}
	return companies, nil
}

// headerColumns maps lowercased header text to column index.
func headerColumns(table *goquery.Selection) map[string]int {
	cols := make(map[string]int)
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		key := strings.ToLower(strings.TrimSpace(th.Text()))
		key = strings.TrimSuffix(key, "[1]")
		if _, exists := cols[key]; !exists {
			cols[key] = i
		}
	})
	return cols
}

func firstOf(cols map[string]int, names ...string) int {
	for _, n := range names {
		if idx, ok := cols[n]; ok {
			return idx
		}
	}
	return -1
}

func cleanCell(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
