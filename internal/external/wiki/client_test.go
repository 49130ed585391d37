package wiki

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseConstituentsSP500Layout(t *testing.T) {
	html := `
	<html><body>
	<table class="wikitable"><tbody>
		<tr><th>Date</th><th>Event</th></tr>
		<tr><td>2024-01-01</td><td>rebalance</td></tr>
	</tbody></table>
	<table class="wikitable"><tbody>
		<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th></tr>
		<tr><td>AAPL</td><td>Apple Inc.</td><td>Information Technology</td><td>Technology Hardware</td></tr>
		<tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td><td>Multi-Sector Holdings</td></tr>
	</tbody></table>
	</body></html>`

	companies, err := parseConstituents(docFromHTML(t, html))
	require.NoError(t, err)
	require.Len(t, companies, 2)

	assert.Equal(t, "AAPL", companies[0].Ticker)
	assert.Equal(t, "Apple Inc.", companies[0].Name)
	assert.Equal(t, "Information Technology", companies[0].Sector)
	assert.Equal(t, "Technology Hardware", companies[0].Industry)
	assert.Equal(t, "BRK.B", companies[1].Ticker)
}

func TestParseConstituentsTSXLayout(t *testing.T) {
	html := `
	<table class="wikitable"><tbody>
		<tr><th>Symbol</th><th>Company</th><th>Sector</th></tr>
		<tr><td>RY</td><td>Royal Bank of Canada</td><td>Financials</td></tr>
	</tbody></table>`

	companies, err := parseConstituents(docFromHTML(t, html))
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "RY", companies[0].Ticker)
	assert.Equal(t, "Royal Bank of Canada", companies[0].Name)
	assert.Equal(t, "Financials", companies[0].Sector)
	assert.Empty(t, companies[0].Industry)
}

func TestParseConstituentsNoTable(t *testing.T) {
	html := `
	<table class="wikitable"><tbody>
		<tr><th>Date</th><th>Event</th></tr>
		<tr><td>2024-01-01</td><td>rebalance</td></tr>
	</tbody></table>`

	_, err := parseConstituents(docFromHTML(t, html))
	assert.True(t, errors.Is(err, ErrNoConstituentsTable),
		"table without a Symbol column must not be mistaken for the constituents list")
}

func TestParseConstituentsSkipsEmptySymbols(t *testing.T) {
	html := `
	<table class="wikitable"><tbody>
		<tr><th>Symbol</th><th>Security</th></tr>
		<tr><td></td><td>Ghost Corp</td></tr>
		<tr><td>MSFT</td><td>Microsoft</td></tr>
	</tbody></table>`

	companies, err := parseConstituents(docFromHTML(t, html))
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "MSFT", companies[0].Ticker)
}
