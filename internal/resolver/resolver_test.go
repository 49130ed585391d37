package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlternate(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"BRK.B", "BRK-B", true},
		{"BF.B", "BF-B", true},
		{"CTC.A.TO", "CTC-A.TO", true},
		{"TECK.B.TO", "TECK-B.TO", true},
		{"AAPL", "", false},
		{"RY.TO", "", false},
		{"SHOP.V", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, ok := Alternate(tt.symbol)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlternateIsSingleStep(t *testing.T) {
	// The fallback chain is one candidate deep: an alternate of an
	// alternate must not exist.
	alt, ok := Alternate("BRK.B")
	assert.True(t, ok)
	_, ok = Alternate(alt)
	assert.False(t, ok)
}

func TestInferListing(t *testing.T) {
	exchange, currency := inferListing("RY.TO")
	assert.Equal(t, "TSX", exchange)
	assert.Equal(t, "CAD", currency)

	exchange, currency = inferListing("AAPL")
	assert.Equal(t, "US", exchange)
	assert.Equal(t, "USD", currency)
}
