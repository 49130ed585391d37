package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		raw  string
		tsx  bool
		want string
	}{
		{"AAPL", false, "AAPL"},
		{"BRK.B", false, "BRK-B"},
		{"BF.B", false, "BF-B"},
		{"RY", true, "RY.TO"},
		{"CTC.A", true, "CTC-A.TO"},
		{" SHOP ", true, "SHOP.TO"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSymbol(tt.raw, tt.tsx))
		})
	}
}
