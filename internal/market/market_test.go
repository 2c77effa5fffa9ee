package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyntheticHistoryReturnsExactCountAscending(t *testing.T) {
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	bars := syntheticHistory(252, end)

	if assert.Len(t, bars, 252) {
		for i, b := range bars {
			assert.True(t, b.Valid(), "bar %d should satisfy OHLCV invariants", i)
			if i > 0 {
				assert.True(t, bars[i-1].Date.Before(b.Date))
			}
		}
		assert.Equal(t, end, bars[len(bars)-1].Date)
	}
}

func TestSyntheticHistoryIsDeterministic(t *testing.T) {
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	first := syntheticHistory(30, end)
	second := syntheticHistory(30, end)
	assert.Equal(t, first, second)
}

func TestParseFrenchNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"thousands separator with comma decimal", "1 234,56", 1234.56},
		{"non-breaking space thousands separator", "12 500,00", 12500.00},
		{"percentage sign stripped", "2,5%", 2.5},
		{"plain integer", "100", 100},
		{"unparseable input returns zero", "n/a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFrenchNumber(tt.input))
		})
	}
}
