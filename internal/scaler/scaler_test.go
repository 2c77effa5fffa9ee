package scaler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     float64
		history []float64
		want    float64
	}{
		{
			name:    "fewer than 2 points passes raw through",
			raw:     42,
			history: []float64{10},
			want:    42,
		},
		{
			name:    "no history passes raw through",
			raw:     42,
			history: nil,
			want:    42,
		},
		{
			name:    "degenerate range returns neutral",
			raw:     5,
			history: []float64{10, 10, 10},
			want:    50,
		},
		{
			name:    "midpoint of range maps to 50",
			raw:     50,
			history: []float64{0, 100},
			want:    50,
		},
		{
			name:    "value above history max clips to 100",
			raw:     150,
			history: []float64{0, 100},
			want:    100,
		},
		{
			name:    "value below history min clips to 0",
			raw:     -50,
			history: []float64{0, 100},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.history))
		})
	}
}

func TestWindowCapsAtDefaultSize(t *testing.T) {
	values := make([]float64, defaultWindow+10)
	for i := range values {
		values[i] = float64(i)
	}

	windowed := Window(values)
	assert.Len(t, windowed, defaultWindow)
	assert.Equal(t, float64(10), windowed[0])
	assert.Equal(t, float64(len(values)-1), windowed[len(windowed)-1])
}

func TestWindowPassesThroughShortSlices(t *testing.T) {
	values := []float64{1, 2, 3}
	assert.Equal(t, values, Window(values))
}
