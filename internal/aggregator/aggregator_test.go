package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/arduino-trader/internal/domain"
)

func TestComposite(t *testing.T) {
	scores := domain.ComponentScores{
		Momentum:       90,
		PriceStrength:  10,
		Volume:         50,
		Volatility:     50,
		EquityVsBonds:  50,
		MediaSentiment: 50,
	}

	t.Run("all weights present", func(t *testing.T) {
		got := Composite(scores, domain.DefaultWeights())
		assert.InDelta(t, 52, got, 1)
	})

	t.Run("zeroing a weight removes its influence exactly", func(t *testing.T) {
		withMomentum := domain.DefaultWeights()
		withoutMomentum := withMomentum
		withoutMomentum.Momentum = 0

		flat := domain.ComponentScores{Momentum: 90, PriceStrength: 50, Volume: 50, Volatility: 50, EquityVsBonds: 50, MediaSentiment: 50}

		gotWith := Composite(flat, withMomentum)
		gotWithout := Composite(flat, withoutMomentum)

		// With momentum weighted in, the composite should move toward 90
		// relative to the all-neutral baseline; with it zeroed, the
		// remaining five neutral components average back to 50 exactly.
		assert.InDelta(t, 50, gotWithout, 0.001)
		assert.Greater(t, gotWith, gotWithout)
	})

	t.Run("all weights zero degrades to neutral", func(t *testing.T) {
		got := Composite(scores, domain.Weights{})
		assert.Equal(t, 50.0, got)
	})
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name      string
		composite float64
		want      string
	}{
		{"extreme greed floor", 75, "Extreme Greed"},
		{"greed floor", 60, "Greed"},
		{"neutral floor", 40, "Neutral"},
		{"fear floor", 25, "Fear"},
		{"below fear floor", 24.9, "Extreme Fear"},
		{"just under greed", 59.9, "Neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.composite))
		})
	}
}
