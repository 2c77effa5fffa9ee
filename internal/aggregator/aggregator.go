// Package aggregator computes the weighted composite from six scaled
// sub-scores and classifies it into an interpretation band.
package aggregator

import "github.com/aristath/arduino-trader/internal/domain"

// Composite computes the weighted sum, normalized by the sum of weights
// so a zeroed weight drops that sub-score's influence exactly without
// distorting the scale of the rest.
func Composite(scores domain.ComponentScores, weights domain.Weights) float64 {
	total := weights.Sum()
	if total == 0 {
		return 50
	}

	weighted := weights.Momentum*scores.Momentum +
		weights.PriceStrength*scores.PriceStrength +
		weights.Volume*scores.Volume +
		weights.Volatility*scores.Volatility +
		weights.EquityVsBonds*scores.EquityVsBonds +
		weights.MediaSentiment*scores.MediaSentiment

	return weighted / total
}

// Label classifies a composite into its interpretation band.
func Label(composite float64) string {
	switch {
	case composite >= 75:
		return "Extreme Greed"
	case composite >= 60:
		return "Greed"
	case composite >= 40:
		return "Neutral"
	case composite >= 25:
		return "Fear"
	default:
		return "Extreme Fear"
	}
}
