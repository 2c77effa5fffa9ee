// Package scaler replaces each raw sub-score with its position in the
// empirical [min,max] of a rolling window of historical sub-scores for
// the same component.
package scaler

import "github.com/aristath/arduino-trader/internal/domain"

const defaultWindow = 90

// Normalize maps a raw value into [0,100] using the min/max of history
// (recent values of the same component, oldest first). When history has
// fewer than 2 points, the raw value passes through; when the range is
// degenerate (min==max), it returns 50.
func Normalize(raw float64, history []float64) float64 {
	if len(history) < 2 {
		return raw
	}

	min, max := history[0], history[0]
	for _, v := range history {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return 50
	}

	pos := (raw - min) / (max - min) * 100
	if pos < 0 {
		return 0
	}
	if pos > 100 {
		return 100
	}
	return pos
}

// History is the rolling window of stored sub-score values for all six
// components, oldest first, capped at the scaler's window of the 90 most
// recent values. With several snapshots a day, that window covers fewer
// than 90 days.
type History struct {
	Momentum       []float64
	PriceStrength  []float64
	Volume         []float64
	Volatility     []float64
	EquityVsBonds  []float64
	MediaSentiment []float64
}

// Window caps a history slice at defaultWindow entries, keeping the most
// recent.
func Window(values []float64) []float64 {
	if len(values) <= defaultWindow {
		return values
	}
	return values[len(values)-defaultWindow:]
}

// Scale normalizes all six raw sub-scores against their respective
// rolling histories.
func Scale(raw domain.ComponentScores, hist History) domain.ComponentScores {
	return domain.ComponentScores{
		Momentum:       Normalize(raw.Momentum, Window(hist.Momentum)),
		PriceStrength:  Normalize(raw.PriceStrength, Window(hist.PriceStrength)),
		Volume:         Normalize(raw.Volume, Window(hist.Volume)),
		Volatility:     Normalize(raw.Volatility, Window(hist.Volatility)),
		EquityVsBonds:  Normalize(raw.EquityVsBonds, Window(hist.EquityVsBonds)),
		MediaSentiment: Normalize(raw.MediaSentiment, Window(hist.MediaSentiment)),
	}
}
