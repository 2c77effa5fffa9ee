// Package simplified implements an alternative, lighter-weight index: a
// peer read endpoint, not the primary composite.
package simplified

import (
	"github.com/aristath/arduino-trader/internal/domain"
)

// DefaultUniverseSize is the MASI universe constant used as N.
const DefaultUniverseSize = 76

// Score computes score = clip(0,100, 10*(V+S+M)/N) where V is the 20-day
// mean volume normalized by the window's min/max, S is the average
// article polarity mapped to [0,100], M is the share of positive-return
// days in the last 5 bars mapped to [0,100], and N is the universe size.
// The *10 factor is preserved verbatim from the original formula.
func Score(bars []domain.MarketBar, articles []domain.Article, universeSize int) float64 {
	if universeSize <= 0 {
		universeSize = DefaultUniverseSize
	}

	v := volumeComponent(bars)
	s := sentimentComponent(articles)
	m := momentumShareComponent(bars)

	raw := 10 * (v + s + m) / float64(universeSize)
	return clip(raw)
}

// volumeComponent is the 20-day mean volume normalized by the window's
// own min/max, mapped into [0,100].
func volumeComponent(bars []domain.MarketBar) float64 {
	if len(bars) < 20 {
		return 50
	}
	window := bars[len(bars)-20:]

	min, max := window[0].Volume, window[0].Volume
	var sum float64
	for _, b := range window {
		sum += b.Volume
		if b.Volume < min {
			min = b.Volume
		}
		if b.Volume > max {
			max = b.Volume
		}
	}
	if min == max {
		return 50
	}
	mean := sum / float64(len(window))
	return clip((mean - min) / (max - min) * 100)
}

// sentimentComponent is the average article polarity mapped to [0,100].
func sentimentComponent(articles []domain.Article) float64 {
	var sum float64
	var count int
	for _, a := range articles {
		if a.SentimentScore == nil {
			continue
		}
		sum += *a.SentimentScore
		count++
	}
	if count == 0 {
		return 50
	}
	avg := sum / float64(count)
	return clip((avg + 1) * 50)
}

// momentumShareComponent is the share of positive-return days in the
// last 5 bars, mapped to [0,100].
func momentumShareComponent(bars []domain.MarketBar) float64 {
	if len(bars) < 6 {
		return 50
	}
	window := bars[len(bars)-5:]
	positive := 0
	for _, b := range window {
		if b.Close > b.Open {
			positive++
		}
	}
	return float64(positive) / float64(len(window)) * 100
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
