// Package components computes the six normalized sub-scores from market
// bars and scored articles. Every function is pure and operates purely
// on in-memory inputs; insufficient data degrades to a neutral 50 rather
// than erroring.
package components

import (
	"math"
	"time"

	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/pkg/formulas"
)

const neutral = 50.0

// BondYieldSource supplies the exogenous bond-return constant used by
// EquityVsBonds. Absent, a 2%/yr constant is used.
type BondYieldSource interface {
	AnnualBondReturn() float64
}

// Momentum needs >= 250 bars: compares the mean close of the most recent
// 125 bars to the prior 125.
func Momentum(bars []domain.MarketBar) float64 {
	if len(bars) < 250 {
		return neutral
	}
	recent := closesOf(bars[len(bars)-125:])
	prior := closesOf(bars[len(bars)-250 : len(bars)-125])

	meanRecent := formulas.Mean(recent)
	meanPrior := formulas.Mean(prior)
	if meanPrior == 0 {
		return neutral
	}

	pct := (meanRecent - meanPrior) / meanPrior * 100
	return clip(neutral + 2*pct)
}

// PriceStrength needs >= 252 bars: position of the latest close within
// the 52-week [low, high] range.
func PriceStrength(bars []domain.MarketBar) float64 {
	if len(bars) < 252 {
		return neutral
	}
	window := bars[len(bars)-252:]

	low, high := window[0].Low, window[0].High
	for _, b := range window {
		if b.Low < low {
			low = b.Low
		}
		if b.High > high {
			high = b.High
		}
	}
	if low == high {
		return neutral
	}

	last := bars[len(bars)-1].Close
	return clip((last - low) / (high - low) * 100)
}

// Volume needs >= 30 bars: current volume relative to the 20-day mean.
func Volume(bars []domain.MarketBar) float64 {
	if len(bars) < 30 {
		return neutral
	}
	window := bars[len(bars)-20:]
	volumes := make([]float64, len(window))
	for i, b := range window {
		volumes[i] = b.Volume
	}
	mean := formulas.Mean(volumes)
	if mean == 0 {
		return neutral
	}

	current := bars[len(bars)-1].Volume
	ratio := current / mean
	return math.Min(100, ratio*50)
}

// Volatility needs >= 30 bars: annualized std of the last 30 days'
// returns (29 returns when exactly 30 bars are given). Higher volatility
// maps to lower (more fearful) scores.
func Volatility(bars []domain.MarketBar) float64 {
	if len(bars) < 30 {
		return neutral
	}
	start := len(bars) - 31
	if start < 0 {
		start = 0
	}
	window := bars[start:]
	closes := closesOf(window)
	returns := formulas.CalculateReturns(closes)

	vol := formulas.AnnualizedVolatility(returns)
	return clip(100 - vol*1000)
}

// EquityVsBonds needs >= 20 bars: equity's 20-day return minus an
// exogenous bond-return constant.
func EquityVsBonds(bars []domain.MarketBar, bondSource BondYieldSource) float64 {
	if len(bars) < 20 {
		return neutral
	}
	window := bars[len(bars)-20:]
	equityReturn := (window[len(window)-1].Close - window[0].Close) / window[0].Close

	bondReturn := 0.02
	if bondSource != nil {
		bondReturn = bondSource.AnnualBondReturn()
	}

	rel := equityReturn - bondReturn
	return clip(neutral + rel*1000)
}

// MediaSentiment averages article sentiment over the last 7 days and
// maps (avg+1)*50 into [0,100]. No scored articles => neutral.
func MediaSentiment(articles []domain.Article, asOf time.Time) float64 {
	cutoff := asOf.AddDate(0, 0, -7)

	var sum float64
	var count int
	for _, a := range articles {
		if a.SentimentScore == nil {
			continue
		}
		if a.PublishedAt.Before(cutoff) {
			continue
		}
		sum += *a.SentimentScore
		count++
	}
	if count == 0 {
		return neutral
	}
	avg := sum / float64(count)
	return clip((avg + 1) * 50)
}

// Calculate computes all six sub-scores for a given as-of moment.
func Calculate(bars []domain.MarketBar, articles []domain.Article, asOf time.Time, bondSource BondYieldSource) domain.ComponentScores {
	return domain.ComponentScores{
		Momentum:       Momentum(bars),
		PriceStrength:  PriceStrength(bars),
		Volume:         Volume(bars),
		Volatility:     Volatility(bars),
		EquityVsBonds:  EquityVsBonds(bars, bondSource),
		MediaSentiment: MediaSentiment(articles, asOf),
	}
}

// AuxiliaryRSI computes a 14-period RSI over the bar series as a
// diagnostic signal alongside the six official sub-scores. It is logged
// by the orchestrator but never feeds the composite; the composite
// formula is closed-form over the six named sub-scores only.
func AuxiliaryRSI(bars []domain.MarketBar) *float64 {
	return formulas.CalculateRSI(closesOf(bars), 14)
}

func closesOf(bars []domain.MarketBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
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
