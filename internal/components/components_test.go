package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/arduino-trader/internal/domain"
)

func flatBars(n int, close float64) []domain.MarketBar {
	bars := make([]domain.MarketBar, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.MarketBar{
			Date:   start.AddDate(0, 0, i),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestMomentumColdStartIsNeutral(t *testing.T) {
	// Fewer than 250 bars: every sub-score degrades to neutral.
	assert.Equal(t, neutral, Momentum(flatBars(10, 100)))
}

func TestMomentumStrongUptrend(t *testing.T) {
	bars := make([]domain.MarketBar, 250)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		close := 100.0
		if i >= 125 {
			close = 130.0 // +30% over the prior window's mean
		}
		bars[i] = domain.MarketBar{Date: start.AddDate(0, 0, i), Open: close, High: close, Low: close, Close: close, Volume: 1}
	}

	got := Momentum(bars)
	assert.GreaterOrEqual(t, got, 90.0)
}

func TestPriceStrengthAtRangeHigh(t *testing.T) {
	bars := make([]domain.MarketBar, 252)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.MarketBar{Date: start.AddDate(0, 0, i), Open: 100, High: 100, Low: 50, Close: 100, Volume: 1}
	}
	// Last bar sits exactly at the 52-week high.
	assert.GreaterOrEqual(t, PriceStrength(bars), 95.0)
}

func TestVolumeInsufficientHistoryIsNeutral(t *testing.T) {
	assert.Equal(t, neutral, Volume(flatBars(5, 100)))
}

func TestVolumeSpikeScoresAboveNeutral(t *testing.T) {
	bars := flatBars(30, 100)
	bars[len(bars)-1].Volume = 5_000_000 // far above the 20-day mean of 1,200,000 (this bar included)
	assert.Greater(t, Volume(bars), neutral)
}

func TestVolatilityDegenerateSeriesIsCalm(t *testing.T) {
	// Zero realized volatility should score near the top (low fear).
	got := Volatility(flatBars(31, 100))
	assert.Equal(t, 100.0, got)
}

func TestEquityVsBondsDefaultsWithoutSource(t *testing.T) {
	bars := flatBars(20, 100)
	bars[len(bars)-1].Close = 110 // +10% over the window, well above the 2%/yr default
	got := EquityVsBonds(bars, nil)
	assert.Greater(t, got, neutral)
}

type fixedBondSource struct{ rate float64 }

func (f fixedBondSource) AnnualBondReturn() float64 { return f.rate }

func TestEquityVsBondsUsesSuppliedSource(t *testing.T) {
	bars := flatBars(20, 100)
	bars[len(bars)-1].Close = 100 // flat equity return
	got := EquityVsBonds(bars, fixedBondSource{rate: 0.05})
	assert.Less(t, got, neutral) // bonds outperforming flat equities reads as fear
}

func TestMediaSentimentWindowsToSevenDays(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	positive := 0.8
	stale := -0.9

	articles := []domain.Article{
		{SentimentScore: &positive, PublishedAt: asOf.AddDate(0, 0, -1)},
		{SentimentScore: &stale, PublishedAt: asOf.AddDate(0, 0, -30)},
	}

	got := MediaSentiment(articles, asOf)
	assert.Greater(t, got, neutral)
}

func TestMediaSentimentNoScoredArticlesIsNeutral(t *testing.T) {
	assert.Equal(t, neutral, MediaSentiment(nil, time.Now()))
}

func TestAuxiliaryRSIDoesNotPanicOnShortSeries(t *testing.T) {
	assert.NotPanics(t, func() {
		AuxiliaryRSI(flatBars(5, 100))
	})
}
