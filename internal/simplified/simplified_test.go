package simplified

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/arduino-trader/internal/domain"
)

func flatBars(n int, volume float64) []domain.MarketBar {
	bars := make([]domain.MarketBar, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.MarketBar{Date: start.AddDate(0, 0, i), Open: 100, High: 100, Low: 100, Close: 100, Volume: volume}
	}
	return bars
}

func TestScoreUsesDefaultUniverseSizeWhenNonPositive(t *testing.T) {
	bars := flatBars(25, 1000)
	withZero := Score(bars, nil, 0)
	withDefault := Score(bars, nil, DefaultUniverseSize)
	assert.Equal(t, withDefault, withZero)
}

func TestScoreClipsToHundredWithStrongInputs(t *testing.T) {
	bars := make([]domain.MarketBar, 25)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = domain.MarketBar{Date: start.AddDate(0, 0, i), Open: 100, High: 110, Low: 100, Close: 110, Volume: 1000 + float64(i)*1000}
	}

	positive := 1.0
	articles := []domain.Article{{SentimentScore: &positive}}

	got := Score(bars, articles, 1)
	assert.Equal(t, 100.0, got)
}

func TestScoreNeutralOnShortHistoryAndNoArticles(t *testing.T) {
	got := Score(flatBars(2, 1000), nil, DefaultUniverseSize)
	want := clip(10 * (50 + 50 + 50) / float64(DefaultUniverseSize))
	assert.Equal(t, want, got)
}

func TestVolumeComponentDegenerateWindowIsNeutral(t *testing.T) {
	assert.Equal(t, 50.0, volumeComponent(flatBars(20, 1000)))
}

func TestSentimentComponentIgnoresUnscoredArticles(t *testing.T) {
	articles := []domain.Article{{}, {}}
	assert.Equal(t, 50.0, sentimentComponent(articles))
}

func TestMomentumShareComponentCountsPositiveDays(t *testing.T) {
	bars := flatBars(6, 1000)
	bars[len(bars)-1].Close = 110 // one up day out of the last 5
	got := momentumShareComponent(bars)
	assert.InDelta(t, 20.0, got, 0.001)
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, clip(-5))
	assert.Equal(t, 100.0, clip(150))
	assert.Equal(t, 42.0, clip(42))
}
