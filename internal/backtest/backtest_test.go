package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/arduino-trader/internal/domain"
)

func barsFrom(start time.Time, closes []float64) []domain.MarketBar {
	bars := make([]domain.MarketBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.MarketBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return bars
}

func TestRunBelowMinRowsReturnsAllZeroWithHonestTotal(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := barsFrom(start, []float64{100, 101, 102, 103, 104, 105, 106, 107})

	snaps := []domain.IndexSnapshot{
		{AsOf: start, Composite: 60},
		{AsOf: start.AddDate(0, 0, 1), Composite: 65},
	}

	result := Run(snaps, bars)
	assert.Equal(t, Result{TotalPeriods: len(snaps)}, result)
}

func TestRunComputesCorrelationAboveMinRows(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 30
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFrom(start, closes)

	// A +1 daily step on a rising base gives T+1 returns 1/(100+i) that
	// shrink over time, so scores that also fall over time correlate
	// positively with them.
	var snaps []domain.IndexSnapshot
	for i := 0; i < n-5; i++ {
		snaps = append(snaps, domain.IndexSnapshot{AsOf: start.AddDate(0, 0, i), Composite: 80 - float64(i)})
	}

	result := Run(snaps, bars)
	assert.Greater(t, result.TotalPeriods, 0)
	assert.Greater(t, result.CorrelationT1, 0.0)
}

func TestSafeCorrelationGuardsDegenerateInput(t *testing.T) {
	assert.Equal(t, 0.0, safeCorrelation([]float64{1}, []float64{1}))
	assert.Equal(t, 0.0, safeCorrelation([]float64{5, 5, 5}, []float64{1, 2, 3}))
}
