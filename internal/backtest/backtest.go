// Package backtest correlates historical index snapshots against forward
// market returns.
package backtest

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/arduino-trader/internal/domain"
)

// minMergedRows is the threshold below which the result is forced to
// all-zero with an honest total_periods rather than a statistic computed
// on too few points to mean anything.
const minMergedRows = 10

// Result is the output of one backtest run.
type Result struct {
	CorrelationT1    float64 `json:"correlation_t1"`
	CorrelationT5    float64 `json:"correlation_t5"`
	DirectionalAccT1 float64 `json:"directional_accuracy_t1"`
	DirectionalAccT5 float64 `json:"directional_accuracy_t5"`
	TotalPeriods     int     `json:"total_periods"`
}

// Run joins snapshots with T+1 and T+5 forward returns of bars (indexed
// by date) and computes Pearson correlations and directional accuracies.
func Run(snapshots []domain.IndexSnapshot, bars []domain.MarketBar) Result {
	byDate := make(map[string]domain.MarketBar, len(bars))
	for _, b := range bars {
		byDate[dateKey(b.Date)] = b
	}
	sortedBars := append([]domain.MarketBar(nil), bars...)
	sort.Slice(sortedBars, func(i, j int) bool { return sortedBars[i].Date.Before(sortedBars[j].Date) })
	indexOf := make(map[string]int, len(sortedBars))
	for i, b := range sortedBars {
		indexOf[dateKey(b.Date)] = i
	}

	var scores, retT1, retT5 []float64

	for _, snap := range snapshots {
		key := dateKey(snap.AsOf)
		idx, ok := indexOf[key]
		if !ok {
			continue
		}
		r1, ok1 := forwardReturn(sortedBars, idx, 1)
		r5, ok5 := forwardReturn(sortedBars, idx, 5)
		if !ok1 || !ok5 {
			continue
		}
		scores = append(scores, snap.Composite)
		retT1 = append(retT1, r1)
		retT5 = append(retT5, r5)
	}

	if len(scores) < minMergedRows {
		return Result{TotalPeriods: len(scores)}
	}

	return Result{
		CorrelationT1:    safeCorrelation(scores, retT1),
		CorrelationT5:    safeCorrelation(scores, retT5),
		DirectionalAccT1: directionalAccuracy(scores, retT1),
		DirectionalAccT5: directionalAccuracy(scores, retT5),
		TotalPeriods:     len(scores),
	}
}

func forwardReturn(bars []domain.MarketBar, idx, horizon int) (float64, bool) {
	if idx+horizon >= len(bars) {
		return 0, false
	}
	base := bars[idx].Close
	if base == 0 {
		return 0, false
	}
	future := bars[idx+horizon].Close
	return (future - base) / base, true
}

func directionalAccuracy(scores, returns []float64) float64 {
	correct := 0
	total := 0
	for i, s := range scores {
		if s == 50 {
			continue // neither a greed nor fear call
		}
		total++
		predictedUp := s > 50
		actualUp := returns[i] > 0
		if predictedUp == actualUp {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

func safeCorrelation(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if c != c { // NaN guard (degenerate variance)
		return 0
	}
	return c
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
