package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/extractor"
	"github.com/aristath/arduino-trader/internal/sources"
)

func TestWithStageRetrySucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	withStageRetry(context.Background(), zerolog.Nop(), "test_stage", func() error {
		calls++
		return nil
	})
	assert.Equal(t, 1, calls)
}

func TestWithStageRetryStopsEarlyWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	withStageRetry(ctx, zerolog.Nop(), "test_stage", func() error {
		calls++
		return errors.New("always fails")
	})
	// The first attempt always runs; the cancelled context short-circuits
	// the backoff wait before a second attempt.
	assert.Equal(t, 1, calls)
}

func TestScrapeMediaDegradesPerSourceOnError(t *testing.T) {
	good := sources.Adapter{Name: "good"}
	bad := sources.Adapter{Name: "bad"}

	scrape := func(ctx context.Context, adapter sources.Adapter, opts extractor.Options, urlCache *extractor.URLCache, maxArticlesPerSource int) ([]domain.Article, error) {
		if adapter.Name == "bad" {
			return nil, errors.New("scrape failed")
		}
		return []domain.Article{{URL: "https://example.com/a", Source: adapter.Name}}, nil
	}

	o := New(Config{
		Sources: []sources.Adapter{good, bad},
		Scrape:  scrape,
		Log:     zerolog.Nop(),
	})

	articles := o.scrapeMedia(context.Background())
	require.Len(t, articles, 1)
	assert.Equal(t, "good", articles[0].Source)
}

func TestScrapeMediaReturnsNilWithoutScrapeFn(t *testing.T) {
	o := New(Config{Sources: []sources.Adapter{{Name: "x"}}, Log: zerolog.Nop()})
	assert.Nil(t, o.scrapeMedia(context.Background()))
}

func TestScoreSentimentPassesThroughWithoutAnalyzer(t *testing.T) {
	o := New(Config{Log: zerolog.Nop()})
	articles := []domain.Article{{URL: "a"}}
	got := o.scoreSentiment(context.Background(), articles)
	assert.Equal(t, articles, got)
}

func TestRecentValuesReturnsNilWithoutRepository(t *testing.T) {
	o := New(Config{Log: zerolog.Nop()})
	assert.Nil(t, o.recentValues("momentum"))
}

func TestPersistIsNoOpWithoutRepository(t *testing.T) {
	o := New(Config{Log: zerolog.Nop()})
	err := o.persist(domain.IndexSnapshot{AsOf: time.Now()}, nil)
	assert.NoError(t, err)
}

func TestNameIdentifiesTheSchedulerJob(t *testing.T) {
	o := New(Config{Log: zerolog.Nop()})
	assert.Equal(t, "fear_greed_pipeline", o.Name())
}

func TestAppendLiveBarReturnsUnchangedWithoutHistory(t *testing.T) {
	quotes := []domain.LiveQuote{{Symbol: "MASI", Last: 12600}}
	assert.Empty(t, appendLiveBar(nil, quotes, time.Now()))
}

func TestAppendLiveBarReturnsUnchangedWithoutQuotes(t *testing.T) {
	bars := []domain.MarketBar{{Date: time.Now(), Open: 100, High: 110, Low: 90, Close: 105, Volume: 1}}
	got := appendLiveBar(bars, nil, time.Now())
	assert.Equal(t, bars, got)
}

func TestAppendLiveBarPrefersMASIQuote(t *testing.T) {
	asOf := time.Now()
	bars := []domain.MarketBar{{Date: asOf.AddDate(0, 0, -1), Open: 100, High: 110, Low: 90, Close: 100, Volume: 1}}
	quotes := []domain.LiveQuote{
		{Symbol: "OTHER", Last: 999},
		{Symbol: "MASI", Last: 105, Volume: 42},
	}

	got := appendLiveBar(bars, quotes, asOf)
	require.Len(t, got, 2)
	last := got[len(got)-1]
	assert.Equal(t, asOf, last.Date)
	assert.Equal(t, 105.0, last.Close)
	assert.Equal(t, 42.0, last.Volume)
}

func TestAppendLiveBarFallsBackToChangePctWithoutLast(t *testing.T) {
	asOf := time.Now()
	bars := []domain.MarketBar{{Date: asOf.AddDate(0, 0, -1), Open: 100, High: 110, Low: 90, Close: 200, Volume: 1}}
	quotes := []domain.LiveQuote{{Symbol: "MASI", ChangePct: 1}}

	got := appendLiveBar(bars, quotes, asOf)
	require.Len(t, got, 2)
	assert.InDelta(t, 202.0, got[len(got)-1].Close, 0.0001)
}
