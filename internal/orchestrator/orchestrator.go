// Package orchestrator sequences the pipeline stages end to end, retries
// them independently of per-HTTP retries, persists the result and
// invalidates the cache. It always returns a structured result; it never
// raises an error out to the scheduler.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog"

	"github.com/aristath/arduino-trader/internal/aggregator"
	"github.com/aristath/arduino-trader/internal/cache"
	"github.com/aristath/arduino-trader/internal/components"
	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/extractor"
	"github.com/aristath/arduino-trader/internal/market"
	"github.com/aristath/arduino-trader/internal/persistence"
	"github.com/aristath/arduino-trader/internal/scaler"
	"github.com/aristath/arduino-trader/internal/sentiment"
	"github.com/aristath/arduino-trader/internal/sources"
)

const (
	historyDays         = 252
	maxConcurrentSources = 3
	stageRetries         = 3
	stageBackoffUnit     = 5 * time.Second
)

// Result is the pipeline run's return value.
type Result struct {
	Success    bool                   `json:"success"`
	Score      float64                `json:"score,omitempty"`
	Components domain.ComponentScores `json:"components,omitempty"`
	Label      string                 `json:"label,omitempty"`
	Counts     Counts                 `json:"counts,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Counts reports how much input data fed the run.
type Counts struct {
	Bars     int `json:"bars"`
	Articles int `json:"articles"`
}

// Orchestrator wires the pipeline's collaborators together.
type Orchestrator struct {
	market      *market.Client
	sentimentA  *sentiment.Analyzer
	repo        *persistence.Repository
	cacheSvc    *cache.Service
	mirror      *persistence.Mirror
	sourceAdp   []sources.Adapter
	extractOpts extractor.Options
	urlCache    *extractor.URLCache
	scrapeFn    func(ctx context.Context, adapter sources.Adapter, opts extractor.Options, urlCache *extractor.URLCache, maxArticlesPerSource int) ([]domain.Article, error)
	weights     domain.Weights
	log         zerolog.Logger

	maxArticlesPerSource int
}

// Config bundles the Orchestrator's dependencies.
type Config struct {
	Market               *market.Client
	Sentiment            *sentiment.Analyzer
	Repository           *persistence.Repository
	Cache                *cache.Service
	Mirror               *persistence.Mirror
	Sources              []sources.Adapter
	ExtractOptions       extractor.Options
	URLCache             *extractor.URLCache
	Scrape               func(ctx context.Context, adapter sources.Adapter, opts extractor.Options, urlCache *extractor.URLCache, maxArticlesPerSource int) ([]domain.Article, error)
	Weights              domain.Weights
	MaxArticlesPerSource int
	Log                  zerolog.Logger
}

// New builds an Orchestrator.
func New(cfg Config) *Orchestrator {
	maxPerSource := cfg.MaxArticlesPerSource
	if maxPerSource <= 0 {
		maxPerSource = 10
	}
	return &Orchestrator{
		market:               cfg.Market,
		sentimentA:           cfg.Sentiment,
		repo:                 cfg.Repository,
		cacheSvc:             cfg.Cache,
		mirror:               cfg.Mirror,
		sourceAdp:            cfg.Sources,
		extractOpts:          cfg.ExtractOptions,
		urlCache:             cfg.URLCache,
		scrapeFn:             cfg.Scrape,
		weights:              cfg.Weights,
		maxArticlesPerSource: maxPerSource,
		log:                  cfg.Log.With().Str("component", "orchestrator").Logger(),
	}
}

// Name identifies this job for the scheduler.
func (o *Orchestrator) Name() string { return "fear_greed_pipeline" }

// Run implements scheduler.Job by running the pipeline with no target
// date override.
func (o *Orchestrator) Run() error {
	_ = o.RunPipeline(context.Background(), time.Time{})
	return nil
}

// RunPipeline executes every pipeline stage in sequence and always
// returns a structured result.
func (o *Orchestrator) RunPipeline(ctx context.Context, targetDate time.Time) Result {
	asOf := targetDate
	if asOf.IsZero() {
		asOf = time.Now()
	}

	bars := o.collectMarketHistory(ctx)
	live := o.market.FetchLive(ctx)
	bars = appendLiveBar(bars, live, asOf)

	if rsi := components.AuxiliaryRSI(bars); rsi != nil {
		o.log.Debug().Float64("rsi_14", *rsi).Msg("auxiliary rsi computed")
	}

	articles := o.scrapeMedia(ctx)
	articles = o.scoreSentiment(ctx, articles)

	raw := components.Calculate(bars, articles, asOf, nil)
	scaled := o.scaleComponents(raw)

	composite := aggregator.Composite(scaled, o.weights)
	label := aggregator.Label(composite)

	snapshot := domain.IndexSnapshot{
		AsOf:       asOf,
		Composite:  composite,
		Components: scaled,
		Label:      label,
		CreatedAt:  time.Now(),
	}

	if err := o.persist(snapshot, articles); err != nil {
		o.log.Error().Err(err).Msg("persistence failed, keeping in-memory result")
	} else {
		o.invalidateCache(ctx)
		if o.mirror != nil {
			o.mirror.PutSnapshot(ctx, snapshot)
			for _, a := range articles {
				o.mirror.PutArticle(ctx, a)
			}
		}
	}

	return Result{
		Success:    true,
		Score:      composite,
		Components: scaled,
		Label:      label,
		Counts:     Counts{Bars: len(bars), Articles: len(articles)},
	}
}

// appendLiveBar turns the freshest live quote into a synthetic "today" bar
// appended to the historical series, so an intraday move reaches the
// components before the next full history refresh. No-op if either input
// is empty, or if the synthetic bar fails the usual OHLCV invariants.
func appendLiveBar(bars []domain.MarketBar, quotes []domain.LiveQuote, asOf time.Time) []domain.MarketBar {
	if len(bars) == 0 || len(quotes) == 0 {
		return bars
	}

	quote := quotes[0]
	for _, q := range quotes {
		if q.Symbol == "MASI" {
			quote = q
			break
		}
	}

	prevClose := bars[len(bars)-1].Close
	last := quote.Last
	if last == 0 {
		last = prevClose * (1 + quote.ChangePct/100)
	}

	high, low := last, last
	if prevClose > high {
		high = prevClose
	}
	if prevClose < low {
		low = prevClose
	}

	bar := domain.MarketBar{
		Date:   asOf,
		Open:   prevClose,
		High:   high,
		Low:    low,
		Close:  last,
		Volume: quote.Volume,
	}
	if !bar.Valid() {
		return bars
	}
	return append(bars, bar)
}

// collectMarketHistory retries up to stageRetries times with linear
// backoff; exhausting the budget degrades to an empty series (neutral
// components downstream).
func (o *Orchestrator) collectMarketHistory(ctx context.Context) []domain.MarketBar {
	var bars []domain.MarketBar
	withStageRetry(ctx, o.log, "market_history", func() error {
		bars = o.market.FetchHistory(ctx, historyDays)
		if len(bars) == 0 {
			return errEmptyResult
		}
		return nil
	})
	return bars
}

// scrapeMedia scrapes all sources with bounded concurrency, each host
// still serialized by the per-host rate limiter inside the fetcher.
func (o *Orchestrator) scrapeMedia(ctx context.Context) []domain.Article {
	if o.scrapeFn == nil {
		return nil
	}

	var all []domain.Article
	var mu sync.Mutex

	withStageRetry(ctx, o.log, "scrape_media", func() error {
		all = nil
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrentSources)

		for _, adapter := range o.sourceAdp {
			adapter := adapter
			g.Go(func() error {
				articles, err := o.scrapeFn(gctx, adapter, o.extractOpts, o.urlCache, o.maxArticlesPerSource)
				if err != nil {
					o.log.Warn().Err(err).Str("source", adapter.Name).Msg("source scrape failed")
					return nil // degrade per-source, not the whole stage
				}
				mu.Lock()
				all = append(all, articles...)
				mu.Unlock()
				return nil
			})
		}
		return g.Wait()
	})

	return all
}

func (o *Orchestrator) scoreSentiment(ctx context.Context, articles []domain.Article) []domain.Article {
	if len(articles) == 0 || o.sentimentA == nil {
		return articles
	}
	return o.sentimentA.ScoreBatch(ctx, articles)
}

func (o *Orchestrator) scaleComponents(raw domain.ComponentScores) domain.ComponentScores {
	hist := scaler.History{
		Momentum:       o.recentValues("momentum"),
		PriceStrength:  o.recentValues("price_strength"),
		Volume:         o.recentValues("volume"),
		Volatility:     o.recentValues("volatility"),
		EquityVsBonds:  o.recentValues("equity_vs_bonds"),
		MediaSentiment: o.recentValues("media_sentiment"),
	}
	return scaler.Scale(raw, hist)
}

func (o *Orchestrator) recentValues(column string) []float64 {
	if o.repo == nil {
		return nil
	}
	values, err := o.repo.RecentComponentValues(column, 90)
	if err != nil {
		return nil
	}
	return values
}

func (o *Orchestrator) persist(snapshot domain.IndexSnapshot, articles []domain.Article) error {
	if o.repo == nil {
		return nil
	}
	return o.repo.CommitRun(snapshot, articles)
}

func (o *Orchestrator) invalidateCache(ctx context.Context) {
	if o.cacheSvc == nil {
		return
	}
	o.cacheSvc.DeletePattern(ctx, "index:*")
	o.cacheSvc.DeletePattern(ctx, "components:*")
	o.cacheSvc.DeletePattern(ctx, "simplified:*")
}

var errEmptyResult = emptyResultError{}

type emptyResultError struct{}

func (emptyResultError) Error() string { return "orchestrator: stage returned empty result" }

// withStageRetry retries fn up to stageRetries times with linear backoff
// (stageBackoffUnit * attempt). It never returns an error; exhausting the
// budget just means the caller sees whatever fn last left
// behind (typically zero-value/degraded).
func withStageRetry(ctx context.Context, log zerolog.Logger, stage string, fn func() error) {
	for attempt := 1; attempt <= stageRetries; attempt++ {
		if err := fn(); err == nil {
			return
		} else if attempt < stageRetries {
			log.Warn().Err(err).Str("stage", stage).Int("attempt", attempt).Msg("stage failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(stageBackoffUnit * time.Duration(attempt)):
			}
		} else {
			log.Warn().Err(err).Str("stage", stage).Msg("stage exhausted retries, degrading")
		}
	}
}
