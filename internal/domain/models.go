// Package domain holds the shared entities of the Fear & Greed pipeline:
// market bars and quotes, scraped articles, component sub-scores and the
// index snapshots produced by aggregating them.
package domain

import "time"

// MarketBar is one trading day of OHLCV data. Immutable once produced by
// the market snapshot fetcher.
type MarketBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the bar satisfies low <= open,close <= high and a
// non-negative volume.
func (b MarketBar) Valid() bool {
	if b.Volume < 0 {
		return false
	}
	if b.Low > b.Open || b.Open > b.High {
		return false
	}
	if b.Low > b.Close || b.Close > b.High {
		return false
	}
	return true
}

// LiveQuote is a per-symbol snapshot used to extend the historical bar
// series with an intraday "today" bar; it is never persisted long-term.
type LiveQuote struct {
	Symbol    string    `json:"symbol"`
	Last      float64   `json:"last"`
	ChangePct float64   `json:"change_pct"`
	Volume    float64   `json:"volume"`
	AsOf      time.Time `json:"as_of"`
}

// Article is identified by its canonical URL, which is globally unique.
// Re-scraping an existing URL only updates fields when the new quality
// score strictly exceeds the stored one.
type Article struct {
	ID              int64     `json:"id"`
	URL             string    `json:"url"`
	Source          string    `json:"source"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url,omitempty"`
	Author          string    `json:"author,omitempty"`
	Category        string    `json:"category,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
	ScrapedAt       time.Time `json:"scraped_at"`
	SentimentScore      *float64 `json:"sentiment_score,omitempty"`
	SentimentLabel      string   `json:"sentiment_label,omitempty"`
	SentimentConfidence float64  `json:"sentiment_confidence,omitempty"`
	SentimentReason     string   `json:"sentiment_reasoning,omitempty"`
	QualityScore        float64  `json:"quality_score"`
}

// ComponentScores are six sub-scores, each in [0,100], computed for a given
// as-of moment.
type ComponentScores struct {
	Momentum       float64 `json:"momentum"`
	PriceStrength  float64 `json:"price_strength"`
	Volume         float64 `json:"volume"`
	Volatility     float64 `json:"volatility"`
	EquityVsBonds  float64 `json:"equity_vs_bonds"`
	MediaSentiment float64 `json:"media_sentiment"`
}

// IndexSnapshot is one (as_of, composite, components) row. Snapshots are
// append-only; multiple snapshots per day are allowed, one per scheduler
// tick.
type IndexSnapshot struct {
	ID         int64           `json:"id"`
	AsOf       time.Time       `json:"as_of"`
	Composite  float64         `json:"composite"`
	Components ComponentScores `json:"components"`
	Label      string          `json:"label"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Weights maps component names to their aggregation weight.
type Weights struct {
	Momentum       float64 `json:"momentum"`
	PriceStrength  float64 `json:"price_strength"`
	Volume         float64 `json:"volume"`
	Volatility     float64 `json:"volatility"`
	EquityVsBonds  float64 `json:"equity_vs_bonds"`
	MediaSentiment float64 `json:"media_sentiment"`
}

// DefaultWeights are the authoritative component weights.
func DefaultWeights() Weights {
	return Weights{
		Momentum:       0.20,
		PriceStrength:  0.15,
		Volume:         0.15,
		Volatility:     0.20,
		EquityVsBonds:  0.15,
		MediaSentiment: 0.15,
	}
}

// Sum returns the total weight; the aggregator divides by this so a
// composite remains well-defined even when a weight is zeroed out.
func (w Weights) Sum() float64 {
	return w.Momentum + w.PriceStrength + w.Volume + w.Volatility + w.EquityVsBonds + w.MediaSentiment
}
