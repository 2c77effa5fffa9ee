package sentiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog"

	"github.com/aristath/arduino-trader/internal/domain"
)

// maxConcurrentLLMCalls bounds the batch so the provider's rate limit is
// respected.
const maxConcurrentLLMCalls = 4

// Result is the scored output of analyzing one article: score in
// [-1,+1], a label, a confidence in [0,1] and reasoning text.
type Result struct {
	Score      float64
	Label      string
	Confidence float64
	Reasoning  string
}

// Analyzer selects between the LLM and lexicon paths at construction
// time.
type Analyzer struct {
	llm *Client
	log zerolog.Logger
}

// New builds an Analyzer. A nil llm means lexicon-only.
func New(llm *Client, log zerolog.Logger) *Analyzer {
	return &Analyzer{llm: llm, log: log.With().Str("component", "sentiment").Logger()}
}

// ScoreArticle scores one article. It prefers the LLM path if configured
// and falls back to the lexicon on any LLM failure.
func (a *Analyzer) ScoreArticle(ctx context.Context, title, summary string) Result {
	if a.llm != nil {
		r, err := a.llm.ScoreArticle(ctx, title, summary)
		if err == nil {
			return Result{Score: r.Score, Label: r.Label, Confidence: r.Confidence, Reasoning: r.Reasoning}
		}
		a.log.Warn().Err(err).Msg("llm sentiment failed, falling back to lexicon for this batch")
	}

	lex := ScoreLexicon(title + " " + summary)
	return Result{Score: lex.Score, Label: lex.Label, Confidence: lex.Confidence, Reasoning: "lexicon fallback"}
}

// ScoreBatch scores every article concurrently (bounded) and fills in
// its sentiment fields in place. If the LLM path is configured and any
// call in the batch fails, the whole batch is rescored with the lexicon
// instead of mixing LLM and lexicon results within one run.
func (a *Analyzer) ScoreBatch(ctx context.Context, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	if a.llm == nil {
		for i := range out {
			lex := ScoreLexicon(out[i].Title + " " + out[i].Summary)
			applyResult(&out[i], Result{Score: lex.Score, Label: lex.Label, Confidence: lex.Confidence, Reasoning: "lexicon"})
		}
		return out
	}

	results := make([]LLMResult, len(out))
	failed := make([]bool, len(out))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLLMCalls)

	for i := range out {
		i := i
		g.Go(func() error {
			r, err := a.llm.ScoreArticle(gctx, out[i].Title, out[i].Summary)
			if err != nil {
				failed[i] = true
				return nil
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	anyFailed := false
	for _, f := range failed {
		if f {
			anyFailed = true
			break
		}
	}

	if anyFailed {
		a.log.Warn().Msg("llm batch had failures, falling back to lexicon for the whole batch")
		for i := range out {
			lex := ScoreLexicon(out[i].Title + " " + out[i].Summary)
			applyResult(&out[i], Result{Score: lex.Score, Label: lex.Label, Confidence: lex.Confidence, Reasoning: "lexicon fallback"})
		}
		return out
	}

	for i := range out {
		applyResult(&out[i], Result{Score: results[i].Score, Label: results[i].Label, Confidence: results[i].Confidence, Reasoning: results[i].Reasoning})
	}
	return out
}

func applyResult(a *domain.Article, r Result) {
	score := r.Score
	a.SentimentScore = &score
	a.SentimentLabel = r.Label
	a.SentimentConfidence = r.Confidence
	a.SentimentReason = r.Reasoning
}

// BatchPolarityTo100 computes the confidence-weighted average polarity of
// a set of articles and maps it linearly to [0,100] via (p+1)*50. Returns
// 50 (neutral) when there is no weight to average.
func BatchPolarityTo100(articles []domain.Article) float64 {
	var weightedSum, totalWeight float64
	for _, a := range articles {
		if a.SentimentScore == nil {
			continue
		}
		weight := a.SentimentConfidence
		if weight == 0 {
			weight = 1
		}
		weightedSum += *a.SentimentScore * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 50
	}
	avg := weightedSum / totalWeight
	return (avg + 1) * 50
}
