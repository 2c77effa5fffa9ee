package extractor

import (
	"strings"
	"time"

	"github.com/aristath/arduino-trader/internal/domain"
)

// QualityScore computes a 0-1 quality score: 0.40 length bucket + 0.30
// finance-keyword bucket + 0.20 metadata completeness + 0.10 freshness.
func QualityScore(a domain.Article, now time.Time) float64 {
	return lengthBucket(a.Content) +
		keywordBucket(a.Content) +
		metadataCompleteness(a) +
		freshnessBucket(a.PublishedAt, now)
}

func lengthBucket(content string) float64 {
	words := WordCount(content)
	switch {
	case words >= 500:
		return 0.40
	case words >= 300:
		return 0.30
	case words >= 200:
		return 0.20
	case words >= 100:
		return 0.10
	default:
		return 0
	}
}

func keywordBucket(content string) float64 {
	lower := strings.ToLower(content)
	count := 0
	for _, kw := range financeKeywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	switch {
	case count >= 5:
		return 0.30
	case count >= 3:
		return 0.20
	case count >= 1:
		return 0.10
	default:
		return 0
	}
}

func metadataCompleteness(a domain.Article) float64 {
	score := 0.0
	if a.ImageURL != "" {
		score += 0.05
	}
	if a.Author != "" {
		score += 0.05
	}
	if a.Category != "" {
		score += 0.05
	}
	if len(a.Tags) > 0 {
		score += 0.05
	}
	return score
}

func freshnessBucket(publishedAt, now time.Time) float64 {
	if publishedAt.IsZero() {
		return 0
	}
	age := now.Sub(publishedAt)
	switch {
	case age <= 24*time.Hour && sameDay(publishedAt, now):
		return 0.10
	case age <= 24*time.Hour:
		return 0.08
	case age <= 3*24*time.Hour:
		return 0.05
	default:
		return 0
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FilterByQuality drops articles below minScore, unless none clear the
// bar, in which case the top-3 by score are kept regardless.
func FilterByQuality(articles []domain.Article, minScore float64) []domain.Article {
	var kept []domain.Article
	for _, a := range articles {
		if a.QualityScore >= minScore {
			kept = append(kept, a)
		}
	}
	if len(kept) > 0 {
		return kept
	}

	sorted := append([]domain.Article(nil), articles...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].QualityScore > sorted[i].QualityScore {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	return sorted
}
