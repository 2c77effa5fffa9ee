package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/sources"
)

func TestExtractListingDeduplicatesLinks(t *testing.T) {
	html := `
	<html><body>
	<article><a href="https://medias24.com/2026/03/15/bourse-hausse">Bourse en hausse</a></article>
	<article><a href="https://medias24.com/2026/03/15/bourse-hausse">Bourse en hausse</a></article>
	<article><a href="https://medias24.com/2026/03/16/autre-article">Autre article</a></article>
	</body></html>`

	adapter := sources.Adapter{Name: "medias24"}
	urls, err := ExtractListing(html, "https://medias24.com", adapter, Options{})
	require.NoError(t, err)

	assert.Len(t, urls, 2)
	seen := map[string]bool{}
	for _, u := range urls {
		assert.False(t, seen[u], "url %s should appear exactly once", u)
		seen[u] = true
	}
}

func TestExtractListingExcludesNonArticlePaths(t *testing.T) {
	html := `
	<html><body>
	<article><a href="https://medias24.com/2026/03/15/bourse-hausse">Bourse</a></article>
	<article><a href="https://medias24.com/tag/economie/">Tag economie</a></article>
	<article><a href="https://medias24.com/author/john-doe/">Author page</a></article>
	<article><a href="https://medias24.com/categorie/finance/">Categorie finance</a></article>
	</body></html>`

	adapter := sources.Adapter{Name: "medias24"}
	urls, err := ExtractListing(html, "https://medias24.com", adapter, Options{})
	require.NoError(t, err)

	require.Len(t, urls, 1)
	assert.Equal(t, "https://medias24.com/2026/03/15/bourse-hausse", urls[0])
}

func TestExtractListingResolvesRelativeLinks(t *testing.T) {
	html := `<html><body><article><a href="/2026/03/15/bourse-hausse">Bourse</a></article></body></html>`

	adapter := sources.Adapter{Name: "medias24"}
	urls, err := ExtractListing(html, "https://medias24.com", adapter, Options{})
	require.NoError(t, err)

	require.Len(t, urls, 1)
	assert.Equal(t, "https://medias24.com/2026/03/15/bourse-hausse", urls[0])
}

func articleHTML(paragraphCount int) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Bourse: le MASI termine en hausse</title></head><body><article>")
	for i := 0; i < paragraphCount; i++ {
		b.WriteString("<p>La bourse de Casablanca a cloture en hausse aujourd'hui, portee par les valeurs bancaires et le MASI qui progresse nettement face aux incertitudes economiques regionales persistantes.</p>")
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

func TestExtractArticleBelowThresholdReturnsError(t *testing.T) {
	html := `<html><head><title>Court</title></head><body><article><p>Trop court.</p></article></body></html>`

	_, err := ExtractArticle(html, "https://medias24.com/x", "medias24", Options{}, time.Now())
	assert.ErrorIs(t, err, ErrBelowThreshold)
}

func TestExtractArticleAboveThresholdSucceeds(t *testing.T) {
	html := articleHTML(5)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	art, err := ExtractArticle(html, "https://medias24.com/x", "medias24", Options{}, now)
	require.NoError(t, err)
	assert.Equal(t, "medias24", art.Source)
	assert.NotEmpty(t, art.Content)
	assert.Greater(t, WordCount(art.Content), 100)
}

func TestQualityScoreRewardsLengthKeywordsAndFreshness(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rich := domain.Article{
		Content:     strings.Repeat("bourse masi dividende action investissement croissance économique ", 100),
		ImageURL:    "https://medias24.com/img.jpg",
		Author:      "Redaction",
		Category:    "Economie",
		Tags:        []string{"bourse"},
		PublishedAt: now.Add(-time.Hour),
	}
	thin := domain.Article{Content: "Bonjour."}

	assert.Greater(t, QualityScore(rich, now), QualityScore(thin, now))
	assert.Greater(t, QualityScore(rich, now), 0.8)
}

func TestFilterByQualityDropsBelowThresholdUnlessNoneQualify(t *testing.T) {
	good := domain.Article{URL: "good", QualityScore: 0.8}
	bad := domain.Article{URL: "bad", QualityScore: 0.1}

	kept := FilterByQuality([]domain.Article{good, bad}, 0.5)
	require.Len(t, kept, 1)
	assert.Equal(t, "good", kept[0].URL)

	// When nothing clears the bar, the top-3 survive anyway.
	keptFallback := FilterByQuality([]domain.Article{bad}, 0.5)
	require.Len(t, keptFallback, 1)
	assert.Equal(t, "bad", keptFallback[0].URL)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 4, WordCount("la bourse de Casablanca"))
	assert.Equal(t, 0, WordCount(""))
}
