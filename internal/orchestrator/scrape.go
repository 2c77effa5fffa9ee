package orchestrator

import (
	"context"
	"time"

	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/extractor"
	"github.com/aristath/arduino-trader/internal/fetcher"
	"github.com/aristath/arduino-trader/internal/sources"
)

// DefaultScrape is the concrete scrape stage wired into Config.Scrape by
// cmd/server: fetch a source's listing page, extract article URLs,
// fetch+extract each one (skipping URLs already seen), and filter the
// result by quality.
func DefaultScrape(fetch *fetcher.Fetcher) func(ctx context.Context, adapter sources.Adapter, opts extractor.Options, urlCache *extractor.URLCache, maxArticlesPerSource int) ([]domain.Article, error) {
	return func(ctx context.Context, adapter sources.Adapter, opts extractor.Options, urlCache *extractor.URLCache, maxArticlesPerSource int) ([]domain.Article, error) {
		var articles []domain.Article

		for _, listingURL := range adapter.ListingURLs {
			listingHTML, finalURL, err := fetch.Fetch(ctx, listingURL, fetcher.Options{
				SpacingMs: adapter.SpacingMs, RequireHTML: true,
			})
			if err != nil {
				continue
			}

			urls, err := extractor.ExtractListing(listingHTML, finalURL, adapter, opts)
			if err != nil {
				continue
			}

			for _, u := range urls {
				if len(articles) >= maxArticlesPerSource {
					break
				}
				if urlCache != nil && urlCache.Seen(u) {
					continue
				}

				body, _, err := fetch.Fetch(ctx, u, fetcher.Options{SpacingMs: adapter.SpacingMs, RequireHTML: true})
				if err != nil {
					continue
				}

				art, err := extractor.ExtractArticle(body, u, adapter.Name, opts, time.Now())
				if err != nil {
					continue
				}

				if urlCache != nil {
					urlCache.Mark(u)
				}
				articles = append(articles, art)
			}
		}

		articles = extractor.FilterByQuality(articles, 0.30)
		return articles, nil
	}
}
