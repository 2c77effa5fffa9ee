// Package extractor turns listing-page HTML into article URLs and
// article-page HTML into domain.Article values.
package extractor

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aristath/arduino-trader/internal/domain"
	"github.com/aristath/arduino-trader/internal/sources"
)

// ErrBelowThreshold is returned by ExtractArticle when no content
// extraction strategy produces text of the minimum length.
var ErrBelowThreshold = errors.New("extractor: content below minimum length")

// Options tunes both listing and article extraction.
type Options struct {
	MinContentLength int
	MaxAgeDays       int
	MinListingYield  int
}

func (o Options) withDefaults() Options {
	if o.MinContentLength <= 0 {
		o.MinContentLength = 300
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 7
	}
	if o.MinListingYield <= 0 {
		o.MinListingYield = 5
	}
	return o
}

// financeKeywords is the fixed French financial lexicon used by the
// quality score's finance-keyword bucket, grounded on the original
// enhanced scraper's FINANCE_KEYWORDS list.
var financeKeywords = []string{
	"bourse", "masi", "action", "actions", "investissement", "investisseur",
	"marché financier", "capitalisation", "dividende", "obligation",
	"taux d'intérêt", "inflation", "pib", "croissance économique",
	"banque centrale", "bank al-maghrib", "devise", "dirham", "export",
	"importation", "commerce extérieur", "déficit", "budget", "fiscalité",
	"entreprise cotée", "introduction en bourse", "opa", "résultat net",
	"chiffre d'affaires", "rendement", "portefeuille", "indice boursier",
}

var contentContainerSelectors = []string{
	".article-content", ".post-content", ".entry-content", "[itemprop=articleBody]",
}

var frenchMonths = regexp.MustCompile(
	`(?i)(\d{1,2})\s+(janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre)\s+(\d{4})`,
)

var monthIndex = map[string]time.Month{
	"janvier": time.January, "février": time.February, "fevrier": time.February,
	"mars": time.March, "avril": time.April, "mai": time.May, "juin": time.June,
	"juillet": time.July, "août": time.August, "aout": time.August,
	"septembre": time.September, "octobre": time.October, "novembre": time.November,
	"décembre": time.December, "decembre": time.December,
}

var iconURLFragments = []string{"icon", "logo", "favicon", "sprite"}

// ExtractListing returns deduplicated absolute article URLs from a
// listing page, trying strategies in order until the configured minimum
// yield is met.
func ExtractListing(html, baseURL string, adapter sources.Adapter, opts Options) ([]string, error) {
	opts = opts.withDefaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []string
	add := func(href string) {
		abs := resolveURL(baseURL, href)
		if abs == "" || seen[abs] || sources.IsExcluded(abs) {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	}

	// Strategy 1: <article> tags with an inner <a href>.
	doc.Find("article a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href)
		}
	})

	// Strategy 2: h1..h5 with text length >= 10 and an inner link.
	if len(out) < opts.MinListingYield {
		doc.Find("h1,h2,h3,h4,h5").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) < 10 {
				return
			}
			s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				if href, ok := a.Attr("href"); ok {
					add(href)
				}
			})
		})
	}

	// Strategy 3: any <a href> matching source-specific URL shape patterns.
	if len(out) < opts.MinListingYield {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			abs := resolveURL(baseURL, href)
			if abs != "" && adapter.Matches(abs) {
				add(href)
			}
		})
	}

	// Strategy 4: containers whose class matches the article/post/news
	// pattern with an inner titled link.
	if len(out) < opts.MinListingYield {
		doc.Find("[class*=article],[class*=post],[class*=news],[class*=item],[class*=card],[class*=entry]").Each(func(_ int, s *goquery.Selection) {
			s.Find("a[href][title],a[href]").Each(func(_ int, a *goquery.Selection) {
				if strings.TrimSpace(a.Text()) == "" {
					return
				}
				if href, ok := a.Attr("href"); ok {
					add(href)
				}
			})
		})
	}

	return out, nil
}

// ExtractArticle produces a full Article from an article page, or
// ErrBelowThreshold if no strategy yields enough content.
func ExtractArticle(html, url, source string, opts Options, now time.Time) (domain.Article, error) {
	opts = opts.withDefaults()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Article{}, err
	}

	content := extractContent(doc, opts.MinContentLength)
	if len(content) < opts.MinContentLength {
		return domain.Article{}, ErrBelowThreshold
	}

	art := domain.Article{
		URL:       url,
		Source:    source,
		Content:   content,
		ScrapedAt: now,
	}
	art.Title = strings.TrimSpace(doc.Find("title").First().Text())
	art.Summary = extractDescription(doc)
	art.ImageURL = resolveURL(url, extractImage(doc))
	art.Author = extractAuthor(doc)
	art.Category = attrOf(doc, `meta[property="article:section"]`, "content")
	art.Tags = tagsOf(doc)

	if pub, ok := extractPublishedAt(doc, now); ok {
		art.PublishedAt = pub
	}

	if opts.MaxAgeDays > 0 && !art.PublishedAt.IsZero() {
		if now.Sub(art.PublishedAt) > time.Duration(opts.MaxAgeDays)*24*time.Hour {
			return domain.Article{}, errors.New("extractor: article older than max age")
		}
	}

	art.QualityScore = QualityScore(art, now)

	return art, nil
}

// extractContent tries, in order: <article>; known content-class
// containers; paragraph concatenation; <main> with scaffolding stripped.
// The first strategy to yield text of sufficient length wins.
func extractContent(doc *goquery.Document, minLen int) string {
	if text := strings.TrimSpace(doc.Find("article").First().Text()); len(text) >= minLen {
		return text
	}

	for _, sel := range contentContainerSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); len(text) >= minLen {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if len(t) > 100 {
			paragraphs = append(paragraphs, t)
		}
	})
	if joined := strings.Join(paragraphs, "\n\n"); len(joined) >= minLen {
		return joined
	}

	main := doc.Find("main").First().Clone()
	main.Find("script,style,nav,footer,aside,header,form").Remove()
	if text := strings.TrimSpace(main.Text()); len(text) >= minLen {
		return text
	}

	// Return the best-effort longest candidate so callers can still see
	// why the article was rejected, even though it is below threshold.
	candidates := []string{
		strings.TrimSpace(doc.Find("article").First().Text()),
		joined(paragraphs),
		strings.TrimSpace(main.Text()),
	}
	longest := ""
	for _, c := range candidates {
		if len(c) > len(longest) {
			longest = c
		}
	}
	return longest
}

func joined(parts []string) string {
	return strings.Join(parts, "\n\n")
}

func extractDescription(doc *goquery.Document) string {
	if v := attrOf(doc, `meta[name="description"]`, "content"); v != "" {
		return v
	}
	return attrOf(doc, `meta[property="og:description"]`, "content")
}

func extractImage(doc *goquery.Document) string {
	if v := attrOf(doc, `meta[property="og:image"]`, "content"); v != "" {
		return v
	}
	if v := attrOf(doc, `meta[name="twitter:image"]`, "content"); v != "" {
		return v
	}

	var found string
	doc.Find("article img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src == "" || isIconURL(src) {
			return true
		}
		found = src
		return false
	})
	return found
}

func isIconURL(u string) bool {
	lower := strings.ToLower(u)
	for _, frag := range iconURLFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func extractAuthor(doc *goquery.Document) string {
	if v := attrOf(doc, `meta[name="author"]`, "content"); v != "" {
		return v
	}
	var found string
	doc.Find(`[class*="author" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" && len(text) < 80 {
			found = text
			return false
		}
		return true
	})
	return found
}

func extractPublishedAt(doc *goquery.Document, now time.Time) (time.Time, bool) {
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, true
		}
	}

	text := doc.Text()
	if m := frenchMonths.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthIndex[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		year, _ := strconv.Atoi(m[3])
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

func tagsOf(doc *goquery.Document) []string {
	var tags []string
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("content"); ok && v != "" {
			tags = append(tags, v)
		}
	})
	return tags
}

func attrOf(doc *goquery.Document, selector, attr string) string {
	v, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	baseHost := hostPrefix(base)
	if baseHost == "" {
		return ""
	}
	if strings.HasPrefix(ref, "/") {
		return baseHost + ref
	}
	return strings.TrimSuffix(base, "/") + "/" + ref
}

func hostPrefix(base string) string {
	idx := strings.Index(base, "://")
	if idx < 0 {
		return ""
	}
	rest := base[idx+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return base
	}
	return base[:idx+3+slash]
}

// WordCount splits on whitespace; used by the quality score's length
// bucket.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
