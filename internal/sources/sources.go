// Package sources holds the data-only source adapter table: a source is
// a name, its listing entry points, URL patterns that qualify a link as
// an article, and a per-host spacing. Adding a source means adding an
// entry here, never a new code path.
package sources

import (
	"regexp"
	"strings"
)

// Adapter describes one news source.
type Adapter struct {
	Name        string
	ListingURLs []string
	URLPatterns []*regexp.Regexp
	SpacingMs   int
}

// Matches reports whether url qualifies as an article link for this
// source, per its URL patterns.
func (a Adapter) Matches(url string) bool {
	for _, p := range a.URLPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

// Default returns the five sources shipped by default, grounded on the
// original scraper's SOURCES table.
func Default() []Adapter {
	return []Adapter{
		{
			Name:        "medias24",
			ListingURLs: []string{"https://medias24.com/categorie/economie/"},
			URLPatterns: []*regexp.Regexp{regexp.MustCompile(`/20\d{2}/\d{2}/\d{2}/`)},
			SpacingMs:   1500,
		},
		{
			Name:        "challenge",
			ListingURLs: []string{"https://www.challenge.ma/categorie/economie/"},
			URLPatterns: []*regexp.Regexp{regexp.MustCompile(`/\d{5,}/`)},
			SpacingMs:   1500,
		},
		{
			Name:        "lavieeco",
			ListingURLs: []string{"https://www.lavieeco.com/economie/"},
			URLPatterns: []*regexp.Regexp{regexp.MustCompile(`lavieeco\.com/[a-z0-9-]+/$`)},
			SpacingMs:   2000,
		},
		{
			Name:        "leconomiste",
			ListingURLs: []string{"https://www.leconomiste.com/rubrique/finances"},
			URLPatterns: []*regexp.Regexp{regexp.MustCompile(`/article/\d+`)},
			SpacingMs:   2000,
		},
		{
			Name:        "boursenews",
			ListingURLs: []string{"https://www.boursenews.ma/articles/economie"},
			URLPatterns: []*regexp.Regexp{regexp.MustCompile(`/articles/[a-z0-9-]+`)},
			SpacingMs:   1500,
		},
	}
}

// ExcludedPathSubstrings are always-excluded URL fragments.
var ExcludedPathSubstrings = []string{
	"/tag/", "/category/", "/categorie/", "/author/", "/auteur/",
	"/contact", "/about", "/a-propos", "/video", "/podcast",
	"/gallery", "/galerie", "/newsletter", "/login",
}

// IsExcluded reports whether url contains any always-excluded fragment.
func IsExcluded(url string) bool {
	lower := strings.ToLower(url)
	for _, frag := range ExcludedPathSubstrings {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
