// Package fetcher implements a polite, fault-tolerant HTTP GET with
// per-host rate limiting, user-agent rotation and retry/backoff.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors the rest of the pipeline branches on.
var (
	// ErrNotHTML is returned when an article fetch resolves to a
	// non-HTML content type.
	ErrNotHTML = errors.New("fetcher: response is not html")
	// ErrForbidden is returned for a terminal 403 with no headless
	// fallback configured.
	ErrForbidden = errors.New("fetcher: forbidden (403)")
	// ErrTerminal wraps a non-429 4xx, which is not retried.
	ErrTerminal = errors.New("fetcher: terminal client error")
	// ErrRetriesExhausted is returned when all retry attempts fail.
	ErrRetriesExhausted = errors.New("fetcher: retries exhausted")
)

// userAgents is the fixed pool cycled on every request; no UA is pinned to
// a host.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Options controls a single fetch.
type Options struct {
	Timeout          time.Duration
	SpacingMs        int
	MaxRetries       int
	RequireHTML      bool
	HeadlessFallback func(ctx context.Context, u string) (string, string, error)
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 25 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return o
}

// Fetcher issues rate-limited, retried GET requests.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger

	mu       sync.Mutex
	lastHit  map[string]time.Time
	uaCursor int
}

// New creates a Fetcher. The client's own Timeout is left at zero; each
// request gets its own context-derived deadline from Options.Timeout.
func New(log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:  &http.Client{},
		log:     log.With().Str("component", "fetcher").Logger(),
		lastHit: make(map[string]time.Time),
	}
}

// Fetch performs a polite GET, returning the body and the final URL after
// redirects.
func (f *Fetcher) Fetch(ctx context.Context, target string, opts Options) (string, string, error) {
	opts = opts.withDefaults()

	host, err := hostOf(target)
	if err != nil {
		return "", "", fmt.Errorf("fetcher: parse url: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		f.waitForSlot(host, opts.SpacingMs)

		reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		body, finalURL, status, contentType, err := f.do(reqCtx, target)
		cancel()
		if err == nil {
			if opts.RequireHTML && !strings.Contains(strings.ToLower(contentType), "html") {
				return "", "", ErrNotHTML
			}
			return body, finalURL, nil
		}

		var he *httpStatusError
		if errors.As(err, &he) {
			switch {
			case he.status == http.StatusForbidden:
				if opts.HeadlessFallback != nil {
					return opts.HeadlessFallback(ctx, target)
				}
				return "", "", ErrForbidden
			case he.status == http.StatusTooManyRequests || he.status >= 500:
				lastErr = err
			case he.status >= 400:
				return "", "", fmt.Errorf("%w: status %d", ErrTerminal, he.status)
			}
		} else {
			lastErr = err
		}
		_ = status

		if attempt < opts.MaxRetries {
			backoff := jitter(time.Duration(1<<uint(attempt)) * time.Second)
			f.log.Debug().Str("url", target).Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return "", "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", "", fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string { return fmt.Sprintf("unexpected status %d", e.status) }

func (f *Fetcher) do(ctx context.Context, target string) (body, finalURL string, status int, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", 0, "", err
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", 0, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", resp.StatusCode, "", err
	}

	if resp.StatusCode >= 400 {
		return "", "", resp.StatusCode, resp.Header.Get("Content-Type"), &httpStatusError{status: resp.StatusCode}
	}

	return string(data), resp.Request.URL.String(), resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

func (f *Fetcher) nextUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ua := userAgents[f.uaCursor%len(userAgents)]
	f.uaCursor++
	return ua
}

// waitForSlot sleeps for the deficit if the host was hit more recently
// than spacingMs ago.
func (f *Fetcher) waitForSlot(host string, spacingMs int) {
	if spacingMs <= 0 {
		return
	}
	spacing := time.Duration(spacingMs) * time.Millisecond

	f.mu.Lock()
	last, seen := f.lastHit[host]
	f.mu.Unlock()

	if seen {
		deficit := spacing - time.Since(last)
		if deficit > 0 {
			time.Sleep(deficit)
		}
	}

	f.mu.Lock()
	f.lastHit[host] = time.Now()
	f.mu.Unlock()
}

func hostOf(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}

// jitter adds up to 25% random skew to a backoff duration, so concurrent
// retries across hosts don't all wake up at once.
func jitter(base time.Duration) time.Duration {
	return base + time.Duration(rand.Int63n(int64(base/4+1)))
}
