// Package pipeline implements the per-row enrichment sequence: normalize the
// URL, fetch the site, extract signals, and collect records in input order.
package pipeline

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadenrich/internal/config"
)

// maxBodyBytes caps how much of a response body is read before text
// extraction. Pages larger than this are truncated, not rejected.
const maxBodyBytes = 512 * 1024

// SiteFetcher fetches a single URL and returns its visible text.
type SiteFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages via net/http, strips non-content markup, and
// truncates the visible text to a fixed cap. One attempt per URL, no retries.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxChars  int
	limiter   *rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher from config. A requests_per_sec of
// zero disables pacing.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxChars := cfg.MaxPageChars
	if maxChars == 0 {
		maxChars = 8000
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: cfg.UserAgent,
		maxChars:  maxChars,
		limiter:   limiter,
	}
}

// Fetch retrieves the page and returns its visible text: scripts, styles,
// navigation, and footers removed, whitespace collapsed, length capped.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "fetch: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetch: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("fetch: status %d", resp.StatusCode)
	}

	// Sites still serve ISO-8859-1 and friends; decode to UTF-8 before
	// parsing, keyed off the Content-Type header and meta tags.
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", eris.Wrap(err, "fetch: detect charset")
	}

	text, err := ExtractText(body)
	if err != nil {
		return "", eris.Wrap(err, "fetch: parse html")
	}

	return truncateRunes(text, f.maxChars), nil
}

// ExtractText strips non-content markup from an HTML document and returns
// the visible text with whitespace collapsed to single spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, footer").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// failureReason renders an error for the status detail column, truncated so
// downstream display stays readable.
func failureReason(err error, limit int) string {
	if err == nil {
		return ""
	}
	return truncateRunes(err.Error(), limit)
}

// truncateRunes caps s at limit bytes without splitting a multi-byte rune:
// a cut that lands mid-rune backs off to the previous boundary.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
