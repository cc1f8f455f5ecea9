// Package websearch scrapes a public web-search results page. There is no
// official API behind it: results are best-effort, and an empty result set
// is a normal outcome, not an error.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Client defines the search operation.
type Client interface {
	// Search returns up to max results for the query. A page with no
	// recognizable results yields an empty slice and no error.
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom results-page URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent overrides the request user agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a results-page scraping client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://www.google.com/search",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, max int) ([]Result, error) {
	if max <= 0 {
		max = 5
	}
	reqURL := fmt.Sprintf("%s?q=%s&num=%d", c.baseURL, url.QueryEscape(query), max)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("websearch: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: parse results page")
	}

	return parseResults(doc, max), nil
}

// parseResults walks result blocks and keeps entries with both a title and
// a URL. The selectors track the public results-page markup and are the
// only structural assumption in this package.
func parseResults(doc *goquery.Document, max int) []Result {
	var results []Result

	doc.Find("div.g").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		var r Result

		if a := block.Find("a[href]").First(); a.Length() > 0 {
			href, _ := a.Attr("href")
			r.URL = cleanHref(href)
		}
		if h3 := block.Find("h3").First(); h3.Length() > 0 {
			r.Title = strings.TrimSpace(h3.Text())
		}
		for _, sel := range []string{"span.aCOpRe", "div.IsZvec", "div.VwiC3b"} {
			if s := block.Find(sel).First(); s.Length() > 0 {
				r.Snippet = strings.TrimSpace(s.Text())
				break
			}
		}

		if r.URL != "" && r.Title != "" {
			results = append(results, r)
		}
		return len(results) < max
	})

	return results
}

// cleanHref strips the redirect wrapper some results pages put around
// outbound links ("/url?q=<target>&...").
func cleanHref(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/url?") {
		if u, err := url.Parse(href); err == nil {
			if q := u.Query().Get("q"); q != "" {
				return q
			}
		}
	}
	return href
}
