// Package extract fetches organization websites and distills them into the
// structured signal bag the classifier and scorer consume. All structural
// assumptions about markup live here; the rest of the core never sees raw
// HTML.
package extract

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

// Options configures the extractor.
type Options struct {
	Timeout   time.Duration
	MaxBody   int64 // bytes
	UserAgent string
	Limiter   *rate.Limiter
}

// Extractor fetches and parses organization websites.
type Extractor struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates an Extractor with sensible defaults.
func New(opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = 512 * 1024
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; LeadOptimizerBot/2.0)"
	}
	return &Extractor{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		opts:    opts,
		limiter: opts.Limiter,
	}
}

// NormalizeURL prefixes https:// when the candidate has no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// Extract fetches the URL and returns the signal bag. It never returns an
// error: network and HTTP failures yield a result carrying only FetchError,
// and parse anomalies yield an empty bag.
func (e *Extractor) Extract(ctx context.Context, rawURL string) *model.WebsiteSignals {
	targetURL := NormalizeURL(rawURL)
	if targetURL == "" {
		return &model.WebsiteSignals{}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return &model.WebsiteSignals{FetchError: err.Error()}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return &model.WebsiteSignals{FetchError: err.Error()}
	}
	req.Header.Set("User-Agent", e.opts.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		zap.L().Debug("extract: fetch failed",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return &model.WebsiteSignals{FetchError: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &model.WebsiteSignals{FetchError: "status " + resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.opts.MaxBody))
	if err != nil {
		return &model.WebsiteSignals{FetchError: err.Error()}
	}

	// Final URL after redirects.
	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	signals := e.Parse(body, resp.Header.Get("Content-Type"))
	signals.URL = finalURL
	return signals
}

// Parse extracts signals from raw HTML. Exposed separately so tests can
// exercise the extraction policy without a server.
func (e *Extractor) Parse(body []byte, contentType string) *model.WebsiteSignals {
	html := decodeCharset(body, contentType)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		zap.L().Warn("extract: parse failed", zap.Error(err))
		return &model.WebsiteSignals{}
	}

	signals := &model.WebsiteSignals{}
	rawMarkup := string(html)
	pageText := strings.ToLower(flatText(doc.Selection))

	signals.Title = strings.TrimSpace(doc.Find("title").First().Text())
	signals.MetaDescription = metaDescription(doc)
	signals.MissionStatement = missionStatement(doc, pageText)
	signals.AboutText = aboutText(doc)
	signals.Services = services(doc)
	signals.Phones = scanPhones(rawMarkup)
	signals.Emails = scanEmails(rawMarkup)
	signals.Address = scanAddress(rawMarkup)
	signals.SocialLinks = scanSocialLinks(rawMarkup)
	signals.NonprofitIndicators = nonprofitIndicators(pageText)
	signals.HasDonationPage, signals.DonationURL = donationLink(doc)

	return signals
}

// decodeCharset converts the body to UTF-8 based on the Content-Type
// charset parameter. Unknown or missing charsets pass through unchanged.
func decodeCharset(body []byte, contentType string) []byte {
	if contentType == "" {
		return body
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	name := params["charset"]
	if name == "" || strings.EqualFold(name, "utf-8") {
		return body
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}

func metaDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && desc != "" {
		return strings.TrimSpace(desc)
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return strings.TrimSpace(desc)
	}
	return ""
}

// flatText flattens a selection to space-separated text.
func flatText(sel *goquery.Selection) string {
	fields := strings.Fields(sel.Text())
	return strings.Join(fields, " ")
}
