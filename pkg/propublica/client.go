// Package propublica provides a client for the ProPublica Nonprofit
// Explorer API. The API is keyless and read-only.
package propublica

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Nonprofit Explorer operations.
type Client interface {
	// Search looks up organizations by name and returns candidate matches.
	Search(ctx context.Context, query string) (*SearchResponse, error)
	// Organization fetches the detail record for an EIN.
	Organization(ctx context.Context, ein int64) (*OrgResponse, error)
}

// SearchResponse is the parsed search.json response.
type SearchResponse struct {
	TotalResults  int       `json:"total_results"`
	Organizations []OrgStub `json:"organizations"`
}

// OrgStub is a search result entry.
type OrgStub struct {
	EIN   int64  `json:"ein"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

// OrgResponse is the parsed organizations/{ein}.json response.
type OrgResponse struct {
	Organization OrgDetail `json:"organization"`
}

// OrgDetail is the full organization record.
type OrgDetail struct {
	EIN        int64  `json:"ein"`
	Name       string `json:"name"`
	City       string `json:"city"`
	State      string `json:"state"`
	NTEECode   string `json:"ntee_code"`
	RulingDate string `json:"ruling_date"`
	Revenue    int64  `json:"revenue_amount"`
	Assets     int64  `json:"asset_amount"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
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

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Nonprofit Explorer client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://projects.propublica.org/nonprofits/api/v2",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "propublica: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "propublica: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "propublica: read body")
	}
	return body, resp.StatusCode, nil
}

func (c *httpClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	reqURL := fmt.Sprintf("%s/search.json?q=%s", c.baseURL, url.QueryEscape(query))

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("propublica: search status %d", status)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "propublica: unmarshal search response")
	}
	return &result, nil
}

func (c *httpClient) Organization(ctx context.Context, ein int64) (*OrgResponse, error) {
	reqURL := fmt.Sprintf("%s/organizations/%d.json", c.baseURL, ein)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, eris.Errorf("propublica: organization %d not found", ein)
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("propublica: organization status %d", status)
	}

	var result OrgResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "propublica: unmarshal organization response")
	}
	return &result, nil
}
