// Package clickup provides a thin client for the ClickUp task API. It is
// the CRM boundary: tasks export as flat lead records and enriched fields
// write back as custom-field updates. No enrichment logic lives here.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client defines the ClickUp operations used by the pipeline.
type Client interface {
	// TestConnection verifies the API key against the authorized-user endpoint.
	TestConnection(ctx context.Context) error
	// ExportTasks pages through a list and returns every task as a flat record.
	ExportTasks(ctx context.Context, listID string) ([]TaskRecord, error)
	// SetCustomField writes one custom-field value on a task.
	SetCustomField(ctx context.Context, taskID, fieldID string, value any) error
	// ListFields returns the custom fields defined on a list.
	ListFields(ctx context.Context, listID string) ([]FieldDef, error)
	// EnsureEnrichmentFields creates missing enrichment fields on a list
	// and returns a name-to-ID mapping.
	EnsureEnrichmentFields(ctx context.Context, listID string) (map[string]string, error)
	// ImportEnriched writes enriched lead rows back to their tasks.
	ImportEnriched(ctx context.Context, listID string, rows []map[string]any) (*ImportResult, error)
}

// TaskRecord is a flattened ClickUp task: built-in fields plus cleaned
// custom-field names mapped to their values.
type TaskRecord struct {
	TaskID      string         `json:"task_id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	Description string         `json:"description"`
	Fields      map[string]any `json:"fields"`
}

// Field returns a custom field as a trimmed string, or "" when absent.
func (t TaskRecord) Field(names ...string) string {
	for _, name := range names {
		if v, ok := t.Fields[name]; ok && v != nil {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
			return fmt.Sprint(v)
		}
	}
	return ""
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

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a ClickUp client. Requests are throttled to stay under
// the ClickUp per-token rate limit.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.clickup.com/api/v2",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(2, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, eris.Wrap(err, "clickup: rate limiter")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, eris.Wrap(err, "clickup: marshal payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, eris.Wrap(err, "clickup: create request")
	}
	req.Header.Set("Authorization", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "clickup: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "clickup: read body")
	}
	return data, resp.StatusCode, nil
}

func (c *httpClient) TestConnection(ctx context.Context) error {
	_, status, err := c.do(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return eris.Errorf("clickup: auth check status %d", status)
	}
	return nil
}

// taskPage is the paged task-list response.
type taskPage struct {
	Tasks []task `json:"tasks"`
}

type task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Status       taskStatus    `json:"status"`
	CustomFields []customField `json:"custom_fields"`
}

type taskStatus struct {
	Status string `json:"status"`
}

type customField struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      json.RawMessage `json:"value"`
	TypeConfig struct {
		Options []struct {
			Name       string `json:"name"`
			OrderIndex int    `json:"orderindex"`
		} `json:"options"`
	} `json:"type_config"`
}

func (c *httpClient) ExportTasks(ctx context.Context, listID string) ([]TaskRecord, error) {
	var records []TaskRecord

	for page := 0; ; page++ {
		path := fmt.Sprintf("/list/%s/task?include_closed=true&include_custom_fields=true&page=%d", listID, page)
		body, status, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, eris.Errorf("clickup: export status %d", status)
		}

		var tp taskPage
		if err := json.Unmarshal(body, &tp); err != nil {
			return nil, eris.Wrap(err, "clickup: unmarshal task page")
		}
		if len(tp.Tasks) == 0 {
			break
		}

		for _, t := range tp.Tasks {
			records = append(records, flattenTask(t))
		}
		zap.L().Debug("clickup: fetched task page",
			zap.String("list", listID),
			zap.Int("page", page),
			zap.Int("total", len(records)),
		)

		// ClickUp caps pages at 100 tasks; a short page is the last one.
		if len(tp.Tasks) < 100 {
			break
		}
	}

	return records, nil
}

var fieldNameCleaner = regexp.MustCompile(`[^\w\s-]`)

// flattenTask converts a task into a TaskRecord, resolving typed custom
// fields to plain values and stripping emoji from field names.
func flattenTask(t task) TaskRecord {
	fields := make(map[string]any, len(t.CustomFields))

	for _, cf := range t.CustomFields {
		name := strings.TrimSpace(fieldNameCleaner.ReplaceAllString(cf.Name, ""))
		if name == "" {
			name = strings.TrimSpace(cf.Name)
		}
		if v, ok := fieldValue(cf); ok {
			fields[name] = v
		}
	}

	return TaskRecord{
		TaskID:      t.ID,
		Name:        t.Name,
		Status:      t.Status.Status,
		Description: t.Description,
		Fields:      fields,
	}
}

func fieldValue(cf customField) (any, bool) {
	if len(cf.Value) == 0 || string(cf.Value) == "null" {
		return nil, false
	}

	switch cf.Type {
	case "drop_down":
		var idx int
		if err := json.Unmarshal(cf.Value, &idx); err != nil {
			return nil, false
		}
		for _, opt := range cf.TypeConfig.Options {
			if opt.OrderIndex == idx {
				return opt.Name, true
			}
		}
		return nil, false
	case "checkbox":
		var v struct {
			Checked bool `json:"checked"`
		}
		if err := json.Unmarshal(cf.Value, &v); err == nil {
			return v.Checked, true
		}
		var b bool
		if err := json.Unmarshal(cf.Value, &b); err == nil {
			return b, true
		}
		return nil, false
	case "number", "currency":
		var f float64
		if err := json.Unmarshal(cf.Value, &f); err == nil {
			return f, true
		}
		var s string
		if err := json.Unmarshal(cf.Value, &s); err == nil {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
		return nil, false
	case "date":
		var ms int64
		if err := json.Unmarshal(cf.Value, &ms); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC().Format(time.RFC3339), true
		}
		return nil, false
	default:
		var s string
		if err := json.Unmarshal(cf.Value, &s); err == nil {
			return s, true
		}
		var v any
		if err := json.Unmarshal(cf.Value, &v); err == nil {
			return v, true
		}
		return nil, false
	}
}

func (c *httpClient) SetCustomField(ctx context.Context, taskID, fieldID string, value any) error {
	path := fmt.Sprintf("/task/%s/field/%s", taskID, fieldID)
	body, status, err := c.do(ctx, http.MethodPost, path, map[string]any{"value": value})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return eris.Errorf("clickup: set field status %d: %s", status, string(body))
	}
	return nil
}
