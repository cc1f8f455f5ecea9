package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FieldDef describes one custom field on a list.
type FieldDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ImportResult summarizes a batch write-back of enriched leads.
type ImportResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	FailedIDs  []string `json:"failed_ids,omitempty"`
}

// enrichmentFields are the custom fields the importer writes. The emoji
// prefixes follow the sales team's workspace convention; the exporter strips
// them again when flattening.
var enrichmentFields = []struct {
	Name   string
	Type   string
	Config map[string]any
}{
	{Name: "🏢 Organization Type", Type: "drop_down", Config: map[string]any{
		"options": dropdownOptions(
			"Halfway House", "Recovery Center", "Sober Living", "Group Home",
			"Transitional Housing", "Shelter", "Mental Health", "Faith Based",
			"Community Service", "Nonprofit General", "Unknown",
		),
	}},
	{Name: "✅ Nonprofit Verified", Type: "checkbox"},
	{Name: "📊 Compass Score", Type: "number"},
	{Name: "💰 Upcurve Score", Type: "number"},
	{Name: "🎯 Best Product Fit", Type: "drop_down", Config: map[string]any{
		"options": dropdownOptions("Compass", "Upcurve", "Both High", "Neither"),
	}},
	{Name: "📈 Data Quality", Type: "number"},
	{Name: "🔍 Enrichment Notes", Type: "text"},
	{Name: "📅 Last Enriched", Type: "date"},
	{Name: "💵 Has Donation Page", Type: "checkbox"},
	{Name: "🏛️ EIN Number", Type: "short_text"},
}

func dropdownOptions(names ...string) []map[string]any {
	opts := make([]map[string]any, len(names))
	for i, n := range names {
		opts[i] = map[string]any{"name": n, "color": i}
	}
	return opts
}

func (c *httpClient) ListFields(ctx context.Context, listID string) ([]FieldDef, error) {
	body, status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/list/%s/field", listID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("clickup: list fields status %d", status)
	}

	var resp struct {
		Fields []FieldDef `json:"fields"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "clickup: unmarshal fields")
	}
	return resp.Fields, nil
}

// EnsureEnrichmentFields creates any missing enrichment custom fields on the
// list and returns a field name to ID mapping covering all of them.
func (c *httpClient) EnsureEnrichmentFields(ctx context.Context, listID string) (map[string]string, error) {
	existing, err := c.ListFields(ctx, listID)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]string, len(enrichmentFields))
	for _, f := range existing {
		mapping[f.Name] = f.ID
	}

	for _, f := range enrichmentFields {
		if _, ok := mapping[f.Name]; ok {
			continue
		}
		payload := map[string]any{"name": f.Name, "type": f.Type}
		if f.Config != nil {
			payload["type_config"] = f.Config
		}
		body, status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/list/%s/field", listID), payload)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			zap.L().Warn("clickup: create field failed",
				zap.String("field", f.Name),
				zap.Int("status", status))
			continue
		}
		var created FieldDef
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, eris.Wrapf(err, "clickup: unmarshal created field %s", f.Name)
		}
		mapping[f.Name] = created.ID
		zap.L().Info("clickup: created field", zap.String("field", f.Name))
	}

	return mapping, nil
}

// importFieldMap links flat enrichment keys to custom field names.
var importFieldMap = map[string]string{
	"org_type":           "🏢 Organization Type",
	"is_nonprofit":       "✅ Nonprofit Verified",
	"compass_score":      "📊 Compass Score",
	"upcurve_score":      "💰 Upcurve Score",
	"best_product":       "🎯 Best Product Fit",
	"data_quality_score": "📈 Data Quality",
	"has_donation_page":  "💵 Has Donation Page",
	"ein":                "🏛️ EIN Number",
}

// ImportEnriched writes enriched lead rows back to their ClickUp tasks.
// Rows without a task_id and per-task update failures are tolerated and
// counted; only setup failures abort the import.
func (c *httpClient) ImportEnriched(ctx context.Context, listID string, rows []map[string]any) (*ImportResult, error) {
	mapping, err := c.EnsureEnrichmentFields(ctx, listID)
	if err != nil {
		return nil, eris.Wrap(err, "clickup: ensure enrichment fields")
	}

	result := &ImportResult{Total: len(rows)}
	for i, row := range rows {
		taskID, _ := row["task_id"].(string)
		if taskID == "" {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, fmt.Sprintf("row_%d", i))
			continue
		}

		if err := c.updateTask(ctx, taskID, row, mapping); err != nil {
			zap.L().Error("clickup: task update failed",
				zap.String("task", taskID), zap.Error(err))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, taskID)
		} else {
			result.Successful++
		}

		if (i+1)%10 == 0 {
			zap.L().Info("clickup: import progress",
				zap.Int("done", i+1), zap.Int("total", len(rows)))
		}
	}

	zap.L().Info("clickup: import complete",
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
	return result, nil
}

// orgTypeLabels maps classifier keys to dropdown option names.
var orgTypeLabels = map[string]string{
	"halfway_house":        "Halfway House",
	"recovery_center":      "Recovery Center",
	"sober_living":         "Sober Living",
	"group_home":           "Group Home",
	"transitional_housing": "Transitional Housing",
	"shelter":              "Shelter",
	"mental_health":        "Mental Health",
	"faith_based":          "Faith Based",
	"community_service":    "Community Service",
	"nonprofit_general":    "Nonprofit General",
}

func (c *httpClient) updateTask(ctx context.Context, taskID string, row map[string]any, mapping map[string]string) error {
	type fieldValue struct {
		ID    string `json:"id"`
		Value any    `json:"value"`
	}
	var fields []fieldValue

	for key, fieldName := range importFieldMap {
		id, ok := mapping[fieldName]
		if !ok {
			continue
		}
		value, ok := row[key]
		if !ok {
			continue
		}
		switch key {
		case "org_type":
			label, ok := orgTypeLabels[fmt.Sprint(value)]
			if !ok {
				label = "Unknown"
			}
			value = label
		case "best_product":
			value = bestProductLabel(row)
		}
		fields = append(fields, fieldValue{ID: id, Value: value})
	}

	if id, ok := mapping["🔍 Enrichment Notes"]; ok {
		fields = append(fields, fieldValue{ID: id, Value: enrichmentNotes(row)})
	}
	if id, ok := mapping["📅 Last Enriched"]; ok {
		fields = append(fields, fieldValue{ID: id, Value: time.Now().UnixMilli()})
	}

	if len(fields) == 0 {
		return nil
	}

	body, status, err := c.do(ctx, http.MethodPut, "/task/"+taskID,
		map[string]any{"custom_fields": fields})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return eris.Errorf("clickup: update task status %d: %s", status, string(body))
	}
	return nil
}

// bestProductLabel renders the best-product dropdown value. Leads scoring
// above 7 on both products get the combined label.
func bestProductLabel(row map[string]any) string {
	compass, _ := row["compass_score"].(float64)
	upcurve, _ := row["upcurve_score"].(float64)
	if compass > 7 && upcurve > 7 {
		return "Both High"
	}
	switch row["best_product"] {
	case "compass":
		return "Compass"
	case "upcurve":
		return "Upcurve"
	default:
		return "Neither"
	}
}

func enrichmentNotes(row map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enriched on %s\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Compass: %s\n", stringOr(row["compass_reason"], "N/A"))
	fmt.Fprintf(&b, "Upcurve: %s", stringOr(row["upcurve_reason"], "N/A"))
	return b.String()
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
