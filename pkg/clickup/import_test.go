package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allEnrichmentFieldDefs renders every enrichment field as an existing list
// field so EnsureEnrichmentFields has nothing to create.
func allEnrichmentFieldDefs() []FieldDef {
	defs := make([]FieldDef, len(enrichmentFields))
	for i, f := range enrichmentFields {
		defs[i] = FieldDef{ID: fmt.Sprintf("f%d", i), Name: f.Name, Type: f.Type}
	}
	return defs
}

func TestListFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/list-1/field", r.URL.Path)
		_, _ = w.Write([]byte(`{"fields": [{"id": "f1", "name": "Company", "type": "short_text"}]}`))
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	fields, err := c.ListFields(context.Background(), "list-1")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "f1", fields[0].ID)
	assert.Equal(t, "Company", fields[0].Name)
}

func TestEnsureEnrichmentFields_CreatesMissing(t *testing.T) {
	var created []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Only one enrichment field exists up front.
			_ = json.NewEncoder(w).Encode(map[string]any{
				"fields": []FieldDef{{ID: "existing", Name: "📊 Compass Score", Type: "number"}},
			})
			return
		}

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		name := payload["name"].(string)
		created = append(created, name)
		_ = json.NewEncoder(w).Encode(FieldDef{ID: "new-" + name, Name: name})
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	mapping, err := c.EnsureEnrichmentFields(context.Background(), "list-1")
	require.NoError(t, err)

	assert.Len(t, mapping, len(enrichmentFields))
	assert.Equal(t, "existing", mapping["📊 Compass Score"])
	assert.Len(t, created, len(enrichmentFields)-1)
	assert.Contains(t, created, "🏢 Organization Type")
	assert.NotContains(t, created, "📊 Compass Score")
}

func TestEnsureEnrichmentFields_CreateFailureTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"fields": []}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	mapping, err := c.EnsureEnrichmentFields(context.Background(), "list-1")
	require.NoError(t, err)
	assert.Empty(t, mapping)
}

func TestImportEnriched(t *testing.T) {
	var updates map[string][]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"fields": allEnrichmentFieldDefs()})
		case r.Method == http.MethodPut:
			taskID := strings.TrimPrefix(r.URL.Path, "/task/")
			var payload struct {
				CustomFields []map[string]any `json:"custom_fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			if updates == nil {
				updates = make(map[string][]map[string]any)
			}
			updates[taskID] = payload.CustomFields
			if taskID == "t-broken" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	rows := []map[string]any{
		{
			"task_id":           "t1",
			"company":           "Hope House",
			"org_type":          "halfway_house",
			"is_nonprofit":      true,
			"compass_score":     8.5,
			"upcurve_score":     4.0,
			"compass_reason":    "3 relevant keywords",
			"best_product":      "compass",
			"has_donation_page": true,
			"ein":               "123456789",
		},
		{"company": "No Task"},
		{"task_id": "t-broken", "compass_score": 1.0},
	}

	result, err := c.ImportEnriched(context.Background(), "list-1", rows)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.ElementsMatch(t, []string{"row_1", "t-broken"}, result.FailedIDs)

	require.Contains(t, updates, "t1")
	values := make(map[string]any)
	fieldNames := make(map[string]string)
	for _, d := range allEnrichmentFieldDefs() {
		fieldNames[d.ID] = d.Name
	}
	for _, fv := range updates["t1"] {
		values[fieldNames[fv["id"].(string)]] = fv["value"]
	}

	assert.Equal(t, "Halfway House", values["🏢 Organization Type"])
	assert.Equal(t, true, values["✅ Nonprofit Verified"])
	assert.Equal(t, 8.5, values["📊 Compass Score"])
	assert.Equal(t, "Compass", values["🎯 Best Product Fit"])
	assert.Equal(t, "123456789", values["🏛️ EIN Number"])
	notes, _ := values["🔍 Enrichment Notes"].(string)
	assert.Contains(t, notes, "Compass: 3 relevant keywords")
	assert.Contains(t, notes, "Upcurve: N/A")
	assert.Contains(t, values, "📅 Last Enriched")
}

func TestBestProductLabel(t *testing.T) {
	cases := []struct {
		name string
		row  map[string]any
		want string
	}{
		{"both high", map[string]any{"compass_score": 8.0, "upcurve_score": 7.5, "best_product": "compass"}, "Both High"},
		{"compass", map[string]any{"compass_score": 8.0, "upcurve_score": 2.0, "best_product": "compass"}, "Compass"},
		{"upcurve", map[string]any{"compass_score": 3.0, "upcurve_score": 8.0, "best_product": "upcurve"}, "Upcurve"},
		{"neither", map[string]any{"best_product": "none"}, "Neither"},
		{"empty row", map[string]any{}, "Neither"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, bestProductLabel(tc.row))
		})
	}
}

func TestEnrichmentNotes(t *testing.T) {
	notes := enrichmentNotes(map[string]any{
		"compass_reason": "High-value org type",
	})

	assert.Contains(t, notes, "Enriched on ")
	assert.Contains(t, notes, "Compass: High-value org type")
	assert.Contains(t, notes, "Upcurve: N/A")
}

func TestOrgTypeLabels_UnknownFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{"fields": allEnrichmentFieldDefs()})
			return
		}
		var payload struct {
			CustomFields []map[string]any `json:"custom_fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		for _, fv := range payload.CustomFields {
			if fv["id"] == "f0" { // 🏢 Organization Type
				assert.Equal(t, "Unknown", fv["value"])
			}
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	result, err := c.ImportEnriched(context.Background(), "list-1", []map[string]any{
		{"task_id": "t1", "org_type": "weird_type"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
}
