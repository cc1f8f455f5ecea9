package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"user": {"id": 1}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	assert.NoError(t, c.TestConnection(context.Background()))
}

func TestTestConnection_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))

	err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestExportTasks_FlattensCustomFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/list-1/task", r.URL.Path)
		if r.URL.Query().Get("page") != "0" {
			_, _ = w.Write([]byte(`{"tasks": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"tasks": [
			{
				"id": "t1",
				"name": "Hope House",
				"status": {"status": "open"},
				"description": "A lead",
				"custom_fields": [
					{"id": "f1", "name": "🌐 Website", "type": "url", "value": "https://hopehouse.org"},
					{"id": "f2", "name": "✅ Nonprofit Verified", "type": "checkbox", "value": true},
					{"id": "f3", "name": "📊 Compass Score", "type": "number", "value": 8.5},
					{"id": "f4", "name": "🏢 Organization Type", "type": "drop_down", "value": 1,
						"type_config": {"options": [
							{"name": "Halfway House", "orderindex": 0},
							{"name": "Recovery Center", "orderindex": 1}
						]}},
					{"id": "f5", "name": "📅 Last Enriched", "type": "date", "value": 1710000000000},
					{"id": "f6", "name": "Empty Field", "type": "text", "value": null}
				]
			}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	records, err := c.ExportTasks(context.Background(), "list-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "t1", rec.TaskID)
	assert.Equal(t, "Hope House", rec.Name)
	assert.Equal(t, "open", rec.Status)

	// Emoji prefixes strip from field names; typed values resolve to plain ones.
	assert.Equal(t, "https://hopehouse.org", rec.Fields["Website"])
	assert.Equal(t, true, rec.Fields["Nonprofit Verified"])
	assert.Equal(t, 8.5, rec.Fields["Compass Score"])
	assert.Equal(t, "Recovery Center", rec.Fields["Organization Type"])
	assert.Equal(t, "2024-03-09T16:00:00Z", rec.Fields["Last Enriched"])
	assert.NotContains(t, rec.Fields, "Empty Field")
}

func TestExportTasks_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page != "0" {
			_, _ = w.Write([]byte(`{"tasks": [{"id": "t-last", "name": "Last", "status": {"status": "open"}}]}`))
			return
		}

		// A full page of 100 tasks forces a second request.
		tasks := make([]map[string]any, 100)
		for i := range tasks {
			tasks[i] = map[string]any{
				"id":     fmt.Sprintf("t%d", i),
				"name":   fmt.Sprintf("Task %d", i),
				"status": map[string]any{"status": "open"},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tasks": tasks})
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	records, err := c.ExportTasks(context.Background(), "list-1")
	require.NoError(t, err)
	assert.Len(t, records, 101)
	assert.Equal(t, "t-last", records[100].TaskID)
}

func TestExportTasks_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	_, err := c.ExportTasks(context.Background(), "list-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSetCustomField(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/task/t1/field/f1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL))

	require.NoError(t, c.SetCustomField(context.Background(), "t1", "f1", 8.5))
	assert.Equal(t, 8.5, received["value"])
}

func TestTaskRecord_Field(t *testing.T) {
	rec := TaskRecord{Fields: map[string]any{
		"Company": "  Hope House ",
		"Score":   8.5,
	}}

	assert.Equal(t, "Hope House", rec.Field("Company"))
	assert.Equal(t, "Hope House", rec.Field("Organization", "Company"))
	assert.Equal(t, "8.5", rec.Field("Score"))
	assert.Empty(t, rec.Field("Missing"))
}
