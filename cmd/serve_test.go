package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyan-labs/lead-optimizer/internal/classify"
	"github.com/banyan-labs/lead-optimizer/internal/enrich"
	"github.com/banyan-labs/lead-optimizer/internal/extract"
	"github.com/banyan-labs/lead-optimizer/internal/model"
	"github.com/banyan-labs/lead-optimizer/internal/nonprofit"
	"github.com/banyan-labs/lead-optimizer/internal/scoring"
)

func testCoordinator() *enrich.Coordinator {
	rules := model.DefaultRules()
	return enrich.New(enrich.Options{
		Cascade:    nonprofit.NewCascade(nonprofit.NewEINFormatSource()),
		Extractor:  extract.New(extract.Options{}),
		Classifier: classify.New(rules.OrgTypes),
		Engine:     scoring.NewEngine(rules),
	})
}

func TestServeMux_Health(t *testing.T) {
	mux := serveMux(context.Background(), testCoordinator())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeMux_EnrichRequiresCompany(t *testing.T) {
	mux := serveMux(context.Background(), testCoordinator())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enrich",
		strings.NewReader(`{"website":"https://example.org"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeMux_EnrichRejectsBadJSON(t *testing.T) {
	mux := serveMux(context.Background(), testCoordinator())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enrich",
		strings.NewReader(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeMux_EnrichAccepted(t *testing.T) {
	mux := serveMux(context.Background(), testCoordinator())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enrich",
		strings.NewReader(`{"company":"Hope House"}`)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hope House")
}
