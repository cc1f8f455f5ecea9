package propublica

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "test charity", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_results": 1,
			"organizations": [
				{"ein": 123456789, "name": "TEST CHARITY INC", "city": "Austin", "state": "TX"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	resp, err := c.Search(context.Background(), "test charity")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalResults)
	require.Len(t, resp.Organizations, 1)
	assert.Equal(t, int64(123456789), resp.Organizations[0].EIN)
	assert.Equal(t, "TEST CHARITY INC", resp.Organizations[0].Name)
	assert.Equal(t, "TX", resp.Organizations[0].State)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total_results": 0, "organizations": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	resp, err := c.Search(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, resp.Organizations)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Search(context.Background(), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOrganization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations/123456789.json", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"organization": {
				"ein": 123456789,
				"name": "TEST CHARITY INC",
				"city": "Austin",
				"state": "TX",
				"ntee_code": "F22",
				"ruling_date": "2015-06-01",
				"revenue_amount": 1000000,
				"asset_amount": 2500000
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	resp, err := c.Organization(context.Background(), 123456789)
	require.NoError(t, err)

	org := resp.Organization
	assert.Equal(t, "TEST CHARITY INC", org.Name)
	assert.Equal(t, "F22", org.NTEECode)
	assert.Equal(t, "2015-06-01", org.RulingDate)
	assert.Equal(t, int64(1_000_000), org.Revenue)
	assert.Equal(t, int64(2_500_000), org.Assets)
}

func TestOrganization_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Organization(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSearch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Search(context.Background(), "test")
	assert.Error(t, err)
}
