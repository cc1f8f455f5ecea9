// Package model defines the lead enrichment domain types.
package model

import (
	"time"
)

// EnrichmentVersion is the schema version stamped on every enriched lead.
const EnrichmentVersion = "2.0"

// Lead is an organization record as exported from the CRM. The core never
// mutates a Lead; enrichment produces a derived EnrichedLead.
type Lead struct {
	TaskID          string         `json:"task_id,omitempty"`
	Company         string         `json:"company"`
	Website         string         `json:"website,omitempty"`
	Email           string         `json:"email,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	EIN             string         `json:"ein,omitempty"`
	Location        string         `json:"location,omitempty"`
	BusinessMission string         `json:"business_mission,omitempty"`
	Attributes      map[string]any `json:"attributes,omitempty"` // pass-through CRM fields
}

// NonprofitStatus is the outcome of the verification cascade.
type NonprofitStatus struct {
	IsNonprofit    bool     `json:"is_nonprofit"`
	EIN            string   `json:"ein,omitempty"`
	EINValidFormat *bool    `json:"ein_valid_format,omitempty"`
	NonprofitName  string   `json:"nonprofit_name,omitempty"`
	City           string   `json:"city,omitempty"`
	State          string   `json:"state,omitempty"`
	NTEECode       string   `json:"ntee_code,omitempty"`
	RulingYear     string   `json:"ruling_year,omitempty"`
	Revenue        int64    `json:"revenue,omitempty"`
	Assets         int64    `json:"asset_amount,omitempty"`
	SourcesChecked []string `json:"sources_checked"`
}

// WebsiteSignals is the structured signal bag produced by the content
// extractor. A fetch failure populates FetchError and nothing else.
type WebsiteSignals struct {
	URL                 string            `json:"website_url,omitempty"`
	Title               string            `json:"website_title,omitempty"`
	MetaDescription     string            `json:"meta_description,omitempty"`
	MissionStatement    string            `json:"mission_statement,omitempty"`
	AboutText           string            `json:"about_text,omitempty"`
	Services            []string          `json:"services_offered,omitempty"`
	Phones              []string          `json:"phones,omitempty"`
	Emails              []string          `json:"emails,omitempty"`
	Address             string            `json:"address,omitempty"`
	SocialLinks         map[string]string `json:"social_links,omitempty"`
	NonprofitIndicators []string          `json:"nonprofit_indicators,omitempty"`
	HasDonationPage     bool              `json:"has_donation_page"`
	DonationURL         string            `json:"donation_url,omitempty"`
	FetchError          string            `json:"website_error,omitempty"`
}

// SearchHit is a single generic web search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Classification is the organization-type label assigned by the classifier.
type Classification struct {
	OrgType    string         `json:"org_type"`
	Confidence float64        `json:"org_type_confidence"`
	Keywords   []string       `json:"org_type_keywords,omitempty"`
	TypeScores map[string]int `json:"all_type_scores,omitempty"`
}

// ProductScore is the scoring outcome for one product rule set.
type ProductScore struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Enrichment holds every field derived during enrichment. It is the unit
// cached by the coordinator: everything here is recomputable from external
// sources, nothing originates from the input Lead.
type Enrichment struct {
	Nonprofit      *NonprofitStatus        `json:"nonprofit,omitempty"`
	Website        *WebsiteSignals         `json:"website,omitempty"`
	SearchHits     []SearchHit             `json:"search_results,omitempty"`
	SearchSnippets []string                `json:"search_snippets,omitempty"`
	Classification *Classification         `json:"classification,omitempty"`
	ProductScores  map[string]ProductScore `json:"product_scores,omitempty"`
	BestProduct    string                  `json:"best_product,omitempty"`
	BestScore      float64                 `json:"best_score"`
	DataQuality    float64                 `json:"data_quality_score"`
	QualityChecks  map[string]bool         `json:"data_quality_checks,omitempty"`
	EnrichedAt     time.Time               `json:"enriched_at"`
	Version        string                  `json:"enrichment_version,omitempty"`
}

// EnrichedLead is the original lead plus its enrichment.
type EnrichedLead struct {
	Lead
	Enrichment
}

// Flatten renders the enriched lead as the flat field map consumed by the
// report generator and the CRM import. Key names are a compatibility
// contract; do not rename them.
func (e *EnrichedLead) Flatten() map[string]any {
	out := map[string]any{
		"company": e.Company,
	}
	put := func(key string, val any, ok bool) {
		if ok {
			out[key] = val
		}
	}
	put("task_id", e.TaskID, e.TaskID != "")
	put("website", e.Lead.Website, e.Lead.Website != "")
	put("email", e.Email, e.Email != "")
	put("phone", e.Phone, e.Phone != "")
	put("location", e.Location, e.Location != "")

	if np := e.Nonprofit; np != nil {
		out["is_nonprofit"] = np.IsNonprofit
		put("ein", np.EIN, np.EIN != "")
		put("nonprofit_name", np.NonprofitName, np.NonprofitName != "")
		put("ruling_year", np.RulingYear, np.RulingYear != "")
		put("revenue", np.Revenue, np.Revenue != 0)
		put("asset_amount", np.Assets, np.Assets != 0)
	}
	if ws := e.Enrichment.Website; ws != nil {
		put("website_url", ws.URL, ws.URL != "")
		put("website_title", ws.Title, ws.Title != "")
		put("mission_statement", ws.MissionStatement, ws.MissionStatement != "")
		out["has_donation_page"] = ws.HasDonationPage
		put("donation_url", ws.DonationURL, ws.DonationURL != "")
	}
	if c := e.Classification; c != nil {
		out["org_type"] = c.OrgType
		out["org_type_confidence"] = c.Confidence
	}
	for product, ps := range e.ProductScores {
		out[product+"_score"] = ps.Score
		out[product+"_reason"] = ps.Reason
	}
	put("best_product", e.BestProduct, e.BestProduct != "")
	if e.BestProduct != "" {
		out["best_score"] = e.BestScore
	}
	out["data_quality_score"] = e.DataQuality
	if !e.EnrichedAt.IsZero() {
		out["enriched_at"] = e.EnrichedAt.UTC().Format(time.RFC3339)
	}
	put("enrichment_version", e.Version, e.Version != "")
	return out
}
