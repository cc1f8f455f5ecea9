package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Bonus hook names understood by the scoring engine. A rule set opts into
// product-specific heuristics by listing hook names, never by code change.
const (
	HookResidential    = "residential"
	HookMultiLocation  = "multi_location"
	HookDonationPage   = "donation_page"
	HookSmallRevenue   = "small_revenue"
	HookRecentFounding = "recent_founding"
)

// RuleSet is the scoring configuration for one product. The scoring
// algorithm is rule-set-agnostic; adding a product is purely configuration.
type RuleSet struct {
	Key                 string   `yaml:"key" json:"key"`
	Name                string   `yaml:"name" json:"name"`
	TargetKeywords      []string `yaml:"target_keywords" json:"target_keywords"`
	RequiresNonprofit   bool     `yaml:"requires_nonprofit" json:"requires_nonprofit"`
	HighValueTypes      []string `yaml:"high_value_types" json:"high_value_types,omitempty"`
	MediumValueTypes    []string `yaml:"medium_value_types" json:"medium_value_types,omitempty"`
	NonprofitMultiplier float64  `yaml:"nonprofit_multiplier" json:"nonprofit_multiplier,omitempty"`
	BonusHooks          []string `yaml:"bonus_hooks" json:"bonus_hooks,omitempty"`
	MinScore            float64  `yaml:"min_score" json:"min_score"`
	MaxScore            float64  `yaml:"max_score" json:"max_score"`
	QualifiedThreshold  float64  `yaml:"qualified_threshold" json:"qualified_threshold"`
	HighPriority        float64  `yaml:"high_priority_threshold" json:"high_priority_threshold"`
}

// OrgTypeCategory is one organization-type bucket for the classifier.
// Override categories win outright when at least OverrideMin of their
// keywords match, regardless of other category counts.
type OrgTypeCategory struct {
	Key         string   `yaml:"key" json:"key"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Override    bool     `yaml:"override" json:"override,omitempty"`
	OverrideMin int      `yaml:"override_min" json:"override_min,omitempty"`
}

// Rules bundles the product rule sets and the classifier category table.
// Both are ordered: ties in scoring and classification resolve to the
// order configured here.
type Rules struct {
	Products []RuleSet         `yaml:"products"`
	OrgTypes []OrgTypeCategory `yaml:"org_types"`
}

// LoadRules reads the rules file. An empty path returns the built-in
// defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read %s", path)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "rules: parse")
	}

	if len(r.OrgTypes) == 0 {
		r.OrgTypes = DefaultRules().OrgTypes
	}
	for i := range r.Products {
		if r.Products[i].Key == "" {
			return nil, eris.Errorf("rules: product %d has no key", i)
		}
		if r.Products[i].MaxScore == 0 {
			r.Products[i].MaxScore = 10.0
		}
	}
	return &r, nil
}

// Product returns the rule set for a key, or nil if not configured.
func (r *Rules) Product(key string) *RuleSet {
	for i := range r.Products {
		if r.Products[i].Key == key {
			return &r.Products[i]
		}
	}
	return nil
}

// DefaultRules returns the built-in compass and upcurve rule sets and the
// default organization-type table.
func DefaultRules() *Rules {
	return &Rules{
		Products: []RuleSet{
			{
				Key:  "compass",
				Name: "Compass - Residential Program Management",
				TargetKeywords: []string{
					"halfway house", "recovery", "sober living", "residential",
					"group home", "transitional", "reentry", "treatment center",
					"therapeutic community", "oxford house",
				},
				HighValueTypes:      []string{"halfway_house", "recovery_center", "sober_living", "group_home"},
				MediumValueTypes:    []string{"transitional_housing", "shelter", "mental_health"},
				NonprofitMultiplier: 1.2,
				BonusHooks:          []string{HookResidential, HookMultiLocation},
				MinScore:            3.0,
				MaxScore:            10.0,
				QualifiedThreshold:  6.0,
				HighPriority:        8.0,
			},
			{
				Key:  "upcurve",
				Name: "Upcurve - Nonprofit Fundraising",
				TargetKeywords: []string{
					"nonprofit", "501c3", "charity", "foundation", "fundraising",
					"donation", "giving", "philanthropic", "tax-exempt", "ngo",
				},
				RequiresNonprofit:  true,
				BonusHooks:         []string{HookDonationPage, HookSmallRevenue, HookRecentFounding},
				MinScore:           2.0,
				MaxScore:           10.0,
				QualifiedThreshold: 6.0,
				HighPriority:       8.0,
			},
		},
		OrgTypes: []OrgTypeCategory{
			{Key: "halfway_house", Keywords: []string{"halfway house", "reentry", "re-entry", "transitional living", "second chance"}},
			{Key: "recovery_center", Keywords: []string{"recovery", "rehab", "addiction", "substance abuse", "detox", "treatment"}},
			{Key: "sober_living", Keywords: []string{"sober living", "sober house", "recovery residence", "oxford house"}},
			{Key: "transitional_housing", Keywords: []string{"transitional housing", "temporary housing", "bridge housing"}},
			{Key: "shelter", Keywords: []string{"shelter", "safe house", "emergency housing", "crisis housing"}},
			{Key: "group_home", Keywords: []string{"group home", "residential care", "assisted living", "adult family home"}},
			{Key: "mental_health", Keywords: []string{"mental health", "psychiatric", "behavioral health", "psych"}},
			{Key: "faith_based", Keywords: []string{"church", "ministry", "christian", "catholic", "baptist", "methodist"}},
			{Key: "community_service", Keywords: []string{"community", "ymca", "ywca", "boys girls club", "community center"}},
			{Key: "nonprofit_general", Keywords: []string{"nonprofit", "non-profit", "501c3", "charity", "foundation"}},
			{Key: "generic_b2b", Keywords: []string{"software", "solutions", "saas", "platform", "consulting", "b2b"}, Override: true, OverrideMin: 2},
		},
	}
}
