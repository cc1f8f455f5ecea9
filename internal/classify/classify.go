// Package classify assigns organization-type labels from accumulated text
// signals by keyword counting. It is deterministic for a given text and
// category table.
package classify

import (
	"strings"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

// confidenceDivisor normalizes a keyword-match count into [0,1].
const confidenceDivisor = 3.0

// defaultOverrideMin is the match count an override category needs to win
// outright when the category does not configure its own.
const defaultOverrideMin = 2

// Classifier scores text against an ordered category table. Ties between
// equal counts resolve to table order.
type Classifier struct {
	categories []model.OrgTypeCategory
}

// New creates a Classifier over the given category table.
func New(categories []model.OrgTypeCategory) *Classifier {
	return &Classifier{categories: categories}
}

// CombinedText concatenates and lowercases every text field the classifier
// considers for an enriched lead.
func CombinedText(lead *model.EnrichedLead) string {
	parts := []string{
		lead.Company,
		lead.BusinessMission,
	}
	if ws := lead.Enrichment.Website; ws != nil {
		parts = append(parts, ws.Title, ws.MetaDescription, ws.MissionStatement, ws.AboutText)
		parts = append(parts, ws.Services...)
	}
	parts = append(parts, lead.SearchSnippets...)

	return strings.ToLower(strings.Join(parts, " "))
}

// Classify scores each category by counting keyword substrings in the
// combined text. The highest nonzero count wins; override categories win
// outright once they reach their minimum match count.
func (c *Classifier) Classify(text string) *model.Classification {
	text = strings.ToLower(text)

	result := &model.Classification{
		OrgType:    "unknown",
		Confidence: 0.0,
		TypeScores: make(map[string]int),
	}

	type scored struct {
		category model.OrgTypeCategory
		count    int
		matched  []string
	}

	var all []scored
	for _, cat := range c.categories {
		var matched []string
		for _, kw := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			result.TypeScores[cat.Key] = len(matched)
			all = append(all, scored{category: cat, count: len(matched), matched: matched})
		}
	}

	if len(all) == 0 {
		result.TypeScores = nil
		return result
	}

	// Override categories win outright at their match threshold.
	winner := all[0]
	overrideWon := false
	for _, s := range all {
		min := s.category.OverrideMin
		if min <= 0 {
			min = defaultOverrideMin
		}
		if s.category.Override && s.count >= min {
			winner = s
			overrideWon = true
			break
		}
	}
	if !overrideWon {
		for _, s := range all[1:] {
			if s.count > winner.count {
				winner = s
			}
		}
	}

	result.OrgType = winner.category.Key
	result.Confidence = confidence(winner.count)
	result.Keywords = winner.matched
	return result
}

func confidence(count int) float64 {
	conf := float64(count) / confidenceDivisor
	if conf > 1.0 {
		return 1.0
	}
	return conf
}
