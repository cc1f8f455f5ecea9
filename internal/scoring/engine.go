// Package scoring evaluates product rule sets against enriched leads. One
// generic algorithm serves every product; rule sets are configuration and
// product-specific heuristics are named hooks a rule set opts into.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

const (
	// SentinelScore and SentinelReason are returned for nonprofit-required
	// rule sets when the lead is not a verified nonprofit.
	SentinelScore  = 2.0
	SentinelReason = "Not a nonprofit (required for this product)"

	// LowMatchReason is the rationale when no scoring factor fires.
	LowMatchReason = "Low match"

	// NoneProduct is the best-fit sentinel when no rule sets are configured.
	NoneProduct = "none"

	keywordPointsPer = 0.5
	keywordPointsCap = 3.0
	highValueBonus   = 3.0
	mediumValueBonus = 1.5
)

// Engine scores leads against configured rule sets.
type Engine struct {
	rules *model.Rules
	hooks map[string]BonusHook
}

// NewEngine creates an Engine with the default bonus hooks registered.
func NewEngine(rules *model.Rules) *Engine {
	return &Engine{
		rules: rules,
		hooks: defaultHooks(),
	}
}

// Score evaluates one rule set for a lead.
func (e *Engine) Score(lead *model.EnrichedLead, rs *model.RuleSet) model.ProductScore {
	isNonprofit := lead.Nonprofit != nil && lead.Nonprofit.IsNonprofit

	// Nonprofit-required rule sets short-circuit everything else.
	if rs.RequiresNonprofit && !isNonprofit {
		return model.ProductScore{Score: SentinelScore, Reason: SentinelReason}
	}

	score := rs.MinScore
	var factors []string

	text := scoringText(lead)

	// Keyword matching, capped.
	matches := 0
	for _, kw := range rs.TargetKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matches++
		}
	}
	if matches > 0 {
		score += math.Min(float64(matches)*keywordPointsPer, keywordPointsCap)
		factors = append(factors, fmt.Sprintf("%d relevant keywords", matches))
	}

	// Organization-type bonus.
	orgType := "unknown"
	if lead.Classification != nil {
		orgType = lead.Classification.OrgType
	}
	if contains(rs.HighValueTypes, orgType) {
		score += highValueBonus
		factors = append(factors, "High-value org type: "+orgType)
	} else if contains(rs.MediumValueTypes, orgType) {
		score += mediumValueBonus
		factors = append(factors, "Medium-value org type: "+orgType)
	}

	// Product-specific bonuses, each independent and additive.
	for _, name := range rs.BonusHooks {
		hook, ok := e.hooks[name]
		if !ok {
			continue
		}
		if delta, note, fired := hook(lead, text); fired {
			score += delta
			factors = append(factors, note)
		}
	}

	// Nonprofit multiplier.
	if isNonprofit && rs.NonprofitMultiplier > 0 {
		score *= rs.NonprofitMultiplier
		factors = append(factors, fmt.Sprintf("Verified nonprofit (x%.1f)", rs.NonprofitMultiplier))
	}

	// Clamp and round to one decimal.
	score = math.Min(score, rs.MaxScore)
	score = math.Round(score*10) / 10

	reason := LowMatchReason
	if len(factors) > 0 {
		reason = strings.Join(factors, "; ")
	}
	return model.ProductScore{Score: score, Reason: reason}
}

// ScoreAll evaluates every configured rule set and selects the best fit.
// Ties resolve to configuration order.
func (e *Engine) ScoreAll(lead *model.EnrichedLead) (map[string]model.ProductScore, string, float64) {
	if e.rules == nil || len(e.rules.Products) == 0 {
		return nil, NoneProduct, 0
	}

	scores := make(map[string]model.ProductScore, len(e.rules.Products))
	best := ""
	bestScore := 0.0

	for i := range e.rules.Products {
		rs := &e.rules.Products[i]
		ps := e.Score(lead, rs)
		scores[rs.Key] = ps

		if best == "" || ps.Score > bestScore {
			best = rs.Key
			bestScore = ps.Score
		}
	}

	return scores, best, bestScore
}

// scoringText is the concatenated text keyword matching runs against.
func scoringText(lead *model.EnrichedLead) string {
	parts := []string{lead.Company}
	if ws := lead.Enrichment.Website; ws != nil {
		parts = append(parts, ws.MissionStatement, ws.AboutText, ws.MetaDescription)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// defaultHooks returns the named product-specific bonus heuristics.
func defaultHooks() map[string]BonusHook {
	return map[string]BonusHook{
		model.HookResidential:    residentialHook,
		model.HookMultiLocation:  multiLocationHook,
		model.HookDonationPage:   donationPageHook,
		model.HookSmallRevenue:   smallRevenueHook,
		model.HookRecentFounding: recentFoundingHook,
	}
}

// BonusHook is one product-specific heuristic. It reports the score delta,
// the factor note, and whether it fired.
type BonusHook func(lead *model.EnrichedLead, text string) (float64, string, bool)

var residentialWords = []string{"resident", "housing", "beds", "capacity"}

func residentialHook(_ *model.EnrichedLead, text string) (float64, string, bool) {
	for _, w := range residentialWords {
		if strings.Contains(text, w) {
			return 1.0, "Has residential component", true
		}
	}
	return 0, "", false
}

func multiLocationHook(lead *model.EnrichedLead, _ string) (float64, string, bool) {
	if v, ok := lead.Attributes["multiple_locations"]; ok {
		if b, ok := v.(bool); ok && b {
			return 0.5, "Multiple locations", true
		}
	}
	return 0, "", false
}

func donationPageHook(lead *model.EnrichedLead, _ string) (float64, string, bool) {
	if ws := lead.Enrichment.Website; ws != nil && ws.HasDonationPage {
		return 1.5, "Has donation page", true
	}
	return 0, "", false
}

// smallRevenueThreshold marks nonprofits that most need fundraising help.
const smallRevenueThreshold = 5_000_000

func smallRevenueHook(lead *model.EnrichedLead, _ string) (float64, string, bool) {
	if np := lead.Nonprofit; np != nil && np.Revenue > 0 && np.Revenue < smallRevenueThreshold {
		return 1.0, "Small nonprofit (<$5M)", true
	}
	return 0, "", false
}

// recentFoundingYear is the cutoff for the newer-nonprofit bonus.
const recentFoundingYear = 2018

func recentFoundingHook(lead *model.EnrichedLead, _ string) (float64, string, bool) {
	if np := lead.Nonprofit; np != nil && np.RulingYear != "" {
		if year, err := strconv.Atoi(np.RulingYear); err == nil && year > recentFoundingYear {
			return 0.5, "Newer nonprofit", true
		}
	}
	return 0, "", false
}
