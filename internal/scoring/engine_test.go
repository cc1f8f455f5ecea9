package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

func testEngine() *Engine {
	return NewEngine(model.DefaultRules())
}

func nonprofitLead(company string) *model.EnrichedLead {
	return &model.EnrichedLead{
		Lead: model.Lead{Company: company},
		Enrichment: model.Enrichment{
			Nonprofit: &model.NonprofitStatus{IsNonprofit: true},
		},
	}
}

func TestScore_NonprofitRequiredSentinel(t *testing.T) {
	e := testEngine()
	lead := &model.EnrichedLead{Lead: model.Lead{Company: "Acme Software"}}

	ps := e.Score(lead, e.rules.Product("upcurve"))

	assert.Equal(t, 2.0, ps.Score)
	assert.Equal(t, "Not a nonprofit (required for this product)", ps.Reason)
}

func TestScore_LowMatchBaseline(t *testing.T) {
	e := testEngine()
	lead := &model.EnrichedLead{Lead: model.Lead{Company: "Plain Company"}}

	ps := e.Score(lead, e.rules.Product("compass"))

	assert.Equal(t, 3.0, ps.Score)
	assert.Equal(t, "Low match", ps.Reason)
}

func TestScore_KeywordPointsCapped(t *testing.T) {
	e := testEngine()
	lead := &model.EnrichedLead{
		Lead: model.Lead{Company: "Recovery Center"},
		Enrichment: model.Enrichment{
			Website: &model.WebsiteSignals{
				// Eight keyword hits would add 4.0 uncapped.
				AboutText: "halfway house recovery sober living group home transitional reentry treatment center oxford house",
			},
		},
	}

	ps := e.Score(lead, e.rules.Product("compass"))

	// min 3.0 + capped keyword points 3.0.
	assert.Equal(t, 6.0, ps.Score)
	assert.Contains(t, ps.Reason, "relevant keywords")
}

func TestScore_OrgTypeBonuses(t *testing.T) {
	e := testEngine()
	rs := e.rules.Product("compass")

	high := &model.EnrichedLead{
		Lead:       model.Lead{Company: "X"},
		Enrichment: model.Enrichment{Classification: &model.Classification{OrgType: "halfway_house"}},
	}
	medium := &model.EnrichedLead{
		Lead:       model.Lead{Company: "X"},
		Enrichment: model.Enrichment{Classification: &model.Classification{OrgType: "shelter"}},
	}

	highScore := e.Score(high, rs)
	mediumScore := e.Score(medium, rs)

	assert.Equal(t, 6.0, highScore.Score)
	assert.Contains(t, highScore.Reason, "High-value org type: halfway_house")
	assert.Equal(t, 4.5, mediumScore.Score)
	assert.Contains(t, mediumScore.Reason, "Medium-value org type: shelter")
}

func TestScore_NonprofitMultiplierNoted(t *testing.T) {
	e := testEngine()
	lead := nonprofitLead("Hope House")
	lead.Classification = &model.Classification{OrgType: "halfway_house"}

	ps := e.Score(lead, e.rules.Product("compass"))

	// (3.0 + 3.0) * 1.2
	assert.Equal(t, 7.2, ps.Score)
	assert.Contains(t, ps.Reason, "Verified nonprofit (x1.2)")
}

func TestScore_ClampedAtMax(t *testing.T) {
	e := testEngine()
	lead := nonprofitLead("Hope House Recovery")
	lead.Classification = &model.Classification{OrgType: "halfway_house"}
	lead.Attributes = map[string]any{"multiple_locations": true}
	lead.Enrichment.Website = &model.WebsiteSignals{
		AboutText: "halfway house recovery sober living residential group home transitional reentry treatment center with beds for residents",
	}

	ps := e.Score(lead, e.rules.Product("compass"))

	assert.Equal(t, 10.0, ps.Score)
}

func TestScore_RoundsToOneDecimal(t *testing.T) {
	e := testEngine()
	lead := nonprofitLead("Hope")
	lead.Enrichment.Website = &model.WebsiteSignals{AboutText: "recovery"}

	ps := e.Score(lead, e.rules.Product("compass"))

	// (3.0 + 0.5) * 1.2 = 4.2 exactly after rounding.
	assert.Equal(t, 4.2, ps.Score)
}

func TestScore_DonationAndRevenueHooks(t *testing.T) {
	e := testEngine()
	lead := nonprofitLead("Cedar Tree Org")
	lead.Nonprofit.Revenue = 1_000_000
	lead.Enrichment.Website = &model.WebsiteSignals{HasDonationPage: true}

	ps := e.Score(lead, e.rules.Product("upcurve"))

	// min 2.0 + donation 1.5 + small revenue 1.0 = 4.5
	assert.Equal(t, 4.5, ps.Score)
	assert.Contains(t, ps.Reason, "Has donation page")
	assert.Contains(t, ps.Reason, "Small nonprofit (<$5M)")
}

func TestScore_RecentFoundingHook(t *testing.T) {
	e := testEngine()

	newer := nonprofitLead("New Org")
	newer.Nonprofit.RulingYear = "2022"
	older := nonprofitLead("Old Org")
	older.Nonprofit.RulingYear = "2005"

	rs := e.rules.Product("upcurve")
	assert.Equal(t, 2.5, e.Score(newer, rs).Score)
	assert.Contains(t, e.Score(newer, rs).Reason, "Newer nonprofit")
	assert.Equal(t, 2.0, e.Score(older, rs).Score)
}

func TestScore_ResidentialHook(t *testing.T) {
	e := testEngine()
	lead := &model.EnrichedLead{
		Lead: model.Lead{Company: "Oak Lodge"},
		Enrichment: model.Enrichment{
			Website: &model.WebsiteSignals{AboutText: "We have 20 beds available."},
		},
	}

	ps := e.Score(lead, e.rules.Product("compass"))

	assert.Equal(t, 4.0, ps.Score)
	assert.Contains(t, ps.Reason, "Has residential component")
}

func TestScore_UnknownHookSkipped(t *testing.T) {
	rules := &model.Rules{
		Products: []model.RuleSet{{
			Key:        "p",
			BonusHooks: []string{"no_such_hook"},
			MinScore:   1.0,
			MaxScore:   10.0,
		}},
	}
	e := NewEngine(rules)
	lead := &model.EnrichedLead{Lead: model.Lead{Company: "X"}}

	ps := e.Score(lead, &rules.Products[0])

	assert.Equal(t, 1.0, ps.Score)
	assert.Equal(t, "Low match", ps.Reason)
}

func TestScoreAll_PicksBest(t *testing.T) {
	e := testEngine()
	lead := nonprofitLead("Hope House Recovery Center")
	lead.Classification = &model.Classification{OrgType: "halfway_house"}

	scores, best, bestScore := e.ScoreAll(lead)

	require.Len(t, scores, 2)
	assert.Equal(t, "compass", best)
	assert.Equal(t, scores["compass"].Score, bestScore)
	assert.Greater(t, scores["compass"].Score, scores["upcurve"].Score)
}

func TestScoreAll_TieResolvesToConfigurationOrder(t *testing.T) {
	rules := &model.Rules{
		Products: []model.RuleSet{
			{Key: "first", MinScore: 5.0, MaxScore: 10.0},
			{Key: "second", MinScore: 5.0, MaxScore: 10.0},
		},
	}
	e := NewEngine(rules)

	_, best, bestScore := e.ScoreAll(&model.EnrichedLead{Lead: model.Lead{Company: "X"}})

	assert.Equal(t, "first", best)
	assert.Equal(t, 5.0, bestScore)
}

func TestScoreAll_NoRules(t *testing.T) {
	e := NewEngine(&model.Rules{})

	scores, best, bestScore := e.ScoreAll(&model.EnrichedLead{Lead: model.Lead{Company: "X"}})

	assert.Nil(t, scores)
	assert.Equal(t, "none", best)
	assert.Equal(t, 0.0, bestScore)
}
