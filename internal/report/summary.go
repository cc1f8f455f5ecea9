package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

const divider = "================================================================================"

// ProductSummary aggregates per-product metrics for the executive summary.
type ProductSummary struct {
	Key          string
	Name         string
	Qualified    int
	HighPriority int
	AvgScore     float64 // mean score among qualified leads
	TopOrgTypes  []OrgTypeCount
}

// OrgTypeCount is one row of an organization-type distribution.
type OrgTypeCount struct {
	OrgType string
	Count   int
}

// RunSummary holds the headline metrics of one enrichment run.
type RunSummary struct {
	GeneratedAt    time.Time
	TotalLeads     int
	EmailsFound    int
	PhonesFound    int
	Nonprofits     int
	DonationPages  int
	AvgDataQuality float64
	HighQuality    int // data quality above 0.7
	MultiProduct   int
	Products       []ProductSummary
	OrgTypes       []OrgTypeCount
}

// Summary computes run-level metrics across all leads.
func (g *Generator) Summary(leads []model.EnrichedLead, ts time.Time) *RunSummary {
	s := &RunSummary{GeneratedAt: ts, TotalLeads: len(leads)}

	orgCounts := make(map[string]int)
	var qualitySum float64
	for i := range leads {
		l := &leads[i]
		if l.Email != "" {
			s.EmailsFound++
		}
		if l.Phone != "" {
			s.PhonesFound++
		}
		if l.Nonprofit != nil && l.Nonprofit.IsNonprofit {
			s.Nonprofits++
		}
		if l.Enrichment.Website != nil && l.Enrichment.Website.HasDonationPage {
			s.DonationPages++
		}
		qualitySum += l.DataQuality
		if l.DataQuality > 0.7 {
			s.HighQuality++
		}
		if c := l.Classification; c != nil && c.OrgType != "" {
			orgCounts[c.OrgType]++
		}
	}
	if len(leads) > 0 {
		s.AvgDataQuality = qualitySum / float64(len(leads))
	}
	s.OrgTypes = sortedCounts(orgCounts, 10)

	for _, p := range g.rules.Products {
		qualified := g.Qualified(leads, p)
		ps := ProductSummary{
			Key:          p.Key,
			Name:         p.Name,
			Qualified:    len(qualified),
			HighPriority: len(g.HighPriority(leads, p)),
		}
		var scoreSum float64
		typeCounts := make(map[string]int)
		for i := range qualified {
			scoreSum += qualified[i].ProductScores[p.Key].Score
			if c := qualified[i].Classification; c != nil && c.OrgType != "" {
				typeCounts[c.OrgType]++
			}
		}
		if len(qualified) > 0 {
			ps.AvgScore = scoreSum / float64(len(qualified))
		}
		ps.TopOrgTypes = sortedCounts(typeCounts, 5)
		s.Products = append(s.Products, ps)
	}

	s.MultiProduct = len(g.MultiProduct(leads))
	return s
}

// Render formats the summary as a plain-text report.
func (s *RunSummary) Render() string {
	var b strings.Builder
	section := func(title string) {
		b.WriteString(divider + "\n")
		b.WriteString(title + "\n")
		b.WriteString(divider + "\n")
	}

	section("LEAD OPTIMIZER - EXECUTIVE SUMMARY")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))

	section("OVERVIEW")
	fmt.Fprintf(&b, "Total Leads Processed:       %d\n", s.TotalLeads)
	fmt.Fprintf(&b, "Average Data Quality Score:  %.0f%%\n", s.AvgDataQuality*100)
	fmt.Fprintf(&b, "High Quality Leads (>70%%):   %d\n\n", s.HighQuality)
	fmt.Fprintf(&b, "Contact Information Coverage:\n")
	fmt.Fprintf(&b, "  - Email Addresses Found:   %d (%s)\n", s.EmailsFound, s.pct(s.EmailsFound))
	fmt.Fprintf(&b, "  - Phone Numbers Found:     %d (%s)\n", s.PhonesFound, s.pct(s.PhonesFound))
	fmt.Fprintf(&b, "Verified Nonprofits:         %d\n", s.Nonprofits)
	fmt.Fprintf(&b, "Active Donation Pages:       %d\n", s.DonationPages)

	for _, p := range s.Products {
		section(strings.ToUpper(p.Key) + " - " + p.Name)
		fmt.Fprintf(&b, "Qualified Leads:        %d\n", p.Qualified)
		fmt.Fprintf(&b, "High Priority:          %d\n", p.HighPriority)
		if p.Qualified > 0 {
			fmt.Fprintf(&b, "Average Score:          %.1f\n", p.AvgScore)
		}
		if len(p.TopOrgTypes) > 0 {
			b.WriteString("Top Organization Types:\n")
			for _, tc := range p.TopOrgTypes {
				fmt.Fprintf(&b, "  - %s: %d\n", tc.OrgType, tc.Count)
			}
		}
	}

	section("CROSS-SELLING OPPORTUNITIES")
	fmt.Fprintf(&b, "Leads Qualifying for ALL Products:  %d (%s)\n", s.MultiProduct, s.pct(s.MultiProduct))

	if len(s.OrgTypes) > 0 {
		section("ORGANIZATION TYPE BREAKDOWN")
		for _, tc := range s.OrgTypes {
			fmt.Fprintf(&b, "  - %s: %d\n", tc.OrgType, tc.Count)
		}
	}

	b.WriteString(divider + "\n")
	return b.String()
}

func (s *RunSummary) pct(n int) string {
	if s.TotalLeads == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(s.TotalLeads)*100)
}

func sortedCounts(counts map[string]int, limit int) []OrgTypeCount {
	out := make([]OrgTypeCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, OrgTypeCount{OrgType: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].OrgType < out[j].OrgType
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
