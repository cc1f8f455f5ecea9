// Package nonprofit verifies nonprofit status through an ordered cascade of
// external sources. The cascade stops at the first positive confirmation and
// always returns a result: a source failure means "no match from that
// source", never a failed verification.
package nonprofit

import (
	"context"

	"go.uber.org/zap"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

// Source is one lookup strategy in the cascade. Check returns partial
// status fields to merge and whether the source positively confirmed
// nonprofit status.
type Source interface {
	Name() string
	// Applicable reports whether this source can be consulted for the
	// given inputs. Inapplicable sources are not recorded as checked.
	Applicable(orgName, ein string) bool
	Check(ctx context.Context, orgName, ein string) (*model.NonprofitStatus, bool)
}

// Cascade runs sources in order with early exit on confirmation.
type Cascade struct {
	sources []Source
}

// NewCascade creates a cascade over the given sources, consulted in order.
func NewCascade(sources ...Source) *Cascade {
	return &Cascade{sources: sources}
}

// Verify determines nonprofit status for an organization. It never fails:
// when no source confirms, the result carries IsNonprofit=false and the
// list of sources consulted.
func (c *Cascade) Verify(ctx context.Context, orgName, ein string) *model.NonprofitStatus {
	result := &model.NonprofitStatus{
		SourcesChecked: []string{},
	}

	for _, src := range c.sources {
		if !src.Applicable(orgName, ein) {
			continue
		}

		status, confirmed := src.Check(ctx, orgName, ein)
		result.SourcesChecked = append(result.SourcesChecked, src.Name())

		if status != nil {
			mergeStatus(result, status)
		}
		if confirmed {
			result.IsNonprofit = true
			zap.L().Debug("nonprofit: confirmed",
				zap.String("org", orgName),
				zap.String("source", src.Name()),
			)
			return result
		}
	}

	return result
}

// mergeStatus copies populated fields from src into dst, leaving
// dst.SourcesChecked untouched.
func mergeStatus(dst, src *model.NonprofitStatus) {
	if src.EIN != "" {
		dst.EIN = src.EIN
	}
	if src.EINValidFormat != nil {
		dst.EINValidFormat = src.EINValidFormat
	}
	if src.NonprofitName != "" {
		dst.NonprofitName = src.NonprofitName
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.State != "" {
		dst.State = src.State
	}
	if src.NTEECode != "" {
		dst.NTEECode = src.NTEECode
	}
	if src.RulingYear != "" {
		dst.RulingYear = src.RulingYear
	}
	if src.Revenue != 0 {
		dst.Revenue = src.Revenue
	}
	if src.Assets != 0 {
		dst.Assets = src.Assets
	}
}
