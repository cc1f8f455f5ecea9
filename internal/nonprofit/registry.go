package nonprofit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/banyan-labs/lead-optimizer/internal/model"
	"github.com/banyan-labs/lead-optimizer/pkg/propublica"
)

// RegistrySource looks up organizations in the public charity registry by
// name, following up with the detail endpoint when a match is found.
type RegistrySource struct {
	client  propublica.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewRegistrySource creates the registry source. A nil limiter disables
// throttling (tests).
func NewRegistrySource(client propublica.Client, limiter *rate.Limiter, timeout time.Duration) *RegistrySource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RegistrySource{
		client:  client,
		limiter: limiter,
		timeout: timeout,
	}
}

func (s *RegistrySource) Name() string { return "ProPublica" }

func (s *RegistrySource) Applicable(orgName, _ string) bool { return orgName != "" }

func (s *RegistrySource) Check(ctx context.Context, orgName, _ string) (*model.NonprofitStatus, bool) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, false
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Search(ctx, orgName)
	if err != nil {
		zap.L().Debug("nonprofit: registry search failed",
			zap.String("org", orgName),
			zap.Error(err),
		)
		return nil, false
	}
	if len(resp.Organizations) == 0 {
		return nil, false
	}

	org := resp.Organizations[0]
	status := &model.NonprofitStatus{
		EIN:           formatEIN(org.EIN),
		NonprofitName: org.Name,
		City:          org.City,
		State:         org.State,
	}

	if org.EIN != 0 {
		if detail, err := s.client.Organization(ctx, org.EIN); err != nil {
			zap.L().Debug("nonprofit: registry detail lookup failed",
				zap.String("org", orgName),
				zap.Int64("ein", org.EIN),
				zap.Error(err),
			)
		} else {
			d := detail.Organization
			status.NonprofitName = d.Name
			status.City = d.City
			status.State = d.State
			status.NTEECode = d.NTEECode
			status.RulingYear = rulingYear(d.RulingDate)
			status.Revenue = d.Revenue
			status.Assets = d.Assets
		}
	}

	return status, true
}

// formatEIN renders a registry EIN as the zero-padded 9-digit string used
// throughout the enrichment output.
func formatEIN(ein int64) string {
	if ein == 0 {
		return ""
	}
	return fmt.Sprintf("%09d", ein)
}

// rulingYear truncates an ISO ruling date to year granularity.
func rulingYear(rulingDate string) string {
	if len(rulingDate) < 4 {
		return ""
	}
	return rulingDate[:4]
}
