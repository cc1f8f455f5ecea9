// Package enrich coordinates the per-lead enrichment sequence and fans
// batches out across a bounded worker pool. It owns the process-lifetime
// result cache; it persists nothing itself.
package enrich

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/banyan-labs/lead-optimizer/internal/classify"
	"github.com/banyan-labs/lead-optimizer/internal/extract"
	"github.com/banyan-labs/lead-optimizer/internal/model"
	"github.com/banyan-labs/lead-optimizer/internal/nonprofit"
	"github.com/banyan-labs/lead-optimizer/internal/scoring"
	"github.com/banyan-labs/lead-optimizer/pkg/websearch"
)

// DefaultWorkers is the worker-pool width when the caller passes none.
const DefaultWorkers = 5

// maxSearchSnippets bounds the context snippets retained per lead.
const maxSearchSnippets = 3

// Options wires the Coordinator's collaborators.
type Options struct {
	Cascade       *nonprofit.Cascade
	Extractor     *extract.Extractor
	Search        websearch.Client
	SearchLimiter *rate.Limiter
	SearchMax     int
	Classifier    *classify.Classifier
	Engine        *scoring.Engine
	LeadTimeout   time.Duration
}

// Coordinator sequences cascade, extraction, classification and scoring
// for single leads and batches.
type Coordinator struct {
	opts  Options
	cache *Cache
}

// New creates a Coordinator with a fresh cache.
func New(opts Options) *Coordinator {
	if opts.LeadTimeout <= 0 {
		opts.LeadTimeout = 30 * time.Second
	}
	if opts.SearchMax <= 0 {
		opts.SearchMax = 5
	}
	return &Coordinator{
		opts:  opts,
		cache: NewCache(),
	}
}

// Cache exposes the result cache, mainly for tests and observability.
func (c *Coordinator) Cache() *Cache { return c.cache }

// EnrichLead runs the full enrichment sequence for one lead. The input is
// never mutated. A lead without an organization name is returned unchanged.
func (c *Coordinator) EnrichLead(ctx context.Context, lead model.Lead) model.EnrichedLead {
	orgName := strings.TrimSpace(lead.Company)
	if orgName == "" {
		zap.L().Warn("enrich: lead has no company name", zap.String("task_id", lead.TaskID))
		return model.EnrichedLead{Lead: lead}
	}

	log := zap.L().With(zap.String("company", orgName))

	key := Key(orgName)
	if cached, ok := c.cache.Get(key); ok {
		log.Debug("enrich: cache hit")
		return model.EnrichedLead{Lead: lead, Enrichment: *cached}
	}

	log.Info("enrich: starting")
	enriched := model.EnrichedLead{Lead: lead}

	// 1. Nonprofit verification cascade.
	enriched.Nonprofit = c.opts.Cascade.Verify(ctx, orgName, lead.EIN)

	// 2. Find and extract the website.
	if websiteURL := c.resolveWebsite(ctx, orgName, lead); websiteURL != "" {
		enriched.Enrichment.Website = c.opts.Extractor.Extract(ctx, websiteURL)
	}

	// 3. Generic search for additional context.
	query := strings.TrimSpace(fmt.Sprintf("%q %s", orgName, lead.Location))
	if hits := c.search(ctx, query); len(hits) > 0 {
		enriched.SearchHits = hits
		for _, h := range hits {
			if h.Snippet == "" {
				continue
			}
			enriched.SearchSnippets = append(enriched.SearchSnippets, h.Snippet)
			if len(enriched.SearchSnippets) == maxSearchSnippets {
				break
			}
		}
	}

	// 4. Classification.
	enriched.Classification = c.opts.Classifier.Classify(classify.CombinedText(&enriched))

	// 5. Product scoring.
	scores, best, bestScore := c.opts.Engine.ScoreAll(&enriched)
	enriched.ProductScores = scores
	enriched.BestProduct = best
	enriched.BestScore = bestScore

	// 6. Data quality.
	enriched.QualityChecks, enriched.DataQuality = qualityScore(&enriched)

	// 7. Metadata stamp.
	enriched.EnrichedAt = time.Now().UTC()
	enriched.Version = model.EnrichmentVersion

	// Cache the derived fields; original lead fields are not part of the
	// Enrichment and so never land in the cache.
	derived := enriched.Enrichment
	c.cache.Put(key, &derived)

	log.Info("enrich: complete",
		zap.String("org_type", enriched.Classification.OrgType),
		zap.Bool("is_nonprofit", enriched.Nonprofit.IsNonprofit),
		zap.String("best_product", best),
		zap.Float64("best_score", bestScore),
		zap.Float64("data_quality", enriched.DataQuality),
	)
	return enriched
}

// EnrichBatch enriches all leads across a bounded worker pool. The result
// always has the same length as the input; a lead whose enrichment fails
// or times out is returned unenriched. Results arrive in completion order.
func (c *Coordinator) EnrichBatch(ctx context.Context, leads []model.Lead, workers int) []model.EnrichedLead {
	if len(leads) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	zap.L().Info("enrich: batch start",
		zap.Int("leads", len(leads)),
		zap.Int("workers", workers),
	)

	results := make([]model.EnrichedLead, 0, len(leads))
	resultCh := make(chan model.EnrichedLead, len(leads))

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, lead := range leads {
		g.Go(func() error {
			resultCh <- c.enrichWithDeadline(ctx, lead)
			return nil
		})
	}
	_ = g.Wait()
	close(resultCh)

	for r := range resultCh {
		results = append(results, r)
		if len(results)%10 == 0 {
			zap.L().Info("enrich: batch progress",
				zap.Int("done", len(results)),
				zap.Int("total", len(leads)),
			)
		}
	}

	return results
}

// enrichWithDeadline bounds one lead's unit of work. A timeout or panic
// degrades to the original lead so a single failure never aborts a batch.
func (c *Coordinator) enrichWithDeadline(ctx context.Context, lead model.Lead) model.EnrichedLead {
	leadCtx, cancel := context.WithTimeout(ctx, c.opts.LeadTimeout)
	defer cancel()

	done := make(chan model.EnrichedLead, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("enrich: lead panicked",
					zap.String("company", lead.Company),
					zap.Any("panic", r),
				)
				done <- model.EnrichedLead{Lead: lead}
			}
		}()
		done <- c.EnrichLead(leadCtx, lead)
	}()

	select {
	case result := <-done:
		return result
	case <-leadCtx.Done():
		zap.L().Error("enrich: lead timed out",
			zap.String("company", lead.Company),
			zap.Duration("timeout", c.opts.LeadTimeout),
		)
		return model.EnrichedLead{Lead: lead}
	}
}

// resolveWebsite picks the URL to extract: the explicit website field,
// else the email domain, else the first search hit for the organization.
func (c *Coordinator) resolveWebsite(ctx context.Context, orgName string, lead model.Lead) string {
	if lead.Website != "" {
		return lead.Website
	}
	if lead.Email != "" {
		if at := strings.LastIndex(lead.Email, "@"); at >= 0 && at < len(lead.Email)-1 {
			return "https://" + lead.Email[at+1:]
		}
	}
	if hits := c.search(ctx, fmt.Sprintf("%q website", orgName)); len(hits) > 0 {
		return hits[0].URL
	}
	return ""
}

// search runs a rate-limited query, converting hits to model types. Search
// failures are absorbed: no hits is a normal outcome.
func (c *Coordinator) search(ctx context.Context, query string) []model.SearchHit {
	if c.opts.Search == nil {
		return nil
	}
	if c.opts.SearchLimiter != nil {
		if err := c.opts.SearchLimiter.Wait(ctx); err != nil {
			return nil
		}
	}

	results, err := c.opts.Search.Search(ctx, query, c.opts.SearchMax)
	if err != nil {
		zap.L().Debug("enrich: search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}

	hits := make([]model.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, model.SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return hits
}

// qualityChecksTotal is the size of the fixed data-quality checklist.
const qualityChecksTotal = 7

// qualityScore grades enrichment completeness against the fixed checklist,
// each check weighted equally.
func qualityScore(e *model.EnrichedLead) (map[string]bool, float64) {
	hasPhone := e.Phone != ""
	hasWebsite := false
	hasMission := false
	if ws := e.Enrichment.Website; ws != nil {
		hasPhone = hasPhone || len(ws.Phones) > 0
		hasWebsite = ws.URL != ""
		hasMission = ws.MissionStatement != ""
	}

	checks := map[string]bool{
		"has_company":        e.Company != "",
		"has_email":          e.Email != "",
		"has_phone":          hasPhone,
		"has_website":        hasWebsite,
		"has_mission":        hasMission,
		"nonprofit_verified": e.Nonprofit != nil,
		"org_classified":     e.Classification != nil && e.Classification.OrgType != "unknown",
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	score := math.Round(float64(passed)/qualityChecksTotal*100) / 100
	return checks, score
}
