package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/banyan-labs/lead-optimizer/internal/classify"
	"github.com/banyan-labs/lead-optimizer/internal/enrich"
	"github.com/banyan-labs/lead-optimizer/internal/extract"
	"github.com/banyan-labs/lead-optimizer/internal/model"
	"github.com/banyan-labs/lead-optimizer/internal/nonprofit"
	"github.com/banyan-labs/lead-optimizer/internal/scoring"
	"github.com/banyan-labs/lead-optimizer/internal/store"
	"github.com/banyan-labs/lead-optimizer/pkg/propublica"
	"github.com/banyan-labs/lead-optimizer/pkg/websearch"
)

// initStore opens the run store selected by config.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadopt.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initCoordinator wires the enrichment coordinator and its rule set from
// config. The rules are returned too since reports need the thresholds.
func initCoordinator() (*enrich.Coordinator, *model.Rules, error) {
	rules, err := model.LoadRules(cfg.Rules.Path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load rules")
	}

	registry := propublica.NewClient(
		propublica.WithBaseURL(cfg.Registry.BaseURL),
		propublica.WithTimeout(time.Duration(cfg.Registry.TimeoutSecs)*time.Second),
	)
	cascade := nonprofit.NewCascade(
		nonprofit.NewRegistrySource(registry,
			rate.NewLimiter(rate.Limit(cfg.Registry.RatePerSec), 1),
			time.Duration(cfg.Registry.TimeoutSecs)*time.Second),
		nonprofit.NewEINFormatSource(),
	)

	extractor := extract.New(extract.Options{
		Timeout:   time.Duration(cfg.Extract.TimeoutSecs) * time.Second,
		MaxBody:   int64(cfg.Extract.MaxBodyKB) * 1024,
		UserAgent: cfg.Extract.UserAgent,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.Extract.RatePerSec), 1),
	})

	search := websearch.NewClient(
		websearch.WithBaseURL(cfg.Search.BaseURL),
		websearch.WithUserAgent(cfg.Extract.UserAgent),
	)

	coord := enrich.New(enrich.Options{
		Cascade:       cascade,
		Extractor:     extractor,
		Search:        search,
		SearchLimiter: rate.NewLimiter(rate.Limit(cfg.Search.RatePerSec), 1),
		SearchMax:     cfg.Search.MaxResults,
		Classifier:    classify.New(rules.OrgTypes),
		Engine:        scoring.NewEngine(rules),
		LeadTimeout:   time.Duration(cfg.Enrich.LeadTimeoutSecs) * time.Second,
	})
	return coord, rules, nil
}
