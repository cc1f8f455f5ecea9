package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banyan-labs/lead-optimizer/internal/model"
	"github.com/banyan-labs/lead-optimizer/internal/report"
	"github.com/banyan-labs/lead-optimizer/internal/store"
	"github.com/banyan-labs/lead-optimizer/pkg/clickup"
)

var (
	batchLimit  int
	batchImport bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Export, enrich, and report on a full ClickUp lead list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.ClickUp.APIKey == "" {
			return eris.New("clickup api key is required (LEADOPT_CLICKUP_API_KEY)")
		}
		if cfg.ClickUp.ListID == "" {
			return eris.New("clickup list id is required (LEADOPT_CLICKUP_LIST_ID)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		coord, rules, err := initCoordinator()
		if err != nil {
			return err
		}

		cu := clickup.NewClient(cfg.ClickUp.APIKey, clickup.WithBaseURL(cfg.ClickUp.BaseURL))
		if err := cu.TestConnection(ctx); err != nil {
			return eris.Wrap(err, "clickup connection check")
		}

		run, err := st.CreateRun(ctx, cfg.ClickUp.ListID)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		zap.L().Info("batch run started",
			zap.String("run_id", run.ID),
			zap.String("list", cfg.ClickUp.ListID))

		result, err := executeBatch(ctx, st, coord, rules, cu, run)
		if err != nil {
			_ = st.UpdateRunResult(ctx, run.ID, &model.RunResult{Error: err.Error()})
			return err
		}
		return st.UpdateRunResult(ctx, run.ID, result)
	},
}

func executeBatch(ctx context.Context, st store.Store, coord coordinator, rules *model.Rules, cu clickup.Client, run *model.Run) (*model.RunResult, error) {
	tasks, err := cu.ExportTasks(ctx, cfg.ClickUp.ListID)
	if err != nil {
		return nil, eris.Wrap(err, "export tasks")
	}
	leads := make([]model.Lead, 0, len(tasks))
	for _, t := range tasks {
		leads = append(leads, taskToLead(t))
	}
	if batchLimit > 0 && len(leads) > batchLimit {
		leads = leads[:batchLimit]
	}
	zap.L().Info("leads exported", zap.Int("count", len(leads)))

	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusEnriching); err != nil {
		return nil, err
	}

	batchSize := cfg.Enrich.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	var enriched []model.EnrichedLead
	for seq, start := 0, 0; start < len(leads); seq, start = seq+1, start+batchSize {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "batch interrupted")
		}
		end := start + batchSize
		if end > len(leads) {
			end = len(leads)
		}

		chunk := coord.EnrichBatch(ctx, leads[start:end], cfg.Enrich.MaxWorkers)
		enriched = append(enriched, chunk...)

		if err := st.SaveCheckpoint(ctx, &model.Checkpoint{RunID: run.ID, Seq: seq, Leads: chunk}); err != nil {
			zap.L().Warn("checkpoint save failed", zap.Int("seq", seq), zap.Error(err))
		}
		zap.L().Info("batch progress",
			zap.Int("enriched", len(enriched)),
			zap.Int("total", len(leads)))
	}

	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusReporting); err != nil {
		return nil, err
	}

	gen := report.NewGenerator(rules, cfg.Report.OutputDir, cfg.Report.Format)
	files, err := gen.WriteAll(enriched, time.Now())
	if err != nil {
		return nil, eris.Wrap(err, "write reports")
	}
	zap.L().Info("reports written",
		zap.String("complete", files.Complete),
		zap.String("summary", files.Summary))

	if batchImport {
		rows := make([]map[string]any, len(enriched))
		for i := range enriched {
			rows[i] = enriched[i].Flatten()
		}
		if _, err := cu.ImportEnriched(ctx, cfg.ClickUp.ListID, rows); err != nil {
			return nil, eris.Wrap(err, "import enriched leads")
		}
	}

	return buildRunResult(enriched, rules, gen), nil
}

// coordinator is the subset of the enrichment coordinator batch needs;
// narrowed for testability.
type coordinator interface {
	EnrichBatch(ctx context.Context, leads []model.Lead, workers int) []model.EnrichedLead
}

func buildRunResult(enriched []model.EnrichedLead, rules *model.Rules, gen *report.Generator) *model.RunResult {
	result := &model.RunResult{
		LeadsTotal: len(enriched),
		Qualified:  make(map[string]int, len(rules.Products)),
	}
	for i := range enriched {
		if !enriched[i].EnrichedAt.IsZero() {
			result.LeadsEnriched++
		}
		if np := enriched[i].Nonprofit; np != nil && np.IsNonprofit {
			result.Nonprofits++
		}
	}
	for _, p := range rules.Products {
		result.Qualified[p.Key] = len(gen.Qualified(enriched, p))
	}
	return result
}

// taskToLead maps a flattened ClickUp task onto the lead model. Known
// contact fields are lifted; everything else rides along in Attributes.
func taskToLead(t clickup.TaskRecord) model.Lead {
	l := model.Lead{
		TaskID:          t.TaskID,
		Company:         t.Field("Company", "Organization"),
		Website:         t.Field("Website"),
		Email:           t.Field("Email"),
		Phone:           t.Field("Phone"),
		EIN:             t.Field("EIN"),
		Location:        t.Field("Location"),
		BusinessMission: t.Field("Business Mission Statement"),
	}
	if l.Company == "" {
		l.Company = strings.TrimSpace(t.Name)
	}

	known := map[string]bool{
		"Company": true, "Organization": true, "Website": true, "Email": true,
		"Phone": true, "EIN": true, "Location": true, "Business Mission Statement": true,
	}
	for name, v := range t.Fields {
		if !known[name] {
			if l.Attributes == nil {
				l.Attributes = make(map[string]any)
			}
			l.Attributes[attributeKey(name)] = v
		}
	}
	return l
}

// attributeKey normalizes a custom-field name into a snake_case attribute
// key, e.g. "Multiple Locations" -> "multiple_locations".
func attributeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of leads to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchImport, "import", false, "write enriched fields back to ClickUp after reporting")
	rootCmd.AddCommand(batchCmd)
}
