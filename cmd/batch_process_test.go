package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyan-labs/lead-optimizer/internal/config"
	"github.com/banyan-labs/lead-optimizer/internal/model"
	"github.com/banyan-labs/lead-optimizer/internal/store"
	"github.com/banyan-labs/lead-optimizer/pkg/clickup"
)

// fakeClickUp serves canned tasks and records imports.
type fakeClickUp struct {
	tasks    []clickup.TaskRecord
	imported []map[string]any
}

func (f *fakeClickUp) TestConnection(context.Context) error { return nil }

func (f *fakeClickUp) ExportTasks(context.Context, string) ([]clickup.TaskRecord, error) {
	return f.tasks, nil
}

func (f *fakeClickUp) SetCustomField(context.Context, string, string, any) error { return nil }

func (f *fakeClickUp) ListFields(context.Context, string) ([]clickup.FieldDef, error) {
	return nil, nil
}

func (f *fakeClickUp) EnsureEnrichmentFields(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (f *fakeClickUp) ImportEnriched(_ context.Context, _ string, rows []map[string]any) (*clickup.ImportResult, error) {
	f.imported = rows
	return &clickup.ImportResult{Total: len(rows), Successful: len(rows)}, nil
}

// fakeCoordinator stamps each lead with a fixed enrichment.
type fakeCoordinator struct{ calls int }

func (f *fakeCoordinator) EnrichBatch(_ context.Context, leads []model.Lead, _ int) []model.EnrichedLead {
	f.calls++
	out := make([]model.EnrichedLead, 0, len(leads))
	for _, l := range leads {
		out = append(out, model.EnrichedLead{
			Lead: l,
			Enrichment: model.Enrichment{
				Nonprofit: &model.NonprofitStatus{IsNonprofit: true},
				ProductScores: map[string]model.ProductScore{
					"compass": {Score: 8.0, Reason: "test"},
					"upcurve": {Score: 4.0, Reason: "test"},
				},
				EnrichedAt: time.Now().UTC(),
				Version:    model.EnrichmentVersion,
			},
		})
	}
	return out
}

func TestExecuteBatch_FullFlow(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{}
	cfg.ClickUp.ListID = "list-1"
	cfg.Enrich.BatchSize = 2
	cfg.Report.OutputDir = filepath.Join(dir, "exports")
	cfg.Report.Format = "csv"

	st, err := store.NewSQLite(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, "list-1")
	require.NoError(t, err)

	cu := &fakeClickUp{tasks: []clickup.TaskRecord{
		{TaskID: "t1", Name: "Hope House", Fields: map[string]any{"Company": "Hope House"}},
		{TaskID: "t2", Name: "City Shelter", Fields: map[string]any{"Company": "City Shelter"}},
		{TaskID: "t3", Name: "New Dawn", Fields: map[string]any{"Company": "New Dawn"}},
	}}
	coord := &fakeCoordinator{}

	batchImport = true
	t.Cleanup(func() { batchImport = false })

	result, err := executeBatch(ctx, st, coord, model.DefaultRules(), cu, run)
	require.NoError(t, err)

	assert.Equal(t, 3, result.LeadsTotal)
	assert.Equal(t, 3, result.LeadsEnriched)
	assert.Equal(t, 3, result.Nonprofits)
	assert.Equal(t, 3, result.Qualified["compass"])
	assert.Equal(t, 0, result.Qualified["upcurve"])
	assert.Equal(t, 2, coord.calls) // two chunks of batch size 2

	// Checkpoints persisted per chunk.
	cps, err := st.LoadCheckpoints(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.Len(t, cps[0].Leads, 2)
	assert.Len(t, cps[1].Leads, 1)

	// Import received the flattened rows.
	require.Len(t, cu.imported, 3)
	assert.Equal(t, "Hope House", cu.imported[0]["company"])

	// Run advanced through the status sequence.
	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusReporting, got.Status)
}

func TestExecuteBatch_AppliesLimit(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{}
	cfg.ClickUp.ListID = "list-1"
	cfg.Report.OutputDir = filepath.Join(dir, "exports")
	cfg.Report.Format = "csv"

	st, err := store.NewSQLite(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, "list-1")
	require.NoError(t, err)

	cu := &fakeClickUp{tasks: []clickup.TaskRecord{
		{TaskID: "t1", Name: "A"}, {TaskID: "t2", Name: "B"}, {TaskID: "t3", Name: "C"},
	}}

	batchLimit = 1
	t.Cleanup(func() { batchLimit = 0 })

	result, err := executeBatch(ctx, st, &fakeCoordinator{}, model.DefaultRules(), cu, run)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LeadsTotal)
}
