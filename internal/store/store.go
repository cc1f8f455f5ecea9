// Package store persists enrichment runs and batch checkpoints. The
// enrichment core is stateless; only the CLI orchestration layer writes here.
package store

import (
	"context"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for batch enrichment runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, source string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Checkpoints
	SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error
	LoadCheckpoints(ctx context.Context, runID string) ([]model.Checkpoint, error)
	DeleteCheckpoints(ctx context.Context, runID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
