package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusEnriching RunStatus = "enriching"
	RunStatusReporting RunStatus = "reporting"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run is a persisted record of one batch enrichment run. Persistence is an
// orchestrator concern; the enrichment core itself keeps no state.
type Run struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"` // ClickUp list ID or input file path
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	LeadsTotal    int            `json:"leads_total"`
	LeadsEnriched int            `json:"leads_enriched"`
	Nonprofits    int            `json:"nonprofits"`
	Qualified     map[string]int `json:"qualified,omitempty"` // product key -> count at threshold
	Error         string         `json:"error,omitempty"`
}

// Checkpoint is a persisted partial batch result, written periodically so
// an interrupted run can resume without re-enriching completed leads.
type Checkpoint struct {
	RunID   string         `json:"run_id"`
	Seq     int            `json:"seq"`
	Leads   []EnrichedLead `json:"leads"`
	SavedAt time.Time      `json:"saved_at"`
}
