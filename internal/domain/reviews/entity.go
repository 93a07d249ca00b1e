package reviews

import (
	"time"

	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
)

// ID tipe untuk Run Record
type RunID string

// Status enum — overall run status and per-analyzer sub-status share it.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status is terminal.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// AnalyzerState is one entry of the per-analyzer sub-status map.
// Findings is the snapshot copied into the finding store; aggregation reads
// from here, not from storage.
type AnalyzerState struct {
	Status      Status              `json:"status"`
	AttemptedAt time.Time           `json:"attempted_at,omitempty"`
	Findings    []*findings.Finding `json:"findings,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Aggregate Root: RunRecord — one analysis attempt for an
// (item, revision, profile) triple.
type RunRecord struct {
	ID          RunID                     `json:"id"`
	ItemType    string                    `json:"item_type"`
	ItemID      string                    `json:"item_id"`
	ItemRev     int64                     `json:"item_rev"`
	ProfileID   string                    `json:"profile_id"`
	Fingerprint string                    `json:"fingerprint"`
	Actor       string                    `json:"actor,omitempty"`
	ExecutedAt  time.Time                 `json:"executed_at"`
	Status      Status                    `json:"status"`
	Analyzers   map[string]*AnalyzerState `json:"analyzers"`
	Counts      findings.SeverityCounts   `json:"counts"`
	MaxSeverity findings.Severity         `json:"max_severity"`
	Error       string                    `json:"error,omitempty"`
	ProviderID  string                    `json:"provider_id,omitempty"`
	Model       string                    `json:"model,omitempty"`
}

// SeedAnalyzers marks every given analyzer pending. Called at creation.
func (r *RunRecord) SeedAnalyzers(ids []string) {
	if r.Analyzers == nil {
		r.Analyzers = make(map[string]*AnalyzerState, len(ids))
	}
	for _, id := range ids {
		r.Analyzers[id] = &AnalyzerState{Status: StatusPending}
	}
}

// ResetAnalyzer puts one analyzer back to pending for a single re-run.
// A previously successful run drops back to pending overall; this is the one
// sanctioned reversal of the state machine.
func (r *RunRecord) ResetAnalyzer(id string) {
	if r.Analyzers == nil {
		r.Analyzers = make(map[string]*AnalyzerState, 1)
	}
	r.Analyzers[id] = &AnalyzerState{Status: StatusPending}
	if r.Status == StatusSuccess {
		r.Status = StatusPending
	}
}

// SetAnalyzerResult writes one analyzer's terminal sub-status.
func (r *RunRecord) SetAnalyzerResult(id string, st *AnalyzerState) {
	if r.Analyzers == nil {
		r.Analyzers = make(map[string]*AnalyzerState, 1)
	}
	if r.Status == StatusSuccess {
		r.Status = StatusPending
	}
	r.Analyzers[id] = st
}

// AnalyzerStatus returns the sub-status for one analyzer, StatusPending when
// the analyzer is not in the map yet.
func (r *RunRecord) AnalyzerStatus(id string) Status {
	if st, ok := r.Analyzers[id]; ok {
		return st.Status
	}
	return StatusPending
}

// AllTerminal reports whether every analyzer in the sub-status map has
// reached a terminal sub-status.
func (r *RunRecord) AllTerminal() bool {
	if len(r.Analyzers) == 0 {
		return false
	}
	for _, st := range r.Analyzers {
		if !st.Status.Terminal() {
			return false
		}
	}
	return true
}

// Fail marks the whole run failed with a top-level error message. Analyzer
// sub-statuses are left untouched; a failed run with non-terminal analyzers
// means "did not run".
func (r *RunRecord) Fail(msg string) {
	r.Status = StatusFailed
	r.Error = msg
}
