package runerrors

import "time"

// RunError represents a persisted review error entry, kept for ops
// visibility beyond the single error string on the run record.
type RunError struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	AnalyzerID  string    `json:"analyzer_id,omitempty"`
	Phase       string    `json:"phase,omitempty"` // run | analyzer | retry
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
