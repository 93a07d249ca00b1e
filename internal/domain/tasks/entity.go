package tasks

import "time"

// Kind discriminates the task payload: run the whole analyzer set, or run a
// single analyzer of an existing run.
type Kind string

const (
	KindRunAll Kind = "run_all"
	KindRunOne Kind = "run_one"
)

// Task is one deferred unit of work. Delivered at-least-once after
// DelayUntil; no ordering guarantee across tasks. Handlers must re-check the
// target sub-status before acting and no-op when it is already terminal.
type Task struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	RunID      string    `json:"run_id"`
	ItemType   string    `json:"item_type"`
	ItemID     string    `json:"item_id"`
	ProfileID  string    `json:"profile_id"`
	AnalyzerID string    `json:"analyzer_id,omitempty"` // run_one only
	Actor      string    `json:"actor,omitempty"`
	Retry      int       `json:"retry"`
	DelayUntil time.Time `json:"delay_until"`
}
