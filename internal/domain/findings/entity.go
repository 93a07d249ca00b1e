package findings

import (
	"time"
)

// ID tipe untuk Finding
type FindingID string

// Evidence points at the source text a finding refers to. Offsets are
// character positions into the excerpted field, -1 when unknown.
type Evidence struct {
	Field   string `json:"field"`
	Excerpt string `json:"excerpt"`
	Start   int    `json:"start,omitempty"`
	End     int    `json:"end,omitempty"`
}

// Aggregate: Finding — one flagged issue produced by exactly one analyzer run.
// Immutable except for the acknowledgement fields, which are overwritten as a
// unit on every acknowledge action.
type Finding struct {
	ID         FindingID  `json:"id"`
	RunID      string     `json:"run_id"`
	AnalyzerID string     `json:"analyzer_id"`
	Category   string     `json:"category"`
	Severity   Severity   `json:"severity"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Evidence   *Evidence  `json:"evidence,omitempty"`
	Suggestion string     `json:"suggestion,omitempty"`
	Acked      bool       `json:"acked"`
	AckedBy    string     `json:"acked_by,omitempty"`
	AckedAt    *time.Time `json:"acked_at,omitempty"`
	AckNote    string     `json:"ack_note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Acknowledge sets the acknowledgement fields. Re-acknowledging overwrites
// actor/timestamp/note.
func (f *Finding) Acknowledge(actor, note string, at time.Time) {
	f.Acked = true
	f.AckedBy = actor
	f.AckedAt = &at
	f.AckNote = note
}
