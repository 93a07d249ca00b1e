package reviews

import (
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
)

// Aggregate folds all per-analyzer finding snapshots into the run's summary
// counts and maximum severity, then marks the run successful. order is the
// analyzer enumeration order from the profile — the fold walks it, not the
// completion order, so the derived findings list is stable across runs.
// Idempotent given identical sub-status contents.
func (r *RunRecord) Aggregate(order []string) {
	var c findings.SeverityCounts
	for _, f := range r.FindingsInOrder(order) {
		c.Add(f.Severity)
	}
	r.Counts = c
	r.MaxSeverity = c.Max()
	r.Status = StatusSuccess
	r.Error = ""
}

// FindingsInOrder concatenates the per-analyzer snapshots following the given
// analyzer enumeration order. Analyzers absent from the map are skipped;
// analyzers in the map but not in order are appended last so nothing is lost.
func (r *RunRecord) FindingsInOrder(order []string) []*findings.Finding {
	var out []*findings.Finding
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		seen[id] = true
		if st, ok := r.Analyzers[id]; ok {
			out = append(out, st.Findings...)
		}
	}
	for id, st := range r.Analyzers {
		if !seen[id] {
			out = append(out, st.Findings...)
		}
	}
	return out
}
