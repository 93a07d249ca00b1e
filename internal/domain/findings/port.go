package findings

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Get(ctx context.Context, id FindingID) (*Finding, error)
	ListByRun(ctx context.Context, runID string) ([]*Finding, error)
	ListByRunAnalyzer(ctx context.Context, runID, analyzerID string) ([]*Finding, error)

	// ReplaceForAnalyzer deletes and recreates the finding set of one
	// (run, analyzer) pair as a unit. No partial update.
	ReplaceForAnalyzer(ctx context.Context, runID, analyzerID string, fs []*Finding) error

	Acknowledge(ctx context.Context, id FindingID, actor, note string, at time.Time) error
}
