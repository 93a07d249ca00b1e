package reviews

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *RunRecord) error
	Get(ctx context.Context, id RunID) (*RunRecord, error)

	// Latest returns the most recent run for (itemType, itemID, profileID)
	// by execution time, nil when none exists.
	Latest(ctx context.Context, itemType, itemID, profileID string) (*RunRecord, error)

	// ListByItem returns recent runs for an item across profiles, newest first.
	ListByItem(ctx context.Context, itemType, itemID string, limit int) ([]*RunRecord, error)
}
