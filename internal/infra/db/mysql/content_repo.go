package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/content"
)

// ContentRepository reads the reviewed content items. The analyzable fields
// sit in a JSON column keyed by field name.
type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository { return &ContentRepository{db: db} }

func (r *ContentRepository) Get(ctx context.Context, itemType, itemID string) (*domain.Item, error) {
	const q = `
SELECT item_type, item_id, rev, state, fields_json, updated_at
FROM content_items
WHERE item_type=? AND item_id=?
ORDER BY rev DESC
LIMIT 1;`
	var it domain.Item
	var fields string
	if err := r.db.QueryRowContext(ctx, q, itemType, itemID).Scan(
		&it.Type, &it.ID, &it.Rev, &it.State, &fields, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &it.Fields); err != nil {
		return nil, fmt.Errorf("decode fields for %s/%s: %w", itemType, itemID, err)
	}
	return &it, nil
}

// Save upserts one revision of an item.
func (r *ContentRepository) Save(ctx context.Context, it *domain.Item) error {
	const q = `
INSERT INTO content_items (item_type, item_id, rev, state, fields_json, updated_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 state=VALUES(state), fields_json=VALUES(fields_json), updated_at=VALUES(updated_at);
`
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(it.Type), stringOrDash(it.ID), it.Rev, it.State,
		jsonOrEmpty(it.Fields), it.UpdatedAt,
	)
	return err
}
