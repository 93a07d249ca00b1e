package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/content"
)

// ContentRepository reads the reviewed content items, fields in a JSON column.
type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository { return &ContentRepository{db: db} }

func (r *ContentRepository) Get(ctx context.Context, itemType, itemID string) (*domain.Item, error) {
	const q = `
SELECT item_type, item_id, rev, state, fields_json, updated_at
FROM content_items
WHERE item_type=$1 AND item_id=$2
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
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (item_type, item_id, rev) DO UPDATE SET
 state=EXCLUDED.state, fields_json=EXCLUDED.fields_json, updated_at=EXCLUDED.updated_at;
`
	fields, err := json.Marshal(it.Fields)
	if err != nil {
		return err
	}
	if it.Fields == nil {
		fields = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, q,
		stringOrDash(it.Type), stringOrDash(it.ID), it.Rev, it.State,
		string(fields), it.UpdatedAt,
	)
	return err
}
