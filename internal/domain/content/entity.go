package content

import (
	"context"
	"time"

	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
)

// Item is the content being reviewed. Fields carries the analyzable source
// fields (title, body, ...) keyed by field name.
type Item struct {
	Type      string            `json:"type"`
	ID        string            `json:"id"`
	Rev       int64             `json:"rev"`
	State     string            `json:"state"`
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Fragment is one analyzable slice of an item, tagged with its source field.
type Fragment struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// Context is the analyzable view of an item handed to analyzers.
type Context struct {
	Meta         map[string]string `json:"meta"`
	Fragments    []Fragment        `json:"fragments"`
	CombinedText string            `json:"combined_text"`
	PolicyText   string            `json:"policy_text,omitempty"`
}

// Store port — item lookup lives outside the core.
type Store interface {
	Get(ctx context.Context, itemType, itemID string) (*Item, error)
}

// ContextBuilder port. Both methods must be deterministic for identical
// inputs; Fingerprint output is compared for equality only, never parsed.
type ContextBuilder interface {
	BuildContext(ctx context.Context, item *Item, profile *profiles.Profile) (*Context, error)
	Fingerprint(ctx context.Context, item *Item, profile *profiles.Profile) (string, error)
}
