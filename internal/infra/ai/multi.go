// Package ai selects among the configured inference backends.
package ai

import (
	"context"
	"fmt"

	domai "github.com/bryanwahyu/reviewgate/internal/domain/ai"
)

// Multi routes each chat call to the provider named in the options, falling
// back to a default when the profile names none.
type Multi struct {
	providers map[string]domai.Provider
	defaultID string
}

func NewMulti(defaultID string) *Multi {
	return &Multi{providers: make(map[string]domai.Provider), defaultID: defaultID}
}

func (m *Multi) Register(id string, p domai.Provider) {
	m.providers[id] = p
}

func (m *Multi) Chat(ctx context.Context, p domai.Prompt, opts domai.ChatOptions) (domai.ChatResult, error) {
	id := opts.ProviderID
	if id == "" {
		id = m.defaultID
	}
	provider, ok := m.providers[id]
	if !ok {
		return domai.ChatResult{}, fmt.Errorf("%w: %s", domai.ErrUnknownProvider, id)
	}
	return provider.Chat(ctx, p, opts)
}
