package ai

import "context"

// Prompt is one chat exchange request.
type Prompt struct {
	System string
	User   string
}

// ChatOptions selects provider and model for one call.
type ChatOptions struct {
	ProviderID  string
	Model       string
	Temperature float32
	MaxTokens   int
}

// ChatResult carries the raw completion plus what actually served it.
type ChatResult struct {
	Content    string
	ProviderID string
	Model      string
}

// Provider port — the inference backend.
type Provider interface {
	Chat(ctx context.Context, p Prompt, opts ChatOptions) (ChatResult, error)
}
