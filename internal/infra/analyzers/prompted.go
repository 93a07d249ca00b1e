// Package analyzers ships the built-in prompt-backed analyzer set.
package analyzers

import (
	"fmt"

	"github.com/bryanwahyu/reviewgate/internal/domain/ai"
	"github.com/bryanwahyu/reviewgate/internal/domain/content"
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
	"github.com/bryanwahyu/reviewgate/internal/infra/ai/prompt"
)

// Prompted is an analyzer built from a prompt template: every built-in check
// shares the same exchange shape and differs only in id, category, and the
// review instructions. The profile's per-analyzer options may override the
// instructions ("instructions") and restrict item types ("item_types").
type Prompted struct {
	id           string
	category     string
	weight       int
	instructions string
	itemTypes    map[string]bool // nil = all types
}

func NewPrompted(id, category string, weight int, instructions string) *Prompted {
	return &Prompted{id: id, category: category, weight: weight, instructions: instructions}
}

func (a *Prompted) ID() string       { return a.id }
func (a *Prompted) Category() string { return a.category }
func (a *Prompted) Weight() int      { return a.weight }

func (a *Prompted) Supports(itemType string) bool {
	if a.itemTypes == nil {
		return true
	}
	return a.itemTypes[itemType]
}

// WithItemTypes restricts the analyzer to the given item types.
func (a *Prompted) WithItemTypes(types ...string) *Prompted {
	a.itemTypes = make(map[string]bool, len(types))
	for _, t := range types {
		a.itemTypes[t] = true
	}
	return a
}

func (a *Prompted) BuildPrompt(cctx *content.Context, cfg profiles.AnalyzerConfig) (ai.Prompt, error) {
	if cctx == nil || cctx.CombinedText == "" {
		return ai.Prompt{}, fmt.Errorf("analyzer %s: empty analysis context", a.id)
	}
	instructions := a.instructions
	if v, ok := cfg.Options["instructions"].(string); ok && v != "" {
		instructions = v
	}
	return ai.Prompt{
		System: prompt.SystemPrompt(a.category, instructions, cctx.PolicyText),
		User:   prompt.UserPrompt(cctx.CombinedText),
	}, nil
}

func (a *Prompted) ParseResponse(raw string, _ profiles.AnalyzerConfig) ([]*findings.Finding, error) {
	return prompt.ParseFindings(raw, a.category)
}
