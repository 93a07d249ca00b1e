package analyzers

import (
	"fmt"
	"sort"

	"github.com/bryanwahyu/reviewgate/internal/domain/ai"
	"github.com/bryanwahyu/reviewgate/internal/domain/content"
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
)

// Analyzer is a pluggable check. The orchestrator treats prompt construction
// and response parsing as a black box returning normalized findings.
type Analyzer interface {
	// ID returns the stable analyzer identifier.
	ID() string
	// Category tags the findings this analyzer produces.
	Category() string
	// Weight orders analyzers for display; lower runs earlier in listings.
	Weight() int

	Supports(itemType string) bool
	BuildPrompt(cctx *content.Context, cfg profiles.AnalyzerConfig) (ai.Prompt, error)
	ParseResponse(raw string, cfg profiles.AnalyzerConfig) ([]*findings.Finding, error)
}

// Registry holds the analyzers known to this deployment, keyed by id.
type Registry struct {
	byID map[string]Analyzer
}

func NewRegistry(as ...Analyzer) *Registry {
	r := &Registry{byID: make(map[string]Analyzer, len(as))}
	for _, a := range as {
		r.byID[a.ID()] = a
	}
	return r
}

func (r *Registry) Register(a Analyzer) {
	r.byID[a.ID()] = a
}

func (r *Registry) Get(id string) (Analyzer, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("analyzer not registered: %s", id)
	}
	return a, nil
}

// All returns every registered analyzer ordered by weight then id.
func (r *Registry) All() []Analyzer {
	out := make([]Analyzer, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight() != out[j].Weight() {
			return out[i].Weight() < out[j].Weight()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}
