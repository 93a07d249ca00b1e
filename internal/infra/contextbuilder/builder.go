// Package contextbuilder is the default context-builder collaborator: it
// flattens an item's fields into analyzable text and fingerprints the inputs
// the analysis depends on.
package contextbuilder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/content"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
)

type Builder struct {
	// PolicyText is appended to every context so policy-checking analyzers
	// have the house rules at hand.
	PolicyText string
}

func New(policyText string) *Builder {
	return &Builder{PolicyText: policyText}
}

func (b *Builder) BuildContext(_ context.Context, item *domain.Item, _ *profiles.Profile) (*domain.Context, error) {
	if item == nil {
		return nil, fmt.Errorf("nil item")
	}
	fields := sortedFieldNames(item)
	frags := make([]domain.Fragment, 0, len(fields))
	var combined strings.Builder
	for _, name := range fields {
		text := normalize(item.Fields[name])
		if text == "" {
			continue
		}
		frags = append(frags, domain.Fragment{Field: name, Text: text})
		fmt.Fprintf(&combined, "[%s]\n%s\n\n", name, text)
	}
	return &domain.Context{
		Meta: map[string]string{
			"item_type": item.Type,
			"item_id":   item.ID,
			"state":     item.State,
		},
		Fragments:    frags,
		CombinedText: strings.TrimSpace(combined.String()),
		PolicyText:   b.PolicyText,
	}, nil
}

// Fingerprint hashes normalized text, selected metadata, the profile id, and
// the enabled analyzer list. Deterministic for identical inputs; consumers
// compare for equality only.
func (b *Builder) Fingerprint(_ context.Context, item *domain.Item, profile *profiles.Profile) (string, error) {
	if item == nil || profile == nil {
		return "", fmt.Errorf("nil item or profile")
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", item.Type, item.ID, item.State)
	for _, name := range sortedFieldNames(item) {
		fmt.Fprintf(h, "%s\x00%s\x00", name, normalize(item.Fields[name]))
	}
	fmt.Fprintf(h, "profile\x00%s\x00", profile.ID)
	for _, id := range profile.EnabledAnalyzers() {
		fmt.Fprintf(h, "analyzer\x00%s\x00", id)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedFieldNames(item *domain.Item) []string {
	names := make([]string, 0, len(item.Fields))
	for name := range item.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalize collapses whitespace so formatting-only edits do not invalidate
// the cache.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
