// Package workflow resolves state changes against a statically configured
// workflow map. Deployments embedded in a real workflow engine replace this
// with a client for it.
package workflow

import (
	"context"
	"fmt"
)

// Definition is one item type's workflow, as configured.
type Definition struct {
	// Transitions maps "<from>-><to>" to a transition id.
	Transitions map[string]string `yaml:"transitions"`
}

type StaticOracle struct {
	byType map[string]Definition
}

func NewStaticOracle(defs map[string]Definition) *StaticOracle {
	return &StaticOracle{byType: defs}
}

func (o *StaticOracle) Participates(_ context.Context, itemType string) (bool, error) {
	_, ok := o.byType[itemType]
	return ok, nil
}

// Resolve returns "" when the pair has no configured transition.
func (o *StaticOracle) Resolve(_ context.Context, itemType, fromState, toState string) (string, error) {
	def, ok := o.byType[itemType]
	if !ok {
		return "", nil
	}
	return def.Transitions[fmt.Sprintf("%s->%s", fromState, toState)], nil
}
