package gating

import (
	"context"
	"fmt"
	"log"

	apprev "github.com/bryanwahyu/reviewgate/internal/application/reviews"
	"github.com/bryanwahyu/reviewgate/internal/domain/content"
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
)

// TransitionOracle maps a state change to a workflow transition id.
// Resolve returns "" when no transition exists for the pair.
type TransitionOracle interface {
	Participates(ctx context.Context, itemType string) (bool, error)
	Resolve(ctx context.Context, itemType, fromState, toState string) (string, error)
}

// Actor is whoever requests the transition.
type Actor struct {
	ID          string
	CanOverride bool
}

// Decision is the gate outcome: allowed, or blocked with a human-readable
// reason. No structured error code — the reason string is the whole contract.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision              { return Decision{Allowed: true} }
func block(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Service is the gating decision engine. It never raises for configuration
// gaps — an empty or disabled configuration collapses to allow.
type Service struct {
	Runs        domain.Repository
	Findings    findings.Repository
	Profiles    profiles.Repository
	Items       content.Store
	Builder     content.ContextBuilder
	Transitions TransitionOracle
}

// Evaluate decides whether the old→new state change of an item may proceed
// under the given profile. The only error returned is a storage failure;
// every business condition collapses into the Decision.
func (s *Service) Evaluate(ctx context.Context, item *content.Item, oldState, newState, profileID string, actor Actor) (Decision, error) {
	profile, err := s.Profiles.Get(ctx, profileID)
	if err != nil {
		return Decision{}, fmt.Errorf("load profile %s: %w", profileID, err)
	}

	// 1. gate disabled, or the type is outside the workflow system
	if !profile.Gating.Enabled {
		return allow(), nil
	}
	participates, err := s.Transitions.Participates(ctx, item.Type)
	if err != nil || !participates {
		return allow(), nil
	}

	// 2. not a transition
	if oldState == newState {
		return allow(), nil
	}

	// 3. transition not in the blocked list
	transitionID, err := s.Transitions.Resolve(ctx, item.Type, oldState, newState)
	if err != nil || transitionID == "" {
		return allow(), nil
	}
	if !profile.Gating.BlocksTransition(transitionID) {
		return allow(), nil
	}

	// 4. override capability
	if profile.Gating.AllowOverride && actor.CanOverride {
		log.Printf("gate override: actor=%s item=%s/%s transition=%s", actor.ID, item.Type, item.ID, transitionID)
		return allow(), nil
	}

	// 5. no run at all
	run, err := s.Runs.Latest(ctx, item.Type, item.ID, profileID)
	if err != nil {
		return Decision{}, fmt.Errorf("load latest run: %w", err)
	}
	if run == nil {
		return block("a review is required before this transition"), nil
	}

	// 6. run not successful
	if run.Status != domain.StatusSuccess {
		if run.Status == domain.StatusPending {
			return block("the review is still in progress"), nil
		}
		return block("the previous review failed; run the review again"), nil
	}

	// 7. stale run
	fp, err := s.Builder.Fingerprint(ctx, item, profile)
	if err == nil && apprev.IsStale(run, fp) {
		return block("the content changed since the last review; run the review again"), nil
	}

	// 8. severity under threshold
	threshold := profile.Gating.Threshold
	if !run.MaxSeverity.Exceeds(threshold) {
		return allow(), nil
	}

	// 9. filter findings to those at or above the threshold. The filter uses
	// the threshold-only rank table (none excluded), so a run-level max that
	// no individual finding backs up allows the transition.
	all, err := s.Findings.ListByRun(ctx, string(run.ID))
	if err != nil {
		return Decision{}, fmt.Errorf("load findings for run %s: %w", run.ID, err)
	}
	var blocking []*findings.Finding
	for _, f := range all {
		if thresholdRank(f.Severity) >= thresholdRank(threshold) && thresholdRank(f.Severity) > 0 {
			blocking = append(blocking, f)
		}
	}
	if len(blocking) == 0 {
		return allow(), nil
	}

	// 10. acknowledgement mode: every blocking finding must be acknowledged
	if profile.Gating.RequireAck {
		unacked := 0
		for _, f := range blocking {
			if !f.Acked {
				unacked++
			}
		}
		if unacked > 0 {
			return block(fmt.Sprintf("%d of %d findings at or above the %s threshold are unacknowledged", unacked, len(blocking), threshold)), nil
		}
		return allow(), nil
	}

	// 11. hard block with severity summary
	return block(fmt.Sprintf("the review found %d high and %d medium severity findings", run.Counts.High, run.Counts.Medium)), nil
}

// thresholdRank is the threshold-only order table: none is excluded (rank 0)
// so severity-none findings can never block.
func thresholdRank(s findings.Severity) int {
	switch s {
	case findings.SeverityLow:
		return 1
	case findings.SeverityMedium:
		return 2
	case findings.SeverityHigh:
		return 3
	default:
		return 0
	}
}

// EvaluateByID loads the item first; convenience for the HTTP layer.
func (s *Service) EvaluateByID(ctx context.Context, itemType, itemID, oldState, newState, profileID string, actor Actor) (Decision, error) {
	item, err := s.Items.Get(ctx, itemType, itemID)
	if err != nil {
		return Decision{}, fmt.Errorf("load item %s/%s: %w", itemType, itemID, err)
	}
	return s.Evaluate(ctx, item, oldState, newState, profileID, actor)
}
