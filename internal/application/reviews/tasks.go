package reviews

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
	"github.com/bryanwahyu/reviewgate/internal/domain/tasks"
)

// HandleTask is the single consumption entry point for deferred tasks. The
// transport delivers at-least-once with no ordering, so every branch
// re-validates current state and no-ops when the work is already done.
func (s *Service) HandleTask(ctx context.Context, t tasks.Task) error {
	switch t.Kind {
	case tasks.KindRunAll:
		return s.handleRunAll(ctx, t)
	case tasks.KindRunOne:
		return s.handleRunOne(ctx, t)
	default:
		// unknown payloads are dropped, not requeued
		log.Printf("dropping task %s with unknown kind %q", t.ID, t.Kind)
		return nil
	}
}

// handleRunAll fans the run back out into one run_one task per analyzer that
// has not reached a terminal sub-status. Used to resume a run after the
// process that scheduled it died.
func (s *Service) handleRunAll(ctx context.Context, t tasks.Task) error {
	run, err := s.Runs.Get(ctx, domain.RunID(t.RunID))
	if err != nil || run == nil {
		log.Printf("run_all task %s: run %s not found, dropping", t.ID, t.RunID)
		return nil
	}
	if run.Status.Terminal() {
		return nil
	}
	profile, err := s.Profiles.Get(ctx, run.ProfileID)
	if err != nil {
		run.Fail(fmt.Sprintf("load profile %s: %v", run.ProfileID, err))
		return s.Runs.Save(ctx, run)
	}

	step := time.Duration(profile.Execution.StepDelaySeconds) * time.Second
	i := 0
	for _, id := range profile.EnabledAnalyzers() {
		if run.AnalyzerStatus(id).Terminal() {
			continue
		}
		one := tasks.Task{
			ID:         uuid.New().String(),
			Kind:       tasks.KindRunOne,
			RunID:      t.RunID,
			ItemType:   run.ItemType,
			ItemID:     run.ItemID,
			ProfileID:  run.ProfileID,
			AnalyzerID: id,
			Actor:      t.Actor,
		}
		if err := s.Scheduler.Schedule(ctx, one, time.Duration(i)*step); err != nil {
			return fmt.Errorf("reschedule analyzer %s: %w", id, err)
		}
		i++
	}
	return nil
}

// handleRunOne executes one analyzer of an existing run. A task arriving for
// a sub-status that is no longer pending belongs to a superseded run and is
// dropped. Rate-limited attempts re-enqueue themselves with retry+1 instead
// of blocking a worker.
func (s *Service) handleRunOne(ctx context.Context, t tasks.Task) error {
	run, err := s.Runs.Get(ctx, domain.RunID(t.RunID))
	if err != nil || run == nil {
		log.Printf("run_one task %s: run %s not found, dropping", t.ID, t.RunID)
		return nil
	}
	if run.AnalyzerStatus(t.AnalyzerID).Terminal() {
		return nil
	}

	res := s.ExecuteOne(ctx, run, t.AnalyzerID, t.Retry)
	if res.Retry {
		next := t
		next.ID = uuid.New().String()
		next.Retry = t.Retry + 1
		return s.Scheduler.Schedule(ctx, next, res.Delay)
	}
	if res.RunFailure {
		run.Fail(res.Error)
		return s.Runs.Save(ctx, run)
	}

	profile, err := s.Profiles.Get(ctx, run.ProfileID)
	if err != nil {
		run.Fail(fmt.Sprintf("load profile %s: %v", run.ProfileID, err))
		return s.Runs.Save(ctx, run)
	}
	return s.Record(ctx, run, profile, t.AnalyzerID, res)
}
