package reviews

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/reviewgate/internal/application"
	"github.com/bryanwahyu/reviewgate/internal/domain/ai"
	"github.com/bryanwahyu/reviewgate/internal/domain/analyzers"
	"github.com/bryanwahyu/reviewgate/internal/domain/content"
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
	"github.com/bryanwahyu/reviewgate/internal/domain/runerrors"
	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
	"github.com/bryanwahyu/reviewgate/internal/domain/tasks"
)

// TranscriptStore persists the raw provider exchange per analyzer execution
// for auditing. Best-effort: failures never fail a run.
type TranscriptStore interface {
	Put(ctx context.Context, runID, analyzerID string, attempt int, p ai.Prompt, res ai.ChatResult) (string, error)
}

// Service implements the review run use-cases: deciding cache reuse, fanning
// out analyzer executions, retrying transient provider errors, and finalizing
// runs once every analyzer is terminal. Safe for concurrent use.
type Service struct {
	Runs        domain.Repository
	Findings    findings.Repository
	Profiles    profiles.Repository
	Items       content.Store
	Builder     content.ContextBuilder
	Registry    *analyzers.Registry
	Provider    ai.Provider
	Scheduler   tasks.Scheduler
	Errors      runerrors.Repository // optional
	Transcripts TranscriptStore      // optional
	Clock       application.Clock
	Sleeper     application.Sleeper

	// DefaultMode applies when a profile leaves its run mode unset.
	DefaultMode profiles.RunMode
}

// ExecResult is the outcome of one analyzer execution attempt.
type ExecResult struct {
	Status     domain.Status
	Findings   []*findings.Finding
	Error      string
	ProviderID string
	Model      string

	// Retry asks the caller to re-attempt after Delay instead of recording
	// a terminal result: the sync path sleeps, the deferred path re-enqueues.
	Retry bool
	Delay time.Duration

	// RunFailure marks an error outside any single analyzer (item or
	// profile unloadable): the whole run must be failed.
	RunFailure bool
}

// Run starts (or reuses) a full review of an item under a profile.
// Run-level errors are converted into a failed run record, not returned.
func (s *Service) Run(ctx context.Context, itemType, itemID, profileID string, force bool, actor string) (*domain.RunRecord, error) {
	now := s.Clock.Now()

	profile, err := s.Profiles.Get(ctx, profileID)
	if err != nil {
		return s.failNewRun(ctx, itemType, itemID, profileID, actor, now, fmt.Sprintf("load profile %s: %v", profileID, err))
	}
	item, err := s.Items.Get(ctx, itemType, itemID)
	if err != nil {
		return s.failNewRun(ctx, itemType, itemID, profileID, actor, now, fmt.Sprintf("load item %s/%s: %v", itemType, itemID, err))
	}
	fp, err := s.Builder.Fingerprint(ctx, item, profile)
	if err != nil {
		return s.failNewRun(ctx, itemType, itemID, profileID, actor, now, fmt.Sprintf("fingerprint: %v", err))
	}

	if !force {
		latest, lerr := s.Runs.Latest(ctx, itemType, itemID, profileID)
		if lerr == nil && IsCacheValid(latest, fp, profile.Execution.CacheTTLSeconds, now) {
			return latest, nil
		}
	}

	enabled := profile.EnabledAnalyzers()
	run := s.newRun(item, profileID, fp, actor, now)
	run.SeedAnalyzers(enabled)
	if err := s.Runs.Save(ctx, run); err != nil {
		return nil, err
	}

	switch s.mode(profile) {
	case profiles.ModeDeferred:
		step := time.Duration(profile.Execution.StepDelaySeconds) * time.Second
		for i, id := range enabled {
			t := tasks.Task{
				ID:         uuid.New().String(),
				Kind:       tasks.KindRunOne,
				RunID:      string(run.ID),
				ItemType:   itemType,
				ItemID:     itemID,
				ProfileID:  profileID,
				AnalyzerID: id,
				Actor:      actor,
			}
			// stagger independent analyzers: index × step delay
			if err := s.Scheduler.Schedule(ctx, t, time.Duration(i)*step); err != nil {
				run.Fail(fmt.Sprintf("schedule analyzer %s: %v", id, err))
				s.logRunError(ctx, run, id, "run", err)
				_ = s.Runs.Save(ctx, run)
				return run, nil
			}
		}
	default: // sync
		step := time.Duration(profile.Execution.StepDelaySeconds) * time.Second
		for i, id := range enabled {
			if i > 0 && step > 0 {
				s.Sleeper.Sleep(step)
			}
			s.executeSync(ctx, run, profile, id)
		}
	}
	return run, nil
}

// RunSingle re-runs one analyzer, reusing the latest run record so the other
// analyzers' findings survive. A new record is created only when none exists
// or force demands a clean run.
func (s *Service) RunSingle(ctx context.Context, itemType, itemID, profileID, analyzerID string, force bool, actor string) (*domain.RunRecord, error) {
	now := s.Clock.Now()

	profile, err := s.Profiles.Get(ctx, profileID)
	if err != nil {
		return s.failNewRun(ctx, itemType, itemID, profileID, actor, now, fmt.Sprintf("load profile %s: %v", profileID, err))
	}
	cfg, ok := profile.AnalyzerConfig(analyzerID)
	if !ok || !cfg.Enabled {
		return nil, fmt.Errorf("analyzer %s is not enabled in profile %s", analyzerID, profileID)
	}
	item, err := s.Items.Get(ctx, itemType, itemID)
	if err != nil {
		return s.failNewRun(ctx, itemType, itemID, profileID, actor, now, fmt.Sprintf("load item %s/%s: %v", itemType, itemID, err))
	}
	fp, err := s.Builder.Fingerprint(ctx, item, profile)
	if err != nil {
		return s.failNewRun(ctx, itemType, itemID, profileID, actor, now, fmt.Sprintf("fingerprint: %v", err))
	}

	var run *domain.RunRecord
	if !force {
		run, _ = s.Runs.Latest(ctx, itemType, itemID, profileID)
	}
	if run == nil {
		run = s.newRun(item, profileID, fp, actor, now)
		run.SeedAnalyzers([]string{analyzerID})
	} else {
		run.ResetAnalyzer(analyzerID)
		run.Actor = actor
		run.ExecutedAt = now
	}
	if err := s.Runs.Save(ctx, run); err != nil {
		return nil, err
	}

	switch s.mode(profile) {
	case profiles.ModeDeferred:
		t := tasks.Task{
			ID:         uuid.New().String(),
			Kind:       tasks.KindRunOne,
			RunID:      string(run.ID),
			ItemType:   itemType,
			ItemID:     itemID,
			ProfileID:  profileID,
			AnalyzerID: analyzerID,
			Actor:      actor,
		}
		if err := s.Scheduler.Schedule(ctx, t, 0); err != nil {
			run.Fail(fmt.Sprintf("schedule analyzer %s: %v", analyzerID, err))
			s.logRunError(ctx, run, analyzerID, "run", err)
			_ = s.Runs.Save(ctx, run)
		}
	default:
		s.executeSync(ctx, run, profile, analyzerID)
	}
	return run, nil
}

// ExecuteOne performs one execution attempt of a single analyzer.
// retryCount is the number of attempts already burned on rate limits.
func (s *Service) ExecuteOne(ctx context.Context, run *domain.RunRecord, analyzerID string, retryCount int) ExecResult {
	item, err := s.Items.Get(ctx, run.ItemType, run.ItemID)
	if err != nil {
		return ExecResult{RunFailure: true, Status: domain.StatusFailed, Error: fmt.Sprintf("load item %s/%s: %v", run.ItemType, run.ItemID, err)}
	}
	profile, err := s.Profiles.Get(ctx, run.ProfileID)
	if err != nil {
		return ExecResult{RunFailure: true, Status: domain.StatusFailed, Error: fmt.Sprintf("load profile %s: %v", run.ProfileID, err)}
	}

	fs, providerID, model, err := s.invokeAnalyzer(ctx, run, item, profile, analyzerID, retryCount)
	if err == nil {
		return ExecResult{Status: domain.StatusSuccess, Findings: fs, ProviderID: providerID, Model: model}
	}

	policy := PolicyFromProfile(profile.Execution)
	if retry, delay := policy.Next(err, retryCount); retry {
		log.Printf("analyzer %s rate-limited on run %s (attempt %d), backing off %s", analyzerID, run.ID, retryCount+1, delay)
		s.logRunError(ctx, run, analyzerID, "retry", err)
		return ExecResult{Retry: true, Delay: delay}
	}

	s.logRunError(ctx, run, analyzerID, "analyzer", err)
	return ExecResult{
		Status:   domain.StatusFailed,
		Error:    err.Error(),
		Findings: []*findings.Finding{s.failureFinding(run, analyzerID, err)},
	}
}

// Record writes one analyzer's terminal result into the run record, copies
// its findings snapshot into the finding store, and finalizes the run when
// every analyzer is terminal.
func (s *Service) Record(ctx context.Context, run *domain.RunRecord, profile *profiles.Profile, analyzerID string, res ExecResult) error {
	if res.RunFailure {
		run.Fail(res.Error)
		return s.Runs.Save(ctx, run)
	}

	st := &domain.AnalyzerState{
		Status:      res.Status,
		AttemptedAt: s.Clock.Now(),
		Findings:    res.Findings,
		Error:       res.Error,
	}
	run.SetAnalyzerResult(analyzerID, st)
	if res.ProviderID != "" {
		run.ProviderID = res.ProviderID
		run.Model = res.Model
	}
	if err := s.Findings.ReplaceForAnalyzer(ctx, string(run.ID), analyzerID, res.Findings); err != nil {
		return err
	}
	if run.AllTerminal() {
		run.Aggregate(profile.EnabledAnalyzers())
		log.Printf("run %s finalized: max=%s high=%d medium=%d low=%d",
			run.ID, run.MaxSeverity, run.Counts.High, run.Counts.Medium, run.Counts.Low)
	}
	return s.Runs.Save(ctx, run)
}

// executeSync runs one analyzer to a terminal result on the calling
// goroutine, sleeping through backoffs.
func (s *Service) executeSync(ctx context.Context, run *domain.RunRecord, profile *profiles.Profile, analyzerID string) {
	attempt := 0
	for {
		res := s.ExecuteOne(ctx, run, analyzerID, attempt)
		if res.Retry {
			s.Sleeper.Sleep(res.Delay)
			attempt++
			continue
		}
		if err := s.Record(ctx, run, profile, analyzerID, res); err != nil {
			log.Printf("record analyzer %s on run %s: %v", analyzerID, run.ID, err)
		}
		return
	}
}

// invokeAnalyzer performs exactly one provider round-trip for one analyzer.
// An unsupported item type is a skip: success with no findings.
func (s *Service) invokeAnalyzer(ctx context.Context, run *domain.RunRecord, item *content.Item, profile *profiles.Profile, analyzerID string, attempt int) ([]*findings.Finding, string, string, error) {
	an, err := s.Registry.Get(analyzerID)
	if err != nil {
		return nil, "", "", err
	}
	if !an.Supports(item.Type) {
		return nil, "", "", nil
	}
	cctx, err := s.Builder.BuildContext(ctx, item, profile)
	if err != nil {
		return nil, "", "", fmt.Errorf("build context: %w", err)
	}
	cfg, _ := profile.AnalyzerConfig(analyzerID)
	prompt, err := an.BuildPrompt(cctx, cfg)
	if err != nil {
		return nil, "", "", fmt.Errorf("build prompt: %w", err)
	}

	res, err := s.Provider.Chat(ctx, prompt, ai.ChatOptions{
		ProviderID:  profile.AI.ProviderID,
		Model:       profile.AI.Model,
		Temperature: profile.AI.Temperature,
		MaxTokens:   profile.AI.MaxTokens,
	})
	if err != nil {
		return nil, "", "", err
	}

	if s.Transcripts != nil {
		if _, terr := s.Transcripts.Put(ctx, string(run.ID), analyzerID, attempt, prompt, res); terr != nil {
			log.Printf("store transcript for run %s analyzer %s: %v", run.ID, analyzerID, terr)
		}
	}

	fs, err := an.ParseResponse(res.Content, cfg)
	if err != nil {
		return nil, res.ProviderID, res.Model, fmt.Errorf("parse response: %w", err)
	}
	now := s.Clock.Now()
	for _, f := range fs {
		if f.ID == "" {
			f.ID = findings.FindingID(uuid.New().String())
		}
		f.RunID = string(run.ID)
		f.AnalyzerID = analyzerID
		if f.Category == "" {
			f.Category = an.Category()
		}
		f.CreatedAt = now
	}
	return fs, res.ProviderID, res.Model, nil
}

// failureFinding keeps failures visible in the same data shape as real
// findings: exactly one synthetic system-category, low-severity entry.
func (s *Service) failureFinding(run *domain.RunRecord, analyzerID string, err error) *findings.Finding {
	return &findings.Finding{
		ID:         findings.FindingID(uuid.New().String()),
		RunID:      string(run.ID),
		AnalyzerID: analyzerID,
		Category:   "system",
		Severity:   findings.SeverityLow,
		Title:      fmt.Sprintf("Analyzer %s did not complete", analyzerID),
		Summary:    err.Error(),
		CreatedAt:  s.Clock.Now(),
	}
}

func (s *Service) newRun(item *content.Item, profileID, fp, actor string, now time.Time) *domain.RunRecord {
	return &domain.RunRecord{
		ID:          domain.RunID(uuid.New().String()),
		ItemType:    item.Type,
		ItemID:      item.ID,
		ItemRev:     item.Rev,
		ProfileID:   profileID,
		Fingerprint: fp,
		Actor:       actor,
		ExecutedAt:  now,
		Status:      domain.StatusPending,
	}
}

// failNewRun converts a run-level error into a failed run record instead of
// surfacing an exception to the caller.
func (s *Service) failNewRun(ctx context.Context, itemType, itemID, profileID, actor string, now time.Time, msg string) (*domain.RunRecord, error) {
	run := &domain.RunRecord{
		ID:         domain.RunID(uuid.New().String()),
		ItemType:   itemType,
		ItemID:     itemID,
		ProfileID:  profileID,
		Actor:      actor,
		ExecutedAt: now,
		Status:     domain.StatusFailed,
		Error:      msg,
	}
	log.Printf("review run failed before execution: %s", msg)
	s.logRunError(ctx, run, "", "run", fmt.Errorf("%s", msg))
	if err := s.Runs.Save(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Service) logRunError(ctx context.Context, run *domain.RunRecord, analyzerID, phase string, err error) {
	if s.Errors == nil {
		return
	}
	e := &runerrors.RunError{
		RunID:      string(run.ID),
		AnalyzerID: analyzerID,
		Phase:      phase,
		Message:    err.Error(),
		CreatedAt:  s.Clock.Now(),
	}
	if serr := s.Errors.Save(ctx, e); serr != nil {
		log.Printf("save run error for %s: %v", run.ID, serr)
	}
}

func (s *Service) mode(p *profiles.Profile) profiles.RunMode {
	if p.Execution.Mode != profiles.ModeDefault {
		return p.Execution.Mode
	}
	if s.DefaultMode != profiles.ModeDefault {
		return s.DefaultMode
	}
	return profiles.ModeSync
}

// Get returns a run by id; partial results are queryable any time.
func (s *Service) Get(ctx context.Context, id domain.RunID) (*domain.RunRecord, error) {
	return s.Runs.Get(ctx, id)
}

// Latest returns the most recent run for (item, profile), nil when none.
func (s *Service) Latest(ctx context.Context, itemType, itemID, profileID string) (*domain.RunRecord, error) {
	return s.Runs.Latest(ctx, itemType, itemID, profileID)
}

// ListByItem returns recent runs for an item, newest first.
func (s *Service) ListByItem(ctx context.Context, itemType, itemID string, limit int) ([]*domain.RunRecord, error) {
	return s.Runs.ListByItem(ctx, itemType, itemID, limit)
}

// FindingsByRun lists all stored findings of one run.
func (s *Service) FindingsByRun(ctx context.Context, runID string) ([]*findings.Finding, error) {
	return s.Findings.ListByRun(ctx, runID)
}

// Acknowledge marks one finding acknowledged by actor.
func (s *Service) Acknowledge(ctx context.Context, id findings.FindingID, actor, note string) error {
	return s.Findings.Acknowledge(ctx, id, actor, note, s.Clock.Now())
}

// ErrorsByRun lists the persisted error log of one run.
func (s *Service) ErrorsByRun(ctx context.Context, runID string, limit int) ([]*runerrors.RunError, error) {
	if s.Errors == nil {
		return nil, nil
	}
	return s.Errors.ListByRun(ctx, runID, limit)
}
