package reviews

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/reviewgate/internal/domain/ai"
	"github.com/bryanwahyu/reviewgate/internal/domain/analyzers"
	"github.com/bryanwahyu/reviewgate/internal/domain/content"
	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
	"github.com/bryanwahyu/reviewgate/internal/domain/tasks"
)

// --- fakes ---

type fakeRuns struct {
	byID  map[domain.RunID]*domain.RunRecord
	saves int
}

func newFakeRuns() *fakeRuns { return &fakeRuns{byID: map[domain.RunID]*domain.RunRecord{}} }

func (f *fakeRuns) Save(_ context.Context, r *domain.RunRecord) error {
	f.byID[r.ID] = r
	f.saves++
	return nil
}

func (f *fakeRuns) Get(_ context.Context, id domain.RunID) (*domain.RunRecord, error) {
	return f.byID[id], nil
}

func (f *fakeRuns) Latest(_ context.Context, itemType, itemID, profileID string) (*domain.RunRecord, error) {
	var latest *domain.RunRecord
	for _, r := range f.byID {
		if r.ItemType != itemType || r.ItemID != itemID || r.ProfileID != profileID {
			continue
		}
		if latest == nil || r.ExecutedAt.After(latest.ExecutedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (f *fakeRuns) ListByItem(_ context.Context, itemType, itemID string, _ int) ([]*domain.RunRecord, error) {
	var out []*domain.RunRecord
	for _, r := range f.byID {
		if r.ItemType == itemType && r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFindings struct {
	byUnit map[string][]*findings.Finding // runID+"/"+analyzerID
}

func newFakeFindings() *fakeFindings { return &fakeFindings{byUnit: map[string][]*findings.Finding{}} }

func (f *fakeFindings) Get(_ context.Context, id findings.FindingID) (*findings.Finding, error) {
	for _, fs := range f.byUnit {
		for _, x := range fs {
			if x.ID == id {
				return x, nil
			}
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeFindings) ListByRun(_ context.Context, runID string) ([]*findings.Finding, error) {
	var out []*findings.Finding
	for key, fs := range f.byUnit {
		if len(key) > len(runID) && key[:len(runID)] == runID {
			out = append(out, fs...)
		}
	}
	return out, nil
}

func (f *fakeFindings) ListByRunAnalyzer(_ context.Context, runID, analyzerID string) ([]*findings.Finding, error) {
	return f.byUnit[runID+"/"+analyzerID], nil
}

func (f *fakeFindings) ReplaceForAnalyzer(_ context.Context, runID, analyzerID string, fs []*findings.Finding) error {
	f.byUnit[runID+"/"+analyzerID] = fs
	return nil
}

func (f *fakeFindings) Acknowledge(_ context.Context, id findings.FindingID, actor, note string, at time.Time) error {
	for _, fs := range f.byUnit {
		for _, x := range fs {
			if x.ID == id {
				x.Acknowledge(actor, note, at)
				return nil
			}
		}
	}
	return errors.New("not found")
}

type fakeProfiles struct {
	byID map[string]*profiles.Profile
}

func (f *fakeProfiles) Get(_ context.Context, id string) (*profiles.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	return p, nil
}

func (f *fakeProfiles) List(_ context.Context) ([]*profiles.Profile, error) { return nil, nil }

func (f *fakeProfiles) Save(_ context.Context, p *profiles.Profile) error {
	f.byID[p.ID] = p
	return nil
}

type fakeItems struct {
	byKey map[string]*content.Item
}

func (f *fakeItems) Get(_ context.Context, itemType, itemID string) (*content.Item, error) {
	it, ok := f.byKey[itemType+"/"+itemID]
	if !ok {
		return nil, fmt.Errorf("item %s/%s not found", itemType, itemID)
	}
	return it, nil
}

type fakeBuilder struct {
	fp string
}

func (f *fakeBuilder) BuildContext(_ context.Context, item *content.Item, _ *profiles.Profile) (*content.Context, error) {
	return &content.Context{CombinedText: item.Fields["body"]}, nil
}

func (f *fakeBuilder) Fingerprint(_ context.Context, _ *content.Item, _ *profiles.Profile) (string, error) {
	return f.fp, nil
}

type fakeProvider struct {
	errs  []error // consumed first, one per call
	calls int
}

func (f *fakeProvider) Chat(_ context.Context, _ ai.Prompt, _ ai.ChatOptions) (ai.ChatResult, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return ai.ChatResult{}, err
		}
	}
	return ai.ChatResult{Content: `[]`, ProviderID: "fake", Model: "m1"}, nil
}

type fakeAnalyzer struct {
	id       string
	category string
	supports bool
	out      []*findings.Finding
	parseErr error
}

func (a *fakeAnalyzer) ID() string               { return a.id }
func (a *fakeAnalyzer) Category() string         { return a.category }
func (a *fakeAnalyzer) Weight() int              { return 10 }
func (a *fakeAnalyzer) Supports(_ string) bool   { return a.supports }
func (a *fakeAnalyzer) BuildPrompt(cctx *content.Context, _ profiles.AnalyzerConfig) (ai.Prompt, error) {
	return ai.Prompt{System: "sys", User: cctx.CombinedText}, nil
}
func (a *fakeAnalyzer) ParseResponse(_ string, _ profiles.AnalyzerConfig) ([]*findings.Finding, error) {
	if a.parseErr != nil {
		return nil, a.parseErr
	}
	// return copies so repeated executions don't share stamped state
	out := make([]*findings.Finding, len(a.out))
	for i, f := range a.out {
		c := *f
		out[i] = &c
	}
	return out, nil
}

type fakeScheduler struct {
	tasks  []tasks.Task
	delays []time.Duration
}

func (f *fakeScheduler) Schedule(_ context.Context, t tasks.Task, delay time.Duration) error {
	f.tasks = append(f.tasks, t)
	f.delays = append(f.delays, delay)
	return nil
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeSleeper struct{ slept []time.Duration }

func (s *fakeSleeper) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

// --- fixture ---

type fixture struct {
	svc      *Service
	runs     *fakeRuns
	finds    *fakeFindings
	profiles *fakeProfiles
	items    *fakeItems
	provider *fakeProvider
	sched    *fakeScheduler
	sleeper  *fakeSleeper
	now      time.Time
}

func fnd(sev findings.Severity, title string) *findings.Finding {
	return &findings.Finding{Severity: sev, Title: title}
}

func newFixture(t *testing.T, p *profiles.Profile, as ...analyzers.Analyzer) *fixture {
	t.Helper()
	require.NoError(t, p.Validate())

	fx := &fixture{
		runs:     newFakeRuns(),
		finds:    newFakeFindings(),
		profiles: &fakeProfiles{byID: map[string]*profiles.Profile{p.ID: p}},
		items: &fakeItems{byKey: map[string]*content.Item{
			"article/a1": {Type: "article", ID: "a1", Rev: 3, State: "draft", Fields: map[string]string{"body": "hello"}},
		}},
		provider: &fakeProvider{},
		sched:    &fakeScheduler{},
		sleeper:  &fakeSleeper{},
		now:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.svc = &Service{
		Runs:      fx.runs,
		Findings:  fx.finds,
		Profiles:  fx.profiles,
		Items:     fx.items,
		Builder:   &fakeBuilder{fp: "fp-1"},
		Registry:  analyzers.NewRegistry(as...),
		Provider:  fx.provider,
		Scheduler: fx.sched,
		Clock:     fakeClock{now: fx.now},
		Sleeper:   fx.sleeper,
	}
	return fx
}

func twoAnalyzerProfile() *profiles.Profile {
	return &profiles.Profile{
		ID: "default",
		Analyzers: []profiles.AnalyzerConfig{
			{ID: "clarity", Enabled: true},
			{ID: "compliance", Enabled: true},
		},
		Execution: profiles.ExecutionSettings{CacheTTLSeconds: 60},
	}
}

// --- tests ---

func TestRunSyncFinalizesWithAggregates(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", category: "editorial", supports: true,
			out: []*findings.Finding{fnd(findings.SeverityHigh, "confusing intro")}},
		&fakeAnalyzer{id: "compliance", category: "policy", supports: true,
			out: []*findings.Finding{fnd(findings.SeverityMedium, "unapproved claim")}},
	)

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, domain.StatusSuccess, run.Status)
	assert.Equal(t, findings.SeverityHigh, run.MaxSeverity)
	assert.Equal(t, 1, run.Counts.High)
	assert.Equal(t, 1, run.Counts.Medium)
	assert.Equal(t, 2, run.Counts.Total)
	assert.Equal(t, "fake", run.ProviderID)
	assert.Equal(t, 2, fx.provider.calls)

	// findings were stamped and persisted per analyzer
	stored, _ := fx.finds.ListByRunAnalyzer(context.Background(), string(run.ID), "clarity")
	require.Len(t, stored, 1)
	assert.Equal(t, string(run.ID), stored[0].RunID)
	assert.Equal(t, "clarity", stored[0].AnalyzerID)
	assert.Equal(t, "editorial", stored[0].Category)
	assert.NotEmpty(t, stored[0].ID)
}

func TestRunCacheHitReturnsExistingRun(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)
	prev := &domain.RunRecord{
		ID: "prev", ItemType: "article", ItemID: "a1", ProfileID: "default",
		Fingerprint: "fp-1", Status: domain.StatusSuccess,
		ExecutedAt: fx.now.Add(-30 * time.Second),
	}
	fx.runs.byID[prev.ID] = prev

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)
	assert.Same(t, prev, run)
	assert.Zero(t, fx.provider.calls)
}

func TestRunForceBypassesCache(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)
	prev := &domain.RunRecord{
		ID: "prev", ItemType: "article", ItemID: "a1", ProfileID: "default",
		Fingerprint: "fp-1", Status: domain.StatusSuccess,
		ExecutedAt: fx.now.Add(-30 * time.Second),
	}
	fx.runs.byID[prev.ID] = prev

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", true, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, prev.ID, run.ID)
	assert.Equal(t, 2, fx.provider.calls)
}

func TestRunStaleFingerprintMissesCache(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)
	prev := &domain.RunRecord{
		ID: "prev", ItemType: "article", ItemID: "a1", ProfileID: "default",
		Fingerprint: "fp-OLD", Status: domain.StatusSuccess,
		ExecutedAt: fx.now.Add(-30 * time.Second),
	}
	fx.runs.byID[prev.ID] = prev

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, prev.ID, run.ID)
	assert.Equal(t, "fp-1", run.Fingerprint)
}

func TestRunProfileLoadFailureBecomesFailedRecord(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile())

	run, err := fx.svc.Run(context.Background(), "article", "a1", "missing", false, "alice")
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Contains(t, run.Error, "load profile")
	// the failed record was persisted and is queryable
	assert.Equal(t, run, fx.runs.byID[run.ID])
}

func TestRunItemLoadFailureBecomesFailedRecord(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)

	run, err := fx.svc.Run(context.Background(), "article", "gone", "default", false, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, run.Status)
	assert.Contains(t, run.Error, "load item")
	assert.Zero(t, fx.provider.calls)
}

func TestRunRetriesRateLimitsThenFails(t *testing.T) {
	p := &profiles.Profile{
		ID:        "default",
		Analyzers: []profiles.AnalyzerConfig{{ID: "clarity", Enabled: true}},
		Execution: profiles.ExecutionSettings{
			RetryEnabled: true, MaxRetries: 2, BackoffBase: 2, BackoffMult: 2,
		},
	}
	fx := newFixture(t, p, &fakeAnalyzer{id: "clarity", category: "editorial", supports: true})
	fx.provider.errs = []error{
		errors.New("429"), errors.New("429"), errors.New("429"), errors.New("429"),
	}

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)

	// budget is max retries + 1 attempts, backoff doubling each time
	assert.Equal(t, 3, fx.provider.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, fx.sleeper.slept)

	// the exhausted analyzer fails but the run still completes, its failure
	// surfaced as a synthetic finding
	assert.Equal(t, domain.StatusFailed, run.Analyzers["clarity"].Status)
	assert.Equal(t, domain.StatusSuccess, run.Status)
	stored, _ := fx.finds.ListByRunAnalyzer(context.Background(), string(run.ID), "clarity")
	require.Len(t, stored, 1)
	assert.Equal(t, "system", stored[0].Category)
	assert.Equal(t, findings.SeverityLow, stored[0].Severity)
}

func TestRunRetrySucceedsAfterBackoff(t *testing.T) {
	p := &profiles.Profile{
		ID:        "default",
		Analyzers: []profiles.AnalyzerConfig{{ID: "clarity", Enabled: true}},
		Execution: profiles.ExecutionSettings{
			RetryEnabled: true, MaxRetries: 3, BackoffBase: 1, BackoffMult: 2,
		},
	}
	fx := newFixture(t, p, &fakeAnalyzer{id: "clarity", supports: true,
		out: []*findings.Finding{fnd(findings.SeverityLow, "minor")}})
	fx.provider.errs = []error{errors.New("rate limit reached"), nil}

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)

	assert.Equal(t, 2, fx.provider.calls)
	assert.Equal(t, []time.Duration{1 * time.Second}, fx.sleeper.slept)
	assert.Equal(t, domain.StatusSuccess, run.Status)
	assert.Equal(t, 1, run.Counts.Low)
}

func TestRunNonRateLimitErrorFailsWithoutRetry(t *testing.T) {
	p := &profiles.Profile{
		ID:        "default",
		Analyzers: []profiles.AnalyzerConfig{{ID: "clarity", Enabled: true}},
		Execution: profiles.ExecutionSettings{RetryEnabled: true, MaxRetries: 3},
	}
	fx := newFixture(t, p, &fakeAnalyzer{id: "clarity", supports: true})
	fx.provider.errs = []error{errors.New("invalid api key")}

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.provider.calls)
	assert.Empty(t, fx.sleeper.slept)
	assert.Equal(t, domain.StatusFailed, run.Analyzers["clarity"].Status)
}

func TestRunSkipsUnsupportedItemType(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: false},
		&fakeAnalyzer{id: "compliance", supports: true,
			out: []*findings.Finding{fnd(findings.SeverityMedium, "claim")}},
	)

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)

	// only the supporting analyzer reached the provider
	assert.Equal(t, 1, fx.provider.calls)
	assert.Equal(t, domain.StatusSuccess, run.Analyzers["clarity"].Status)
	assert.Empty(t, run.Analyzers["clarity"].Findings)
	assert.Equal(t, domain.StatusSuccess, run.Status)
	assert.Equal(t, 1, run.Counts.Total)
}

func TestRunDeferredSchedulesStaggeredTasks(t *testing.T) {
	p := twoAnalyzerProfile()
	p.Execution.Mode = profiles.ModeDeferred
	p.Execution.StepDelaySeconds = 7
	fx := newFixture(t, p,
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)

	run, err := fx.svc.Run(context.Background(), "article", "a1", "default", false, "alice")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, run.Status)
	assert.Zero(t, fx.provider.calls)
	require.Len(t, fx.sched.tasks, 2)
	assert.Equal(t, tasks.KindRunOne, fx.sched.tasks[0].Kind)
	assert.Equal(t, "clarity", fx.sched.tasks[0].AnalyzerID)
	assert.Equal(t, "compliance", fx.sched.tasks[1].AnalyzerID)
	assert.Equal(t, []time.Duration{0, 7 * time.Second}, fx.sched.delays)
}

func TestRunSingleReusesLatestRun(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true,
			out: []*findings.Finding{fnd(findings.SeverityHigh, "violation")}},
	)

	prev := &domain.RunRecord{
		ID: "prev", ItemType: "article", ItemID: "a1", ProfileID: "default",
		Fingerprint: "fp-1", Status: domain.StatusSuccess,
		ExecutedAt: fx.now.Add(-time.Hour),
	}
	prev.SetAnalyzerResult("clarity", &domain.AnalyzerState{
		Status: domain.StatusSuccess, Findings: []*findings.Finding{fnd(findings.SeverityLow, "kept")},
	})
	prev.SetAnalyzerResult("compliance", &domain.AnalyzerState{Status: domain.StatusSuccess})
	prev.Aggregate([]string{"clarity", "compliance"})
	fx.runs.byID[prev.ID] = prev

	run, err := fx.svc.RunSingle(context.Background(), "article", "a1", "default", "compliance", false, "bob")
	require.NoError(t, err)

	// same record, the untouched analyzer's findings survived
	assert.Equal(t, prev.ID, run.ID)
	assert.Equal(t, "bob", run.Actor)
	assert.Equal(t, 1, fx.provider.calls)
	assert.Equal(t, domain.StatusSuccess, run.Status)
	assert.Equal(t, 1, run.Counts.Low)
	assert.Equal(t, 1, run.Counts.High)
	assert.Equal(t, findings.SeverityHigh, run.MaxSeverity)
}

func TestRunSingleRejectsDisabledAnalyzer(t *testing.T) {
	p := twoAnalyzerProfile()
	p.Analyzers = append(p.Analyzers, profiles.AnalyzerConfig{ID: "tone", Enabled: false})
	fx := newFixture(t, p,
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)

	_, err := fx.svc.RunSingle(context.Background(), "article", "a1", "default", "tone", false, "bob")
	assert.Error(t, err)

	_, err = fx.svc.RunSingle(context.Background(), "article", "a1", "default", "unknown", false, "bob")
	assert.Error(t, err)
}

func TestHandleRunOneDropsTerminalSubStatus(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)
	run := &domain.RunRecord{ID: "r1", ItemType: "article", ItemID: "a1", ProfileID: "default"}
	run.SetAnalyzerResult("clarity", &domain.AnalyzerState{Status: domain.StatusSuccess})
	fx.runs.byID[run.ID] = run

	err := fx.svc.HandleTask(context.Background(), tasks.Task{
		ID: "t1", Kind: tasks.KindRunOne, RunID: "r1", AnalyzerID: "clarity",
	})
	require.NoError(t, err)
	assert.Zero(t, fx.provider.calls)
}

func TestHandleRunOneDropsMissingRun(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(), &fakeAnalyzer{id: "clarity", supports: true})

	err := fx.svc.HandleTask(context.Background(), tasks.Task{
		ID: "t1", Kind: tasks.KindRunOne, RunID: "gone", AnalyzerID: "clarity",
	})
	require.NoError(t, err)
	assert.Zero(t, fx.provider.calls)
}

func TestHandleRunOneReenqueuesOnRateLimit(t *testing.T) {
	p := twoAnalyzerProfile()
	p.Execution.RetryEnabled = true
	p.Execution.MaxRetries = 3
	p.Execution.BackoffBase = 2
	p.Execution.BackoffMult = 2
	fx := newFixture(t, p,
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)
	fx.provider.errs = []error{errors.New("too many requests")}

	run := &domain.RunRecord{ID: "r1", ItemType: "article", ItemID: "a1", ProfileID: "default"}
	run.SeedAnalyzers([]string{"clarity", "compliance"})
	fx.runs.byID[run.ID] = run

	orig := tasks.Task{ID: "t1", Kind: tasks.KindRunOne, RunID: "r1", AnalyzerID: "clarity", Retry: 1}
	require.NoError(t, fx.svc.HandleTask(context.Background(), orig))

	require.Len(t, fx.sched.tasks, 1)
	next := fx.sched.tasks[0]
	assert.NotEqual(t, orig.ID, next.ID)
	assert.Equal(t, 2, next.Retry)
	assert.Equal(t, "clarity", next.AnalyzerID)
	// delay follows the retry count already burned: 2 × 2^1
	assert.Equal(t, 4*time.Second, fx.sched.delays[0])
	// sub-status stays pending until a terminal attempt
	assert.Equal(t, domain.StatusPending, run.AnalyzerStatus("clarity"))
}

func TestHandleRunOneRecordsAndFinalizes(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(),
		&fakeAnalyzer{id: "clarity", supports: true,
			out: []*findings.Finding{fnd(findings.SeverityMedium, "m")}},
		&fakeAnalyzer{id: "compliance", supports: true},
	)

	run := &domain.RunRecord{ID: "r1", ItemType: "article", ItemID: "a1", ProfileID: "default"}
	run.SeedAnalyzers([]string{"clarity", "compliance"})
	run.SetAnalyzerResult("compliance", &domain.AnalyzerState{Status: domain.StatusSuccess})
	fx.runs.byID[run.ID] = run

	err := fx.svc.HandleTask(context.Background(), tasks.Task{
		ID: "t1", Kind: tasks.KindRunOne, RunID: "r1", AnalyzerID: "clarity",
	})
	require.NoError(t, err)

	// last analyzer turned terminal, so the run finalized
	assert.Equal(t, domain.StatusSuccess, run.Status)
	assert.Equal(t, 1, run.Counts.Medium)
	assert.Equal(t, findings.SeverityMedium, run.MaxSeverity)
}

func TestHandleRunAllResumesPendingAnalyzersOnly(t *testing.T) {
	p := twoAnalyzerProfile()
	p.Execution.StepDelaySeconds = 5
	fx := newFixture(t, p,
		&fakeAnalyzer{id: "clarity", supports: true},
		&fakeAnalyzer{id: "compliance", supports: true},
	)

	run := &domain.RunRecord{ID: "r1", ItemType: "article", ItemID: "a1", ProfileID: "default", Status: domain.StatusPending}
	run.SeedAnalyzers([]string{"clarity", "compliance"})
	run.SetAnalyzerResult("clarity", &domain.AnalyzerState{Status: domain.StatusSuccess})
	fx.runs.byID[run.ID] = run

	err := fx.svc.HandleTask(context.Background(), tasks.Task{
		ID: "t1", Kind: tasks.KindRunAll, RunID: "r1",
	})
	require.NoError(t, err)

	require.Len(t, fx.sched.tasks, 1)
	assert.Equal(t, "compliance", fx.sched.tasks[0].AnalyzerID)
	assert.Equal(t, time.Duration(0), fx.sched.delays[0])
}

func TestHandleTaskDropsUnknownKind(t *testing.T) {
	fx := newFixture(t, twoAnalyzerProfile(), &fakeAnalyzer{id: "clarity", supports: true})
	err := fx.svc.HandleTask(context.Background(), tasks.Task{ID: "t1", Kind: "mystery"})
	assert.NoError(t, err)
}
