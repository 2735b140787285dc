package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/scribe/internal/generate"
	"github.com/steveyegge/scribe/internal/git"
	"github.com/steveyegge/scribe/internal/schedule"
	"github.com/steveyegge/scribe/internal/scoring"
	"github.com/steveyegge/scribe/internal/selector"
	"github.com/steveyegge/scribe/internal/storage"
	"github.com/steveyegge/scribe/internal/storage/sqlite"
	"github.com/steveyegge/scribe/internal/types"
)

type fakeProvider struct {
	entities []types.StructuralEntity
}

func (f *fakeProvider) Scan(_ context.Context, _ types.Repository) ([]types.StructuralEntity, error) {
	return f.entities, nil
}

type fakeGenerator struct {
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, req *generate.Request) (*generate.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &generate.Result{
		Title: "About " + req.Entity.Identifier,
		Body:  "Generated documentation body.",
	}, nil
}

type fakeCommitter struct {
	err  error
	docs []*git.Document
}

func (f *fakeCommitter) WriteAndCommit(_ context.Context, doc *git.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.docs = append(f.docs, doc)
	return "0123456789abcdef0123456789abcdef01234567", nil
}

type failingLedger struct {
	storage.Storage
}

func (f *failingLedger) RecordAction(context.Context, string, string, time.Time) error {
	return errors.New("disk full")
}

type fixture struct {
	store     *sqlite.SQLiteStorage
	generator *fakeGenerator
	committer *fakeCommitter
	orch      *Orchestrator
}

func newFixture(t *testing.T, cfg Config, store storage.Storage, entities []types.StructuralEntity, gen *fakeGenerator, committer *fakeCommitter) *fixture {
	t.Helper()

	var sqliteStore *sqlite.SQLiteStorage
	if store == nil {
		var err error
		sqliteStore, err = sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { sqliteStore.Close() })
		store = sqliteStore
	}

	repos := []types.Repository{{Name: "alpha", Path: "/src/alpha", Weight: 1, Enabled: true}}
	angles := []types.DocAngle{{Name: "function_doc", Weight: 10}}
	sel, err := selector.New(selector.DefaultConfig(), repos, angles,
		&fakeProvider{entities: entities}, scoring.New(scoring.DefaultConfig()), store, 1)
	require.NoError(t, err)

	sched, err := schedule.New(schedule.DefaultConfig(), 1)
	require.NoError(t, err)

	if gen == nil {
		gen = &fakeGenerator{}
	}
	if committer == nil {
		committer = &fakeCommitter{}
	}

	orch, err := New(cfg, store, sel, gen, committer, sched, nil)
	require.NoError(t, err)

	return &fixture{store: sqliteStore, generator: gen, committer: committer, orch: orch}
}

func docEntity() []types.StructuralEntity {
	return []types.StructuralEntity{{
		Repo:        "alpha",
		Kind:        types.KindFunction,
		Identifier:  "pkg.Run",
		LineCount:   40,
		Complexity:  8,
		Fingerprint: types.Fingerprint("alpha", types.KindFunction, "pkg.Run"),
	}}
}

func TestRunOnceCommits(t *testing.T) {
	f := newFixture(t, Config{}, nil, docEntity(), nil, nil)
	ctx := context.Background()

	result, err := f.orch.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, types.OutcomeCommitted, result.Outcome)
	assert.Equal(t, "pkg.Run", result.EntityName)
	assert.NotEmpty(t, result.CommitID)
	assert.Equal(t, StateStopped, f.orch.State())
	require.Len(t, f.committer.docs, 1)
	assert.Equal(t, "function_doc", f.committer.docs[0].Angle)

	// ledger now blocks the pair
	rec, err := f.store.GetDedupRecord(ctx, result.Fingerprint, "function_doc")
	require.NoError(t, err)
	require.NotNil(t, rec)

	// audit row written
	results, err := f.store.GetRecentCycleResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.OutcomeCommitted, results[0].Outcome)
}

func TestRunOnceSkipsWhenNothingEligible(t *testing.T) {
	f := newFixture(t, Config{}, nil, nil, nil, nil)

	result, err := f.orch.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, types.OutcomeSkipped, result.Outcome)
	assert.Empty(t, f.committer.docs)
}

func TestRunOnceDryRunPublishesNothing(t *testing.T) {
	f := newFixture(t, Config{DryRun: true}, nil, docEntity(), nil, nil)
	ctx := context.Background()

	result, err := f.orch.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSkipped, result.Outcome)
	assert.Equal(t, "dry run", result.Detail)
	assert.Equal(t, 1, f.generator.calls)
	assert.Empty(t, f.committer.docs)

	// neither ledger nor audit trail touched
	rec, err := f.store.GetDedupRecord(ctx, result.Fingerprint, "function_doc")
	require.NoError(t, err)
	assert.Nil(t, rec)
	results, err := f.store.GetRecentCycleResults(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunOnceGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("api unavailable")}
	f := newFixture(t, Config{}, nil, docEntity(), gen, nil)

	result, err := f.orch.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Detail, "generation")
	assert.Empty(t, f.committer.docs)
	assert.Equal(t, 1, f.orch.Stats().ConsecutiveFailures())
}

func TestRunOncePublishFailure(t *testing.T) {
	committer := &fakeCommitter{err: errors.New("push rejected")}
	f := newFixture(t, Config{}, nil, docEntity(), nil, committer)
	ctx := context.Background()

	result, err := f.orch.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Detail, "publish")

	// nothing published means the ledger must not claim it was
	rec, err := f.store.GetDedupRecord(ctx, result.Fingerprint, "function_doc")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRunOnceHaltsOnLedgerFailure(t *testing.T) {
	inner, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	f := newFixture(t, Config{}, &failingLedger{Storage: inner}, docEntity(), nil, nil)

	_, err = f.orch.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "halting")
	assert.Equal(t, StateHalted, f.orch.State())
}

func TestRunFiresOverdueSlotsAndStops(t *testing.T) {
	f := newFixture(t, Config{}, nil, docEntity(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// pre-seed today's schedule with two slots already in the past so
	// the loop fires them immediately
	now := time.Now().UTC()
	date := schedule.DateKey(now, time.UTC)
	require.NoError(t, f.store.SaveScheduleDay(ctx, date,
		[]time.Time{now.Add(-2 * time.Hour), now.Add(-time.Hour)}))

	errCh := make(chan error, 1)
	go func() { errCh <- f.orch.Run(ctx) }()

	require.Eventually(t, func() bool {
		results, err := f.store.GetRecentCycleResults(ctx, 10)
		return err == nil && len(results) == 2
	}, 10*time.Second, 20*time.Millisecond)

	f.orch.Stop()
	require.NoError(t, <-errCh)
	assert.Equal(t, StateStopped, f.orch.State())

	// both slots are consumed exactly once
	slots, err := f.store.GetScheduleDay(ctx, date)
	require.NoError(t, err)
	for _, s := range slots {
		assert.True(t, s.Fired)
	}
	// first cycle committed, second skipped (cooldown)
	results, err := f.store.GetRecentCycleResults(ctx, 10)
	require.NoError(t, err)
	outcomes := map[types.CycleOutcome]int{}
	for _, r := range results {
		outcomes[r.Outcome]++
	}
	assert.Equal(t, 1, outcomes[types.OutcomeCommitted])
	assert.Equal(t, 1, outcomes[types.OutcomeSkipped])
}
