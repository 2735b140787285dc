// Package orchestrator runs the cycle loop: it keeps the daily
// schedule materialized, waits for slots to fire, and drives each cycle
// through selection, generation, publishing, and recording.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/scribe/internal/events"
	"github.com/steveyegge/scribe/internal/generate"
	"github.com/steveyegge/scribe/internal/git"
	"github.com/steveyegge/scribe/internal/logging"
	"github.com/steveyegge/scribe/internal/schedule"
	"github.com/steveyegge/scribe/internal/selector"
	"github.com/steveyegge/scribe/internal/storage"
	"github.com/steveyegge/scribe/internal/types"
)

// Committer publishes a generated document and returns the commit hash.
type Committer interface {
	WriteAndCommit(ctx context.Context, doc *git.Document) (string, error)
}

// Config holds orchestrator options.
type Config struct {
	// DryRun runs cycles end to end through generation but publishes
	// nothing and writes neither the ledger nor the audit trail.
	DryRun bool
}

// Orchestrator owns the cycle loop. Create with New, drive with Run,
// stop by canceling the context or calling Stop.
type Orchestrator struct {
	cfg       Config
	store     storage.Storage
	sel       *selector.Selector
	gen       generate.Generator
	committer Committer
	sched     *schedule.Generator
	sink      events.Sink
	stats     *CycleStats

	mu    sync.Mutex
	state State

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates an orchestrator. All collaborators are required except
// the sink, which defaults to discarding events.
func New(cfg Config, store storage.Storage, sel *selector.Selector, gen generate.Generator, committer Committer, sched *schedule.Generator, sink events.Sink) (*Orchestrator, error) {
	if store == nil || sel == nil || gen == nil || sched == nil {
		return nil, fmt.Errorf("storage, selector, generator, and schedule are required")
	}
	if committer == nil && !cfg.DryRun {
		return nil, fmt.Errorf("committer is required unless running dry")
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		sel:       sel,
		gen:       gen,
		committer: committer,
		sched:     sched,
		sink:      sink,
		stats:     &CycleStats{},
		state:     StateIdle,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Stats returns the session counters.
func (o *Orchestrator) Stats() *CycleStats {
	return o.stats
}

// Stop requests a clean shutdown and waits for the loop to exit.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stopCh) })
	<-o.doneCh
}

// Run executes the cycle loop until the context is canceled, Stop is
// called, or the ledger becomes unwritable. The last case returns an
// error; clean shutdown returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	log := logging.Named("orchestrator")
	defer close(o.doneCh)

	o.setState(StateWaiting)
	log.Info().Msg("cycle loop started")

	for {
		slot, err := o.nextSlot(ctx, time.Now())
		if err != nil {
			o.setState(StateHalted)
			return fmt.Errorf("schedule unavailable: %w", err)
		}

		var wait time.Duration
		if slot == nil {
			// day exhausted, sleep until the next day begins
			wait = untilNextDay(time.Now().In(o.sched.Location()))
			log.Info().Dur("wait", wait).Msg("no slots left today")
		} else {
			wait = time.Until(slot.FireAt)
			if wait < 0 {
				wait = 0
			}
			o.sink.Emit(events.New(events.EventTypeNextCycle, map[string]any{
				"fire_at": slot.FireAt, "seq": slot.Seq,
			}))
		}

		if stopped := o.sleep(ctx, wait); stopped {
			o.setState(StateStopped)
			log.Info().Msg("cycle loop stopped")
			return nil
		}
		if slot == nil {
			continue
		}

		// Mark before running so a crash mid-cycle cannot re-fire the
		// slot after restart.
		if err := o.store.MarkSlotFired(ctx, slot.Date, slot.Seq); err != nil {
			o.setState(StateHalted)
			return fmt.Errorf("marking slot fired: %w", err)
		}

		halt := o.executeCycle(ctx, slot.FireAt)
		if halt != nil {
			o.setState(StateHalted)
			return halt
		}
		if o.State().Terminal() {
			return nil
		}
		o.setState(StateWaiting)
	}
}

// RunOnce executes a single cycle immediately, outside the schedule.
// Used by the one-shot command and by dry runs.
func (o *Orchestrator) RunOnce(ctx context.Context) (*types.CycleResult, error) {
	defer close(o.doneCh)
	o.setState(StateWaiting)

	result, halt := o.runCycle(ctx, time.Now())
	if halt != nil {
		o.setState(StateHalted)
		return result, halt
	}
	o.setState(StateStopped)
	return result, nil
}

// executeCycle runs one cycle and applies failure backoff. A non-nil
// return means the loop must halt.
func (o *Orchestrator) executeCycle(ctx context.Context, firedAt time.Time) error {
	log := logging.Named("orchestrator")

	_, halt := o.runCycle(ctx, firedAt)
	if halt != nil {
		return halt
	}

	if backoff := o.stats.Backoff(); backoff > 0 {
		log.Warn().Dur("backoff", backoff).
			Int("consecutive_failures", o.stats.ConsecutiveFailures()).
			Msg("backing off after failure")
		if stopped := o.sleep(ctx, backoff); stopped {
			o.setState(StateStopped)
		}
	}
	return nil
}

// runCycle performs selection, generation, publishing, and recording
// for one slot. It returns the audit record and, when the ledger is
// unwritable, a halt error.
func (o *Orchestrator) runCycle(ctx context.Context, firedAt time.Time) (*types.CycleResult, error) {
	log := logging.Named("orchestrator")

	o.sink.Emit(events.New(events.EventTypeCycleStarting, nil))
	o.setState(StateSelecting)
	o.sink.Emit(events.New(events.EventTypeAnalyzing, nil))

	result := &types.CycleResult{
		ID:      uuid.New().String(),
		FiredAt: firedAt.UTC(),
	}

	sel, err := o.sel.Select(ctx, firedAt)
	if err != nil {
		result.Outcome = types.OutcomeFailed
		result.Detail = fmt.Sprintf("selection: %v", err)
		o.setState(StateFailed)
		o.finishFailed(ctx, result)
		return result, nil
	}
	if sel == nil {
		result.Outcome = types.OutcomeSkipped
		result.Detail = "nothing eligible"
		o.stats.RecordSkipped()
		o.sink.Emit(events.New(events.EventTypeCycleSkipped, nil))
		o.setState(StateRecording)
		o.recordResult(ctx, result)
		log.Info().Msg("cycle skipped, nothing eligible")
		return result, nil
	}

	result.Repo = sel.Repo.Name
	result.Fingerprint = sel.Entity.Fingerprint
	result.EntityName = sel.Entity.Identifier
	result.Angle = sel.Angle.Name

	o.setState(StateDelegating)
	o.sink.Emit(events.New(events.EventTypeGenerating, map[string]any{
		"repo": sel.Repo.Name, "entity": sel.Entity.Identifier, "angle": sel.Angle.Name,
	}))

	doc, err := o.gen.Generate(ctx, &generate.Request{
		Repo:   sel.Repo,
		Angle:  sel.Angle,
		Entity: sel.Entity,
	})
	if err != nil {
		result.Outcome = types.OutcomeFailed
		result.Detail = fmt.Sprintf("generation: %v", err)
		o.setState(StateFailed)
		o.finishFailed(ctx, result)
		return result, nil
	}

	if o.cfg.DryRun {
		result.Outcome = types.OutcomeSkipped
		result.Detail = "dry run"
		o.stats.RecordSkipped()
		o.setState(StateRecording)
		log.Info().Str("entity", sel.Entity.Identifier).Str("angle", sel.Angle.Name).
			Msg("dry run, skipping publish and ledger")
		return result, nil
	}

	commitID, err := o.committer.WriteAndCommit(ctx, &git.Document{
		Repo:       sel.Repo.Name,
		EntityName: sel.Entity.Identifier,
		Angle:      sel.Angle.Name,
		Title:      doc.Title,
		Body:       doc.Body,
	})
	if err != nil {
		result.Outcome = types.OutcomeFailed
		result.Detail = fmt.Sprintf("publish: %v", err)
		o.setState(StateFailed)
		o.finishFailed(ctx, result)
		return result, nil
	}
	result.CommitID = commitID

	o.setState(StateRecording)
	// The ledger write is the one thing that must not fail: without it
	// the same entity would be re-documented on every cycle.
	if err := o.store.RecordAction(ctx, sel.Entity.Fingerprint, sel.Angle.Name, firedAt); err != nil {
		return result, fmt.Errorf("ledger write failed, halting: %w", err)
	}

	result.Outcome = types.OutcomeCommitted
	o.stats.RecordCommitted()
	o.recordResult(ctx, result)
	o.sink.Emit(events.New(events.EventTypeDocumentationCommitted, map[string]any{
		"repo": sel.Repo.Name, "entity": sel.Entity.Identifier,
		"angle": sel.Angle.Name, "commit": result.CommitID,
	}))
	log.Info().Str("entity", sel.Entity.Identifier).Str("angle", sel.Angle.Name).
		Str("commit", result.CommitID).Msg("documentation committed")
	return result, nil
}

func (o *Orchestrator) finishFailed(ctx context.Context, result *types.CycleResult) {
	o.stats.RecordFailed()
	o.recordResult(ctx, result)
	o.sink.Emit(events.New(events.EventTypeCycleFailed, map[string]any{
		"detail": result.Detail,
	}))
	logging.Named("orchestrator").Error().Str("detail", result.Detail).Msg("cycle failed")
}

// recordResult writes the audit row. Audit failures are logged, not
// fatal; the trail is advisory.
func (o *Orchestrator) recordResult(ctx context.Context, result *types.CycleResult) {
	if o.cfg.DryRun {
		return
	}
	if err := o.store.RecordCycleResult(ctx, result); err != nil {
		logging.Named("orchestrator").Warn().Err(err).Msg("failed to record cycle result")
	}
}

// nextSlot ensures today's schedule exists and returns the earliest
// unfired slot, or nil when the day is exhausted.
func (o *Orchestrator) nextSlot(ctx context.Context, now time.Time) (*types.ScheduleSlot, error) {
	date := schedule.DateKey(now, o.sched.Location())

	slots, err := o.store.GetScheduleDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		fireAt := o.sched.GenerateDay(now.In(o.sched.Location()))
		if err := o.store.SaveScheduleDay(ctx, date, fireAt); err != nil {
			return nil, err
		}
		o.sink.Emit(events.New(events.EventTypeScheduleGenerated, map[string]any{
			"date": date, "slots": len(fireAt),
		}))
		logging.Named("orchestrator").Info().Str("date", date).Int("slots", len(fireAt)).
			Msg("generated daily schedule")

		slots, err = o.store.GetScheduleDay(ctx, date)
		if err != nil {
			return nil, err
		}
	}

	for _, s := range slots {
		if !s.Fired {
			return s, nil
		}
	}
	return nil, nil
}

// sleep waits for d, returning true if shutdown was requested first.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-o.stopCh:
			return true
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-o.stopCh:
		return true
	case <-ctx.Done():
		return true
	}
}

func (o *Orchestrator) setState(to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == to {
		return
	}
	if !CanTransition(o.state, to) {
		logging.Named("orchestrator").Error().
			Str("from", string(o.state)).Str("to", string(to)).
			Msg("illegal state transition")
		return
	}
	o.state = to
}

// untilNextDay returns the duration until local midnight, plus a small
// margin so the new day's date key is unambiguous.
func untilNextDay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now) + time.Second
}
