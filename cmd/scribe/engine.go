package main

import (
	"context"
	"fmt"

	"github.com/steveyegge/scribe/internal/analysis"
	"github.com/steveyegge/scribe/internal/events"
	"github.com/steveyegge/scribe/internal/generate"
	"github.com/steveyegge/scribe/internal/git"
	"github.com/steveyegge/scribe/internal/logging"
	"github.com/steveyegge/scribe/internal/orchestrator"
	"github.com/steveyegge/scribe/internal/schedule"
	"github.com/steveyegge/scribe/internal/scoring"
	"github.com/steveyegge/scribe/internal/selector"
	"github.com/steveyegge/scribe/internal/storage"
)

// engine bundles the wired components for run and once.
type engine struct {
	store storage.Storage
	orch  *orchestrator.Orchestrator
}

// buildEngine wires storage, selection, generation, and publishing
// from the loaded config. The caller closes the store.
func buildEngine(ctx context.Context, dryRun bool) (*engine, error) {
	store, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	rngSeed := seed()

	sel, err := selector.New(selector.Config{
		Cooldown:             cfg.Cooldown(),
		RepoAttemptsPerAngle: cfg.Selection.RepoAttemptsPerAngle,
	}, cfg.Repos, cfg.Angles, analysis.NewManifestProvider(),
		scoring.New(cfg.Scoring), store, rngSeed)
	if err != nil {
		store.Close()
		return nil, err
	}

	gen, err := generate.NewAnthropic(cfg.Generation)
	if err != nil {
		store.Close()
		return nil, err
	}

	sched, err := schedule.New(cfg.Schedule, rngSeed)
	if err != nil {
		store.Close()
		return nil, err
	}

	var committer orchestrator.Committer
	if !dryRun {
		g, err := git.NewGit(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		devlog, err := git.NewDevLog(ctx, g, cfg.DevLog, rngSeed)
		if err != nil {
			store.Close()
			return nil, err
		}
		committer = devlog
	}

	sink := events.NewLoggerSink(logging.Named("events"))
	orch, err := orchestrator.New(orchestrator.Config{DryRun: dryRun},
		store, sel, gen, committer, sched, sink)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &engine{store: store, orch: orch}, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}
