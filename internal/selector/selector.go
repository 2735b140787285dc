// Package selector implements target selection: given the configured
// repositories, documentation angles, and the dedup ledger, pick the
// next (entity, angle) pair to document, or report that nothing is
// currently eligible.
package selector

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/steveyegge/scribe/internal/analysis"
	"github.com/steveyegge/scribe/internal/logging"
	"github.com/steveyegge/scribe/internal/scoring"
	"github.com/steveyegge/scribe/internal/storage"
	"github.com/steveyegge/scribe/internal/types"
	"github.com/steveyegge/scribe/internal/weighted"
)

// Selection is a fully resolved documentation target.
type Selection struct {
	Repo   types.Repository
	Angle  types.DocAngle
	Entity types.StructuralEntity
	Score  float64
}

// Config bounds the selection search.
type Config struct {
	// Cooldown is how long a (fingerprint, angle) pair stays ineligible
	// after being documented.
	Cooldown time.Duration

	// RepoAttemptsPerAngle bounds how many repositories are tried for one
	// angle before moving to the next angle.
	RepoAttemptsPerAngle int
}

// DefaultConfig returns selection defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:             90 * 24 * time.Hour,
		RepoAttemptsPerAngle: 3,
	}
}

// Selector draws documentation targets. It is not safe for concurrent
// use; the cycle loop owns a single instance.
type Selector struct {
	cfg      Config
	repos    []types.Repository
	angles   []types.DocAngle
	provider analysis.Provider
	scorer   *scoring.Scorer
	store    storage.Storage
	rng      *rand.Rand
}

// New creates a selector over the enabled repositories. Disabled repos
// are dropped here so every downstream draw sees only live candidates.
func New(cfg Config, repos []types.Repository, angles []types.DocAngle, provider analysis.Provider, scorer *scoring.Scorer, store storage.Storage, seed int64) (*Selector, error) {
	var enabled []types.Repository
	for _, r := range repos {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no enabled repositories")
	}
	if len(angles) == 0 {
		return nil, fmt.Errorf("no documentation angles configured")
	}
	if cfg.RepoAttemptsPerAngle <= 0 {
		cfg.RepoAttemptsPerAngle = 3
	}
	return &Selector{
		cfg:      cfg,
		repos:    enabled,
		angles:   angles,
		provider: provider,
		scorer:   scorer,
		store:    store,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Select picks the next documentation target. It returns (nil, nil)
// when every angle is exhausted: either no entity passed the filters or
// everything applicable is still cooling down. Callers treat that as a
// skipped cycle, not an error.
func (s *Selector) Select(ctx context.Context, now time.Time) (*Selection, error) {
	log := logging.Named("selector")

	for _, ai := range s.drawOrder(anglesWeights(s.angles)) {
		angle := s.angles[ai]

		repoOrder := s.drawOrder(repoWeights(s.repos))
		attempts := s.cfg.RepoAttemptsPerAngle
		if attempts > len(repoOrder) {
			attempts = len(repoOrder)
		}

		for _, ri := range repoOrder[:attempts] {
			repo := s.repos[ri]

			sel, err := s.trySelect(ctx, repo, angle, now)
			if err != nil {
				return nil, err
			}
			if sel != nil {
				return sel, nil
			}
			log.Debug().Str("repo", repo.Name).Str("angle", angle.Name).
				Msg("no eligible candidates, trying next repository")
		}
	}

	log.Info().Msg("all angles exhausted, nothing eligible")
	return nil, nil
}

// trySelect scans one repository for one angle and draws a candidate,
// or returns (nil, nil) when the pair has no eligible entity.
func (s *Selector) trySelect(ctx context.Context, repo types.Repository, angle types.DocAngle, now time.Time) (*Selection, error) {
	entities, err := s.provider.Scan(ctx, repo)
	if err != nil {
		// Scan failures are not fatal to selection, the next repo may work.
		logging.Named("selector").Warn().Err(err).Str("repo", repo.Name).Msg("scan failed")
		return nil, nil
	}

	candidates, scores := s.filterAndScore(entities, angle)
	if len(candidates) == 0 {
		return nil, nil
	}

	fingerprints := make([]string, len(candidates))
	for i, c := range candidates {
		fingerprints[i] = c.Fingerprint
	}
	eligible, err := s.store.EligibleSet(ctx, fingerprints, angle.Name, now, s.cfg.Cooldown)
	if err != nil {
		return nil, fmt.Errorf("checking ledger eligibility: %w", err)
	}

	var pool []types.StructuralEntity
	var poolScores []float64
	for i, c := range candidates {
		if eligible[c.Fingerprint] {
			pool = append(pool, c)
			poolScores = append(poolScores, scores[i])
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}

	table, err := weighted.NewTable(poolScores)
	if err != nil {
		// all scores zero, treat the pair as exhausted
		return nil, nil
	}
	pick := table.Draw(s.rng)

	return &Selection{
		Repo:   repo,
		Angle:  angle,
		Entity: pool[pick],
		Score:  poolScores[pick],
	}, nil
}

// filterAndScore keeps entities the angle applies to and the scorer
// accepts, sorted by fingerprint so the draw is deterministic for a
// fixed seed regardless of provider iteration order.
func (s *Selector) filterAndScore(entities []types.StructuralEntity, angle types.DocAngle) ([]types.StructuralEntity, []float64) {
	sorted := make([]types.StructuralEntity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Fingerprint < sorted[j].Fingerprint })

	var out []types.StructuralEntity
	var scores []float64
	for _, e := range sorted {
		if !angle.AppliesTo(e.Kind) {
			continue
		}
		score, ok := s.scorer.Score(&e)
		if !ok || score <= 0 {
			continue
		}
		out = append(out, e)
		scores = append(scores, score)
	}
	return out, scores
}

// drawOrder returns indices in weighted-random order without
// replacement, so heavier items are visited first more often but every
// positive-weight item is eventually visited. Zero-weight items are
// never included.
func (s *Selector) drawOrder(weights []float64) []int {
	remaining := make([]int, len(weights))
	for i := range remaining {
		remaining[i] = i
	}
	w := make([]float64, len(weights))
	copy(w, weights)

	var order []int
	for len(remaining) > 0 {
		table, err := weighted.NewTable(w)
		if err != nil {
			break
		}
		pick := table.Draw(s.rng)
		order = append(order, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		w = append(w[:pick], w[pick+1:]...)
	}
	return order
}

func repoWeights(repos []types.Repository) []float64 {
	out := make([]float64, len(repos))
	for i, r := range repos {
		out[i] = r.Weight
	}
	return out
}

func anglesWeights(angles []types.DocAngle) []float64 {
	out := make([]float64, len(angles))
	for i, a := range angles {
		out[i] = a.Weight
	}
	return out
}
