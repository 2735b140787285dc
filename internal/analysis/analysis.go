// Package analysis defines the structural scanning surface. A Provider
// extracts documentable entities from a repository checkout; the engine
// treats its output as opaque candidates and never inspects source
// itself.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/scribe/internal/logging"
	"github.com/steveyegge/scribe/internal/types"
)

// Provider scans a repository and returns its structural entities.
// Implementations must populate Fingerprint on every entity and must be
// safe for concurrent calls across distinct repositories.
type Provider interface {
	Scan(ctx context.Context, repo types.Repository) ([]types.StructuralEntity, error)
}

// defaultScanConcurrency bounds concurrent repository scans.
const defaultScanConcurrency = 4

// ScanAll scans every repository concurrently. A repository that fails
// to scan is logged and skipped rather than failing the whole pass; the
// error is returned only when every repository fails. Results are
// ordered by repository name so callers see stable output.
func ScanAll(ctx context.Context, p Provider, repos []types.Repository) (map[string][]types.StructuralEntity, error) {
	log := logging.Named("analysis")

	var mu sync.Mutex
	results := make(map[string][]types.StructuralEntity, len(repos))
	var failures int

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultScanConcurrency)

	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			entities, err := p.Scan(ctx, repo)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				log.Warn().Err(err).Str("repo", repo.Name).Msg("scan failed, skipping repository")
				// only context cancellation aborts the group
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			results[repo.Name] = entities
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(repos) > 0 && failures == len(repos) {
		return nil, fmt.Errorf("all %d repositories failed to scan", len(repos))
	}
	return results, nil
}

// Flatten merges a scan result into a single slice sorted by
// fingerprint, giving selection a deterministic candidate order.
func Flatten(byRepo map[string][]types.StructuralEntity) []types.StructuralEntity {
	var all []types.StructuralEntity
	for _, entities := range byRepo {
		all = append(all, entities...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Fingerprint < all[j].Fingerprint })
	return all
}
