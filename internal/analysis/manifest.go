package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/scribe/internal/types"
)

// ManifestName is the entity inventory file looked up in each
// repository root. External tooling (a parser, a CI job) produces it;
// this engine only consumes it.
const ManifestName = ".scribe-entities.json"

// manifestEntry is the wire form of one entity in the inventory.
type manifestEntry struct {
	Kind       types.EntityKind  `json:"kind"`
	Identifier string            `json:"identifier"`
	LineCount  int               `json:"line_count"`
	Complexity float64           `json:"complexity"`
	Churn      float64           `json:"churn"`
	Flags      []types.StyleFlag `json:"flags,omitempty"`
	Source     string            `json:"source,omitempty"`
}

// ManifestProvider reads entity inventories from a JSON manifest in
// each repository. It does no source parsing itself.
type ManifestProvider struct{}

// NewManifestProvider creates a manifest-backed provider.
func NewManifestProvider() *ManifestProvider {
	return &ManifestProvider{}
}

// Scan loads the repository's manifest and returns its entities with
// fingerprints computed. Entries with an unknown kind or an empty
// identifier are rejected; a bad inventory should fail loudly rather
// than silently shrink the candidate pool.
func (p *ManifestProvider) Scan(ctx context.Context, repo types.Repository) ([]types.StructuralEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(repo.Path, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entity manifest for %s: %w", repo.Name, err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing entity manifest for %s: %w", repo.Name, err)
	}

	entities := make([]types.StructuralEntity, 0, len(entries))
	for i, e := range entries {
		if e.Identifier == "" {
			return nil, fmt.Errorf("manifest for %s: entry %d has no identifier", repo.Name, i)
		}
		if !e.Kind.IsValid() {
			return nil, fmt.Errorf("manifest for %s: entry %q has unknown kind %q", repo.Name, e.Identifier, e.Kind)
		}
		entities = append(entities, types.StructuralEntity{
			Repo:        repo.Name,
			Kind:        e.Kind,
			Identifier:  e.Identifier,
			LineCount:   e.LineCount,
			Complexity:  e.Complexity,
			Churn:       e.Churn,
			Flags:       e.Flags,
			Source:      e.Source,
			Fingerprint: types.Fingerprint(repo.Name, e.Kind, e.Identifier),
		})
	}
	return entities, nil
}
