package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/scribe/internal/types"
)

func writeManifest(t *testing.T, content string) types.Repository {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(content), 0o644))
	return types.Repository{Name: "alpha", Path: dir, Weight: 1, Enabled: true}
}

func TestManifestScan(t *testing.T) {
	repo := writeManifest(t, `[
		{"kind": "function", "identifier": "billing.Charge", "line_count": 42,
		 "complexity": 8.5, "churn": 3, "flags": ["async"], "source": "def charge(): ..."},
		{"kind": "class", "identifier": "billing.Processor", "line_count": 120, "complexity": 14}
	]`)

	entities, err := NewManifestProvider().Scan(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	e := entities[0]
	assert.Equal(t, "alpha", e.Repo)
	assert.Equal(t, types.KindFunction, e.Kind)
	assert.Equal(t, 42, e.LineCount)
	assert.True(t, e.HasFlag(types.FlagAsync))
	assert.Equal(t, types.Fingerprint("alpha", types.KindFunction, "billing.Charge"), e.Fingerprint)
}

func TestManifestScanMissingFile(t *testing.T) {
	repo := types.Repository{Name: "alpha", Path: t.TempDir()}
	_, err := NewManifestProvider().Scan(context.Background(), repo)
	assert.Error(t, err)
}

func TestManifestScanRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"not": "a list"`},
		{"unknown kind", `[{"kind": "lambda", "identifier": "x"}]`},
		{"missing identifier", `[{"kind": "function"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := writeManifest(t, tt.content)
			_, err := NewManifestProvider().Scan(context.Background(), repo)
			assert.Error(t, err)
		})
	}
}
