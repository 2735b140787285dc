package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steveyegge/scribe/internal/logging"
)

// Document is one generated artifact ready to publish.
type Document struct {
	Repo       string // source repository name
	EntityName string // short identifier, used in filename and message
	Angle      string
	Title      string
	Body       string
}

// Config holds devlog repository configuration.
type Config struct {
	Path   string `yaml:"path" validate:"required"`
	Remote string `yaml:"remote"` // empty disables pushing
	Branch string `yaml:"branch"`

	PushRetries   int           `yaml:"push_retries"`
	PushRetryWait time.Duration `yaml:"push_retry_wait"`
}

// DefaultConfig returns devlog defaults.
func DefaultConfig() Config {
	return Config{
		Branch:        "main",
		PushRetries:   3,
		PushRetryWait: 5 * time.Second,
	}
}

// DevLog owns the output repository: writing documents, committing
// them, and pushing when a remote is configured.
type DevLog struct {
	git  *Git
	cfg  Config
	msgs *MessagePool
}

// NewDevLog creates the devlog publisher and initializes the output
// repository if needed.
func NewDevLog(ctx context.Context, g *Git, cfg Config, seed int64) (*DevLog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("devlog path is required")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating devlog directory: %w", err)
	}
	if err := g.EnsureRepo(ctx, cfg.Path); err != nil {
		return nil, err
	}
	return &DevLog{git: g, cfg: cfg, msgs: NewMessagePool(seed)}, nil
}

// WriteAndCommit writes the document into the devlog tree, commits it,
// and pushes if a remote is configured. A push failure is logged but
// does not fail the publish; the next successful push carries the
// commit along.
func (d *DevLog) WriteAndCommit(ctx context.Context, doc *Document) (string, error) {
	log := logging.Named("devlog")

	relPath := filepath.Join(doc.Repo, doc.Angle, slug(doc.EntityName)+".md")
	fullPath := filepath.Join(d.cfg.Path, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("creating document directory: %w", err)
	}

	// Rewriting an existing document (same entity and angle, cooldown
	// elapsed) reads as a touch-up in the history, not new coverage.
	_, statErr := os.Stat(fullPath)
	revising := statErr == nil

	title := doc.Title
	if title == "" {
		title = doc.EntityName
	}
	content := fmt.Sprintf("# %s\n\n%s\n", title, strings.TrimSpace(doc.Body))
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}

	message := d.msgs.Next(doc.EntityName, doc.Angle)
	if revising {
		message = d.msgs.Minor(doc.EntityName)
	}
	commitID, err := d.git.Commit(ctx, d.cfg.Path, message)
	if err != nil {
		return "", fmt.Errorf("committing document: %w", err)
	}
	log.Info().Str("path", relPath).Str("commit", shortHash(commitID)).Msg("document committed")

	if d.cfg.Remote != "" {
		if err := d.git.Push(ctx, d.cfg.Path, d.cfg.Remote, d.cfg.Branch, d.cfg.PushRetries, d.cfg.PushRetryWait); err != nil {
			log.Warn().Err(err).Msg("push failed, commit retained locally")
		}
	}
	return commitID, nil
}

// slug maps an entity identifier to a safe filename.
func slug(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '.', r == '/', r == ':', r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, name)
	mapped = strings.Trim(mapped, "_")
	if mapped == "" {
		return "unnamed"
	}
	return mapped
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
