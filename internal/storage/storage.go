package storage

import (
	"context"
	"time"

	"github.com/steveyegge/scribe/internal/storage/sqlite"
	"github.com/steveyegge/scribe/internal/types"
)

// Storage defines the persistent state surface owned by the engine:
// the dedup ledger, the day-scoped schedule, and the cycle audit trail.
// The orchestrator is the sole writer; readers (status reporting) may
// run concurrently with it.
type Storage interface {
	// Dedup Ledger - one record per (fingerprint, angle), last_acted_at
	// only ever moves forward. A failing ledger is fatal to the cycle
	// loop: proceeding without it risks unbounded duplicate documentation.
	RecordAction(ctx context.Context, fingerprint, angle string, at time.Time) error
	IsEligible(ctx context.Context, fingerprint, angle string, now time.Time, cooldown time.Duration) (bool, error)
	EligibleSet(ctx context.Context, fingerprints []string, angle string, now time.Time, cooldown time.Duration) (map[string]bool, error)
	GetDedupRecord(ctx context.Context, fingerprint, angle string) (*types.DedupRecord, error)

	// Schedule - slots for a calendar day are written once and consumed
	// in order. A day with any fired slot is never regenerated.
	GetScheduleDay(ctx context.Context, date string) ([]*types.ScheduleSlot, error)
	SaveScheduleDay(ctx context.Context, date string, fireAt []time.Time) error
	MarkSlotFired(ctx context.Context, date string, seq int) error

	// Cycle results - transient audit records, one per completed cycle.
	RecordCycleResult(ctx context.Context, result *types.CycleResult) error
	GetRecentCycleResults(ctx context.Context, limit int) ([]*types.CycleResult, error)

	// Statistics for status reporting.
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".scribe/scribe.db",
	}
}

// NewStorage creates a new SQLite storage backend.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = ".scribe/scribe.db"
	}
	return sqlite.New(cfg.Path)
}
