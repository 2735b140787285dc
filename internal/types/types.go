package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// EntityKind classifies a structural entity produced by the analysis provider.
type EntityKind string

const (
	KindFunction EntityKind = "function"
	KindMethod   EntityKind = "method"
	KindClass    EntityKind = "class"
	KindFile     EntityKind = "file"
	KindModule   EntityKind = "module"
	KindDiff     EntityKind = "diff"
)

// IsValid returns true if the kind is one of the known entity kinds.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindFunction, KindMethod, KindClass, KindFile, KindModule, KindDiff:
		return true
	}
	return false
}

// StyleFlag marks a stylistic property of an entity that makes it more
// interesting to document (concurrent control flow, annotations, etc).
type StyleFlag string

const (
	FlagAsync          StyleFlag = "async"
	FlagDecorated      StyleFlag = "decorated"
	FlagGenerator      StyleFlag = "generator"
	FlagResourceScoped StyleFlag = "resource_scoped"
)

// Repository is a source repository eligible for documentation.
// Loaded from configuration at startup and immutable for the run.
type Repository struct {
	Name    string  `json:"name" yaml:"name"`
	Path    string  `json:"path" yaml:"path"`
	Weight  float64 `json:"weight" yaml:"weight"`
	Enabled bool    `json:"enabled" yaml:"enabled"`
}

// StructuralEntity is one unit of source code the analysis provider found:
// a function, method, class, file, module, or diff. Entities are read-only
// here; the analysis provider owns their production.
type StructuralEntity struct {
	Repo       string      `json:"repo"`
	Kind       EntityKind  `json:"kind"`
	Identifier string      `json:"identifier"` // qualified name or path
	LineCount  int         `json:"line_count"`
	Complexity float64     `json:"complexity"`
	Churn      float64     `json:"churn"` // recent-change volume (commits touching it)
	Flags      []StyleFlag `json:"flags,omitempty"`
	Source     string      `json:"-"` // excerpt handed to the generation provider

	// Fingerprint is the stable dedup key component. Computed from
	// (repo, kind, identifier) so it survives re-scans as long as the
	// identifier is unchanged.
	Fingerprint string `json:"fingerprint"`
}

// HasFlag reports whether the entity carries the given style flag.
func (e *StructuralEntity) HasFlag(f StyleFlag) bool {
	for _, have := range e.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// Fingerprint computes the stable fingerprint for an entity identity.
// The hash covers identity only, never content: re-scanning the same
// function yields the same fingerprint even if its body changed.
func Fingerprint(repo string, kind EntityKind, identifier string) string {
	sum := sha256.Sum256([]byte(repo + "\x00" + string(kind) + "\x00" + identifier))
	return hex.EncodeToString(sum[:16])
}

// DocAngle is one documentation category (e.g. "function_doc",
// "security_review"). Weights are relative; they are normalized at
// selection time and need not sum to anything in particular.
type DocAngle struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`

	// ApplicableKinds restricts which entity kinds the angle can document.
	// Empty means the angle applies to every kind.
	ApplicableKinds []EntityKind `json:"applicable_kinds,omitempty" yaml:"applicable_kinds,omitempty"`
}

// AppliesTo reports whether the angle can document the given entity kind.
func (a *DocAngle) AppliesTo(kind EntityKind) bool {
	if len(a.ApplicableKinds) == 0 {
		return true
	}
	for _, k := range a.ApplicableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DedupRecord is the ledger row for one (entity, angle) pair.
// At most one record exists per key; LastActedAt only moves forward.
type DedupRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Angle       string    `json:"angle"`
	LastActedAt time.Time `json:"last_acted_at"`
}

// ScheduleSlot is one scheduled firing time within a day.
type ScheduleSlot struct {
	Date   string    `json:"date"` // YYYY-MM-DD in the configured timezone
	Seq    int       `json:"seq"`  // position within the day, 0-based
	FireAt time.Time `json:"fire_at"`
	Fired  bool      `json:"fired"`
}

// CycleOutcome is the terminal result of one selection cycle.
type CycleOutcome string

const (
	OutcomeCommitted CycleOutcome = "committed"
	OutcomeSkipped   CycleOutcome = "skipped"
	OutcomeFailed    CycleOutcome = "failed"
)

// CycleResult records one completed cycle for audit and statistics.
type CycleResult struct {
	ID          string       `json:"id"`
	FiredAt     time.Time    `json:"fired_at"`
	Repo        string       `json:"repo,omitempty"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	EntityName  string       `json:"entity_name,omitempty"`
	Angle       string       `json:"angle,omitempty"`
	Outcome     CycleOutcome `json:"outcome"`
	Detail      string       `json:"detail,omitempty"`
	CommitID    string       `json:"commit_id,omitempty"`
}

// Statistics summarizes ledger and cycle history.
type Statistics struct {
	TotalDocumented int            `json:"total_documented"`
	ByRepo          map[string]int `json:"by_repo"`
	ByAngle         map[string]int `json:"by_angle"`
	Last7Days       int            `json:"last_7_days"`
	TotalCycles     int            `json:"total_cycles"`
	FailedCycles    int            `json:"failed_cycles"`
	SkippedCycles   int            `json:"skipped_cycles"`
}

// Validate checks a repository entry for configuration errors.
func (r *Repository) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("repository name is required")
	}
	if r.Path == "" {
		return fmt.Errorf("repository %s: path is required", r.Name)
	}
	if r.Weight <= 0 {
		return fmt.Errorf("repository %s: weight must be positive, got %v", r.Name, r.Weight)
	}
	return nil
}

// Validate checks a doc angle entry for configuration errors.
func (a *DocAngle) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("doc angle name is required")
	}
	if a.Weight < 0 || a.Weight > 100 {
		return fmt.Errorf("doc angle %s: weight must be in [0,100], got %v", a.Name, a.Weight)
	}
	for _, k := range a.ApplicableKinds {
		if !k.IsValid() {
			return fmt.Errorf("doc angle %s: unknown entity kind %q", a.Name, k)
		}
	}
	return nil
}
