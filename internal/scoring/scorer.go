// Package scoring assigns desirability scores to structural entities.
// Scoring is a pure function of the entity and static configuration;
// entities outside the configured bands are excluded outright rather
// than scored low.
package scoring

import (
	"math"
	"path"
	"strings"

	"github.com/steveyegge/scribe/internal/types"
)

// Config holds scoring bounds and weights.
type Config struct {
	MinComplexity float64 `yaml:"min_complexity" validate:"min=0"`
	MinLines      int     `yaml:"min_lines" validate:"min=1"`
	MaxLines      int     `yaml:"max_lines" validate:"min=1"`

	// IdealLines is the peak of the length term. Zero means the midpoint
	// of [MinLines, MaxLines].
	IdealLines int `yaml:"ideal_lines"`

	// ComplexityCap saturates the complexity term so one pathological
	// function cannot dominate every draw.
	ComplexityCap float64 `yaml:"complexity_cap"`
	// ChurnCap saturates the churn bonus the same way for hot files.
	ChurnCap float64 `yaml:"churn_cap"`

	ComplexityWeight float64 `yaml:"complexity_weight"`
	ChurnWeight      float64 `yaml:"churn_weight"`
	LengthWeight     float64 `yaml:"length_weight"`

	// FlagBonuses are fixed additive points per stylistic flag.
	FlagBonuses map[types.StyleFlag]float64 `yaml:"flag_bonuses"`

	// ExcludePatterns filters entities before scoring. A pattern containing
	// a slash matches the full identifier with path.Match semantics;
	// otherwise it matches the last path/name segment.
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// DefaultConfig returns scoring defaults tuned for mid-size functions.
func DefaultConfig() Config {
	return Config{
		MinComplexity:    3,
		MinLines:         15,
		MaxLines:         150,
		ComplexityCap:    20,
		ChurnCap:         5,
		ComplexityWeight: 0.55,
		ChurnWeight:      0.25,
		LengthWeight:     0.20,
		FlagBonuses: map[types.StyleFlag]float64{
			types.FlagAsync:          5,
			types.FlagDecorated:      5,
			types.FlagGenerator:      8,
			types.FlagResourceScoped: 10,
		},
		ExcludePatterns: []string{
			"*_test.go",
			"test_*",
			"*.spec.ts",
			"*.test.ts",
			"__*__",
			"main",
			"init",
			"*/vendor/*",
			"*/node_modules/*",
			"*/generated/*",
		},
	}
}

// Scorer scores entities against a fixed configuration. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	cfg   Config
	ideal float64
}

// New creates a scorer. Config is assumed validated (config package).
func New(cfg Config) *Scorer {
	ideal := float64(cfg.IdealLines)
	if ideal == 0 {
		ideal = float64(cfg.MinLines+cfg.MaxLines) / 2
	}
	return &Scorer{cfg: cfg, ideal: ideal}
}

// Excluded reports whether the entity matches an exclusion pattern or
// falls outside the configured line/complexity bands. Excluded entities
// are never scored and never selected.
func (s *Scorer) Excluded(e *types.StructuralEntity) bool {
	if e.LineCount < s.cfg.MinLines || e.LineCount > s.cfg.MaxLines {
		return true
	}
	if e.Complexity < s.cfg.MinComplexity {
		return true
	}
	return s.matchesExclusion(e.Identifier)
}

func (s *Scorer) matchesExclusion(identifier string) bool {
	base := identifier
	if i := strings.LastIndexAny(identifier, "/."); i >= 0 {
		base = identifier[i+1:]
	}
	for _, pat := range s.cfg.ExcludePatterns {
		if strings.Contains(pat, "/") {
			if ok, _ := path.Match(pat, identifier); ok {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
		if ok, _ := path.Match(pat, path.Base(identifier)); ok {
			return true
		}
	}
	return false
}

// Score returns the desirability score for an entity, or (0, false) if
// the entity is excluded. Scores are non-negative; the continuous terms
// are each normalized to [0, 100] before weighting, and flag bonuses are
// added on top unweighted.
func (s *Scorer) Score(e *types.StructuralEntity) (float64, bool) {
	if s.Excluded(e) {
		return 0, false
	}

	complexity := saturate(e.Complexity, s.cfg.ComplexityCap) * 100
	churn := saturate(e.Churn, s.cfg.ChurnCap) * 100
	length := s.lengthTerm(e.LineCount) * 100

	total := complexity*s.cfg.ComplexityWeight +
		churn*s.cfg.ChurnWeight +
		length*s.cfg.LengthWeight

	for _, f := range e.Flags {
		total += s.cfg.FlagBonuses[f]
	}

	return total, true
}

// lengthTerm is peak-shaped: 1.0 at the ideal length, falling linearly
// to 0 at the edges of the [MinLines, MaxLines] band. Both trivial
// accessors and god-functions score poorly on length.
func (s *Scorer) lengthTerm(lines int) float64 {
	l := float64(lines)
	var span float64
	if l <= s.ideal {
		span = s.ideal - float64(s.cfg.MinLines)
	} else {
		span = float64(s.cfg.MaxLines) - s.ideal
	}
	if span <= 0 {
		return 1
	}
	term := 1 - math.Abs(l-s.ideal)/span
	if term < 0 {
		return 0
	}
	return term
}

func saturate(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	if v >= limit {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v / limit
}
