// Package schedule generates human-plausible daily firing schedules.
// A generated day is a set of timestamps biased toward working hours,
// thinned on weekends, and spaced by a minimum gap. Generation is pure
// given (date, config, seed), so future days can be previewed without
// side effects.
package schedule

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/steveyegge/scribe/internal/weighted"
)

// baseHourWeights is the baseline human-activity curve: near-silence in
// the small hours, a morning ramp, a lunch dip, and an evening tail.
// prefer_hours scale up from this baseline; avoid_hours zero out.
var baseHourWeights = [24]float64{
	0.02, 0.01, 0.005, 0.0, 0.0, 0.0, 0.01, 0.03,
	0.08, 0.12, 0.15, 0.14, 0.08, 0.10, 0.14, 0.15,
	0.14, 0.10, 0.06, 0.05, 0.10, 0.12, 0.10, 0.05,
}

// preferBoost multiplies the baseline weight of preferred hours.
const preferBoost = 1.5

// Config holds schedule generation bounds.
type Config struct {
	MinCommitsPerDay int     `yaml:"min_commits_per_day" validate:"min=1,max=50"`
	MaxCommitsPerDay int     `yaml:"max_commits_per_day" validate:"min=1,max=50"`
	PreferHours      []int   `yaml:"prefer_hours" validate:"dive,min=0,max=23"`
	AvoidHours       []int   `yaml:"avoid_hours" validate:"dive,min=0,max=23"`
	MinGapMinutes    int     `yaml:"min_gap_minutes" validate:"min=0"`
	WeekendDamping   float64 `yaml:"weekend_damping" validate:"gt=0,max=1"`
	Timezone         string  `yaml:"timezone"`

	// AttemptsPerSlot bounds the resampling loop per requested slot.
	// When exhausted the day simply gets fewer slots; the minimum-gap
	// invariant is never relaxed.
	AttemptsPerSlot int `yaml:"attempts_per_slot"`
}

// DefaultConfig returns schedule defaults matching a working-hours
// committer in a single timezone.
func DefaultConfig() Config {
	return Config{
		MinCommitsPerDay: 12,
		MaxCommitsPerDay: 18,
		PreferHours:      []int{9, 10, 11, 14, 15, 16, 20, 21, 22},
		AvoidHours:       []int{3, 4, 5, 6, 7},
		MinGapMinutes:    30,
		WeekendDamping:   0.7,
		Timezone:         "UTC",
		AttemptsPerSlot:  10,
	}
}

// Generator produces daily schedules. It carries no state between days
// beyond its random source; seed it for reproducible output.
type Generator struct {
	cfg Config
	loc *time.Location
	rng *rand.Rand
}

// New creates a generator. The timezone must resolve; bounds are assumed
// validated by the config package.
func New(cfg Config, seed int64) (*Generator, error) {
	if cfg.AttemptsPerSlot <= 0 {
		cfg.AttemptsPerSlot = 10
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return &Generator{
		cfg: cfg,
		loc: loc,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Location returns the generator's resolved timezone.
func (g *Generator) Location() *time.Location {
	return g.loc
}

// GenerateDay produces the firing timestamps for one calendar day,
// strictly ascending, all on that day in the configured timezone, none
// in an avoided hour, and no two closer than the minimum gap. The
// result may be shorter than the drawn target when the gap constraint
// makes the day too dense.
func (g *Generator) GenerateDay(date time.Time) []time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, g.loc)

	count := g.cfg.MinCommitsPerDay
	if spread := g.cfg.MaxCommitsPerDay - g.cfg.MinCommitsPerDay; spread > 0 {
		count += g.rng.Intn(spread + 1)
	}

	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		count = int(math.Round(float64(count) * g.cfg.WeekendDamping))
		if count < 1 {
			count = 1
		}
	}

	table, err := weighted.NewTable(g.hourWeights())
	if err != nil {
		// Every hour zeroed out by avoid_hours; nothing can fire today.
		return nil
	}

	minGap := time.Duration(g.cfg.MinGapMinutes) * time.Minute
	maxAttempts := count * g.cfg.AttemptsPerSlot

	var times []time.Time
	for attempts := 0; len(times) < count && attempts < maxAttempts; attempts++ {
		hour := table.Draw(g.rng)
		candidate := time.Date(day.Year(), day.Month(), day.Day(),
			hour, g.rng.Intn(60), g.rng.Intn(60), 0, g.loc)

		// A local time skipped by a DST transition normalizes onto a
		// different wall hour, or even the next day. Resample those.
		if candidate.Hour() != hour || candidate.Day() != day.Day() {
			continue
		}

		if g.fitsGap(candidate, times, minGap) {
			times = append(times, candidate)
		}
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

// Preview generates schedules for the next n days starting at from,
// without touching any persistent state.
func (g *Generator) Preview(from time.Time, days int) map[string][]time.Time {
	out := make(map[string][]time.Time, days)
	for i := 0; i < days; i++ {
		day := from.In(g.loc).AddDate(0, 0, i)
		out[DateKey(day, g.loc)] = g.GenerateDay(day)
	}
	return out
}

// DateKey formats a time as the YYYY-MM-DD key used for schedule days.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func (g *Generator) hourWeights() []float64 {
	weights := make([]float64, 24)
	copy(weights, baseHourWeights[:])

	for _, h := range g.cfg.PreferHours {
		if h >= 0 && h < 24 {
			weights[h] *= preferBoost
		}
	}
	for _, h := range g.cfg.AvoidHours {
		if h >= 0 && h < 24 {
			weights[h] = 0
		}
	}
	return weights
}

// fitsGap rejects a candidate closer than minGap to any accepted time.
// Equal timestamps are always rejected to keep the output strictly
// ascending even with a zero gap.
func (g *Generator) fitsGap(candidate time.Time, accepted []time.Time, minGap time.Duration) bool {
	for _, t := range accepted {
		d := candidate.Sub(t)
		if d < 0 {
			d = -d
		}
		if d < minGap || d == 0 {
			return false
		}
	}
	return true
}
