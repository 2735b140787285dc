// Package config loads and validates the engine configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/scribe/internal/generate"
	"github.com/steveyegge/scribe/internal/git"
	"github.com/steveyegge/scribe/internal/schedule"
	"github.com/steveyegge/scribe/internal/scoring"
	"github.com/steveyegge/scribe/internal/types"
)

// SelectionConfig holds target selection settings.
type SelectionConfig struct {
	// CooldownDays is how long a (entity, angle) pair stays ineligible
	// after being documented.
	CooldownDays int `yaml:"cooldown_days" validate:"min=1"`

	// RepoAttemptsPerAngle bounds how many repositories selection tries
	// for one angle before moving on.
	RepoAttemptsPerAngle int `yaml:"repo_attempts_per_angle" validate:"min=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Config is the full engine configuration.
type Config struct {
	Repos  []types.Repository `yaml:"repos" validate:"required,min=1"`
	Angles []types.DocAngle   `yaml:"angles" validate:"required,min=1"`

	Schedule   schedule.Config `yaml:"schedule"`
	Scoring    scoring.Config  `yaml:"scoring"`
	Selection  SelectionConfig `yaml:"selection"`
	Generation generate.Config `yaml:"generation"`
	DevLog     git.Config      `yaml:"devlog"`
	Logging    LoggingConfig   `yaml:"logging"`

	DBPath string `yaml:"db_path"`

	// Seed fixes the random sources for reproducible schedules and
	// draws. Zero means seed from the clock.
	Seed int64 `yaml:"seed"`
}

// Default returns the configuration defaults. Repos and Angles have no
// defaults; a config file must provide them.
func Default() *Config {
	return &Config{
		Schedule: schedule.DefaultConfig(),
		Scoring:  scoring.DefaultConfig(),
		Selection: SelectionConfig{
			CooldownDays:         90,
			RepoAttemptsPerAngle: 3,
		},
		Generation: generate.DefaultConfig(),
		DevLog:     git.DefaultConfig(),
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		DBPath:     ".scribe/scribe.db",
	}
}

// Load reads, parses, and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Cooldown returns the dedup cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Selection.CooldownDays) * 24 * time.Hour
}

// Validate checks the configuration: struct tags first, then the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	names := map[string]bool{}
	for i := range c.Repos {
		if err := c.Repos[i].Validate(); err != nil {
			return err
		}
		if names[c.Repos[i].Name] {
			return fmt.Errorf("duplicate repository name %q", c.Repos[i].Name)
		}
		names[c.Repos[i].Name] = true
	}
	anyEnabled := false
	for _, r := range c.Repos {
		if r.Enabled {
			anyEnabled = true
			break
		}
	}
	if !anyEnabled {
		return fmt.Errorf("no repository is enabled")
	}

	angleNames := map[string]bool{}
	for i := range c.Angles {
		if err := c.Angles[i].Validate(); err != nil {
			return err
		}
		if angleNames[c.Angles[i].Name] {
			return fmt.Errorf("duplicate angle name %q", c.Angles[i].Name)
		}
		angleNames[c.Angles[i].Name] = true
	}

	if c.Schedule.MinCommitsPerDay > c.Schedule.MaxCommitsPerDay {
		return fmt.Errorf("schedule: min_commits_per_day (%d) exceeds max_commits_per_day (%d)",
			c.Schedule.MinCommitsPerDay, c.Schedule.MaxCommitsPerDay)
	}
	avoid := map[int]bool{}
	for _, h := range c.Schedule.AvoidHours {
		avoid[h] = true
	}
	for _, h := range c.Schedule.PreferHours {
		if avoid[h] {
			return fmt.Errorf("schedule: hour %d is both preferred and avoided", h)
		}
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule: invalid timezone %q", c.Schedule.Timezone)
		}
	}

	if c.Scoring.MinLines >= c.Scoring.MaxLines {
		return fmt.Errorf("scoring: min_lines (%d) must be below max_lines (%d)",
			c.Scoring.MinLines, c.Scoring.MaxLines)
	}
	if c.Scoring.IdealLines != 0 &&
		(c.Scoring.IdealLines < c.Scoring.MinLines || c.Scoring.IdealLines > c.Scoring.MaxLines) {
		return fmt.Errorf("scoring: ideal_lines (%d) outside [%d, %d]",
			c.Scoring.IdealLines, c.Scoring.MinLines, c.Scoring.MaxLines)
	}

	return nil
}
