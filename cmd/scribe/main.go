// Command scribe runs the documentation scheduling engine: it picks
// source entities worth documenting, spreads the work over a
// human-plausible daily schedule, and publishes the results to a
// devlog repository.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/scribe/internal/config"
	"github.com/steveyegge/scribe/internal/logging"
)

var (
	configPath string

	// cfg is loaded by loadConfig for the commands that need it.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Target selection and human-like scheduling engine",
	Long: `Scribe selects source-code entities worth documenting, schedules the
work across the day like a human committer would, generates the
documentation, and commits it to a devlog repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "scribe.yaml", "path to configuration file")
}

// loadConfig loads and validates the config file and initializes
// logging from it. Used as PersistentPreRunE by commands that need a
// working configuration.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return nil
}

// seed returns the configured random seed, or a clock-based one.
func seed() int64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
