package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/scribe/internal/logging"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduling daemon",
	Long: `Run the engine as a daemon: generate today's schedule if needed, wait
for each slot to fire, and execute documentation cycles until SIGINT or
SIGTERM.`,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := buildEngine(ctx, runDryRun)
		if err != nil {
			return err
		}
		defer eng.Close()

		logging.Get().Info().Str("config", configPath).Bool("dry_run", runDryRun).
			Msg("starting scribe daemon")
		return eng.orch.Run(ctx)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run cycles without committing or recording")
	rootCmd.AddCommand(runCmd)
}
