package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scribe/internal/types"
)

var onceDryRun bool

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Execute a single cycle immediately",
	Long: `Run one documentation cycle right now, outside the schedule: select a
target, generate documentation, commit it, and update the ledger.
With --dry-run the cycle stops after generation and records nothing.`,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		eng, err := buildEngine(ctx, onceDryRun)
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := eng.orch.RunOnce(ctx)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		switch result.Outcome {
		case types.OutcomeCommitted:
			fmt.Printf("%s documented %s (%s) in %s\n", green("✓"),
				result.EntityName, result.Angle, result.Repo)
			fmt.Printf("  commit %s\n", result.CommitID)
		case types.OutcomeSkipped:
			fmt.Printf("%s cycle skipped: %s\n", yellow("○"), result.Detail)
		case types.OutcomeFailed:
			fmt.Printf("%s cycle failed: %s\n", red("✗"), result.Detail)
			return fmt.Errorf("cycle failed")
		}
		return nil
	},
}

func init() {
	onceCmd.Flags().BoolVar(&onceDryRun, "dry-run", false, "generate but do not commit or record")
	rootCmd.AddCommand(onceCmd)
}
