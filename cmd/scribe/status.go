package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scribe/internal/analysis"
	"github.com/steveyegge/scribe/internal/schedule"
	"github.com/steveyegge/scribe/internal/storage"
	"github.com/steveyegge/scribe/internal/types"
)

var statusCmd = &cobra.Command{
	Use:               "status",
	Short:             "Show ledger, schedule, and cycle statistics",
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.DBPath})
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Scribe Status ==="))

		stats, err := store.GetStatistics(ctx)
		if err != nil {
			return fmt.Errorf("reading statistics: %w", err)
		}

		fmt.Printf("%s\n", yellow("Documentation:"))
		fmt.Printf("  Total documented: %d\n", stats.TotalDocumented)
		fmt.Printf("  Last 7 days:      %d\n", stats.Last7Days)
		if len(stats.ByRepo) > 0 {
			fmt.Printf("  By repository:\n")
			for repo, n := range stats.ByRepo {
				fmt.Printf("    %-20s %d\n", repo, n)
			}
		}
		if len(stats.ByAngle) > 0 {
			fmt.Printf("  By angle:\n")
			for angle, n := range stats.ByAngle {
				fmt.Printf("    %-20s %d\n", angle, n)
			}
		}
		fmt.Println()

		fmt.Printf("%s\n", yellow("Cycles:"))
		fmt.Printf("  Total:   %d\n", stats.TotalCycles)
		fmt.Printf("  Failed:  %d\n", stats.FailedCycles)
		fmt.Printf("  Skipped: %d\n", stats.SkippedCycles)
		fmt.Println()

		// candidate inventory from each repository's manifest
		byRepo, err := analysis.ScanAll(ctx, analysis.NewManifestProvider(), cfg.Repos)
		fmt.Printf("%s\n", yellow("Candidates:"))
		if err != nil {
			fmt.Printf("  %s\n", gray(err.Error()))
		} else {
			for _, r := range cfg.Repos {
				entities, ok := byRepo[r.Name]
				if !ok {
					fmt.Printf("  %-20s %s\n", r.Name, gray("scan failed"))
					continue
				}
				fmt.Printf("  %-20s %d entities\n", r.Name, len(entities))
			}
			fmt.Printf("  %d candidates total\n", len(analysis.Flatten(byRepo)))
		}
		fmt.Println()

		// today's schedule, if one was generated
		loc := time.UTC
		if cfg.Schedule.Timezone != "" {
			if l, err := time.LoadLocation(cfg.Schedule.Timezone); err == nil {
				loc = l
			}
		}
		date := schedule.DateKey(time.Now(), loc)
		slots, err := store.GetScheduleDay(ctx, date)
		if err != nil {
			return fmt.Errorf("reading schedule: %w", err)
		}

		fmt.Printf("%s\n", yellow(fmt.Sprintf("Schedule for %s:", date)))
		if slots == nil {
			fmt.Printf("  %s\n", gray("not generated yet"))
		} else {
			fired := 0
			for _, s := range slots {
				marker := gray("○")
				if s.Fired {
					marker = green("●")
					fired++
				}
				fmt.Printf("  %s %s\n", marker, s.FireAt.In(loc).Format("15:04:05"))
			}
			fmt.Printf("  %d of %d fired\n", fired, len(slots))
		}
		fmt.Println()

		results, err := store.GetRecentCycleResults(ctx, 5)
		if err != nil {
			return fmt.Errorf("reading cycle results: %w", err)
		}
		fmt.Printf("%s\n", yellow("Recent cycles:"))
		if len(results) == 0 {
			fmt.Printf("  %s\n", gray("none"))
		}
		for _, r := range results {
			marker := gray("○")
			switch r.Outcome {
			case types.OutcomeCommitted:
				marker = green("✓")
			case types.OutcomeFailed:
				marker = red("✗")
			}
			line := fmt.Sprintf("%s %s", r.FiredAt.Local().Format("01-02 15:04"), r.Outcome)
			if r.EntityName != "" {
				line += fmt.Sprintf("  %s (%s)", r.EntityName, r.Angle)
			}
			if r.Detail != "" && r.Outcome != types.OutcomeCommitted {
				line += fmt.Sprintf("  %s", gray(r.Detail))
			}
			fmt.Printf("  %s %s\n", marker, line)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
