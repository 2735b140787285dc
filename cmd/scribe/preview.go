package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scribe/internal/schedule"
)

var previewDays int

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview upcoming schedules without side effects",
	Long: `Generate and print the firing schedule for the next N days. Nothing is
persisted; the daemon will draw its own schedule when each day starts.`,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := schedule.New(cfg.Schedule, seed())
		if err != nil {
			return err
		}

		days := gen.Preview(time.Now(), previewDays)

		dates := make([]string, 0, len(days))
		for d := range days {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Schedule Preview ==="))
		for _, date := range dates {
			slots := days[date]
			day, _ := time.ParseInLocation("2006-01-02", date, gen.Location())
			fmt.Printf("%s (%s) %s\n", date, day.Weekday(),
				gray(fmt.Sprintf("%d slots", len(slots))))
			for _, t := range slots {
				fmt.Printf("  %s\n", t.Format("15:04:05"))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().IntVar(&previewDays, "days", 7, "number of days to preview")
	rootCmd.AddCommand(previewCmd)
}
