package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scribe/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long:  `Load and validate the configuration file, exiting non-zero on any error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("%s %v\n", color.New(color.FgRed).Sprint("✗"), err)
			return fmt.Errorf("configuration invalid")
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s is valid\n", green("✓"), configPath)
		fmt.Printf("  %d repositories, %d angles\n", len(c.Repos), len(c.Angles))
		fmt.Printf("  %d-%d commits/day, cooldown %d days\n",
			c.Schedule.MinCommitsPerDay, c.Schedule.MaxCommitsPerDay,
			c.Selection.CooldownDays)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
