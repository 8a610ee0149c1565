package cmd

import (
	"github.com/GarnettJZ/makan-apa/core"
	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/spf13/cobra"
)

// gapsCmd finds the free time shared by everyone.
var gapsCmd = &cobra.Command{
	Use:   "gaps [PERSON...]",
	Short: "Show the free time shared by two or more people",
	Long: `Fetch each person's timetable for the week, compute their free gaps inside
the day window and print the slots everyone has free.

A person is written as INTAKE, INTAKE:GROUP or name=INTAKE:GROUP. When no
people are given on the command line, the 'people' list of the config file is used.

Examples:
  # Shared free time this week
  makan gaps UC2F2408CS:G1 UC2F2408SE:G2

  # Named people, a specific week, at least an hour together
  makan gaps alice=UC2F2408CS:G1 bob=UC2F2408SE:G2 --week 2026-03-02 --min-mutual 1

  # Include each person's gaps and classes
  makan gaps alice=UC2F2408CS:G1 bob=UC2F2408SE:G2 --detail --classes`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMutualGaps(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot find mutual gaps", err)
		}
	},
}

// scheduleCmd prints each person's classes and gaps.
var scheduleCmd = &cobra.Command{
	Use:   "schedule [PERSON...]",
	Short: "Show the classes and free gaps of each person",
	Long: `Fetch each person's timetable for the week and print their classes
alongside the free gaps between them.

Examples:
  # One intake group
  makan schedule UC2F2408CS:G1

  # Export as CSV
  makan schedule UC2F2408CS:G1 --output csv --output-file schedule.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSchedule(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build schedules", err)
		}
	},
}
