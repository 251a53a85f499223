package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tailCount int

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent observations",
	Long: `Print the most recent observations from the active log. Records from
rotated-out files are not included.

Examples:
  lore tail
  lore tail -n 100 -o json`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().IntVarP(&tailCount, "count", "n", 20, "Number of records to show")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	records, err := a.log.Tail(tailCount)
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		return printJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No observations recorded yet.")
		return nil
	}
	for _, obs := range records {
		status := " "
		if obs.OK != nil {
			if *obs.OK {
				status = "+"
			} else {
				status = "!"
			}
		}
		line := fmt.Sprintf("%s %s  %-10s %s", status, obs.TS.Format("2006-01-02 15:04:05"), obs.Type, obs.Tool)
		if obs.Summary != "" {
			line += "  " + obs.Summary
		}
		fmt.Println(line)
	}
	return nil
}
