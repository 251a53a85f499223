package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/autolearn"
)

var autolearnSession string

var autolearnCmd = &cobra.Command{
	Use:   "autolearn",
	Short: "Evaluate an idle signal and maybe distill",
	Long: `Deliver one idle signal to the scheduler. If autolearn is enabled, the
cooldown has elapsed, and enough new activity has accumulated, a
reasoning run is executed in a disposable session and its proposed
changes are applied in auto mode.

Intended to be called from an agent idle hook:
  lore autolearn --session "$SESSION_ID"`,
	RunE: runAutolearn,
}

func init() {
	autolearnCmd.Flags().StringVar(&autolearnSession, "session", "", "Triggering session identifier")
	rootCmd.AddCommand(autolearnCmd)
}

func runAutolearn(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	outcome, err := a.scheduler().OnIdle(context.Background(), autolearnSession)
	if err != nil {
		return err
	}

	switch outcome {
	case autolearn.OutcomeApplied:
		fmt.Println("Applied distilled changes.")
	case autolearn.OutcomeNoChange:
		fmt.Println("Run completed, nothing worth recording.")
	case autolearn.OutcomeDisabled, autolearn.OutcomeNoSession, autolearn.OutcomeBusy,
		autolearn.OutcomeCooldown, autolearn.OutcomeNoActivity:
		VerbosePrintf("autolearn skipped: %s\n", outcome)
	case autolearn.OutcomeRunFailure, autolearn.OutcomeParseFailure:
		// Already notified; the raw output is archived for inspection.
		VerbosePrintf("autolearn failed: %s\n", outcome)
	}
	return nil
}
