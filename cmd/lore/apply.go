package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/applier"
	"github.com/boshu2/lore/internal/spec"
)

var applyMode string

var applyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Apply a structured change payload",
	Long: `Read a CompoundSpec JSON payload from a file (or stdin) and apply it:
skill changes, instinct changes, memory notes, document sync, and a
changelog line.

In manual mode (the default) the first failure aborts the run. In auto
mode failures are recorded per item and the remaining steps still run.

Examples:
  lore apply changes.json
  cat changes.json | lore apply
  lore apply changes.json --mode auto`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyMode, "mode", "manual", "Failure policy (manual, auto)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	mode := applier.Mode(applyMode)
	if mode != applier.ModeManual && mode != applier.ModeAuto {
		return fmt.Errorf("unknown mode %q, want manual or auto", applyMode)
	}

	var raw []byte
	var err error
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	payload, err := spec.Parse(raw)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	sum, err := a.applier().Apply(payload, mode)
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		return printJSON(sum)
	}
	for _, sk := range sum.Skills {
		fmt.Printf("%s %s\n", sk.Action, sk.Name)
	}
	if sum.InstinctsCreated+sum.InstinctsUpdated > 0 {
		fmt.Printf("instincts: %d created, %d updated\n", sum.InstinctsCreated, sum.InstinctsUpdated)
	}
	for _, f := range sum.Failures {
		fmt.Printf("failed: %s\n", f)
	}
	if !sum.Changed() {
		fmt.Println("No changes applied.")
	}
	return nil
}
