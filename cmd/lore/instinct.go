package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/spec"
)

var instinctCmd = &cobra.Command{
	Use:   "instinct",
	Short: "Manage instincts",
	Long: `Instincts are small trigger/action heuristics with a confidence score.
They accumulate over distillation cycles and are deprecated rather than
deleted.`,
}

var instinctListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active instincts by confidence",
	RunE:  runInstinctList,
}

var (
	instinctTitle      string
	instinctTrigger    string
	instinctAction     string
	instinctConfidence float64
	instinctTags       []string
	instinctSkill      string
)

var instinctAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Record a new instinct",
	Long: `Record one instinct by hand. Creating an id that already exists leaves
the existing record untouched.

Examples:
  lore instinct add run-tests-first \
    --title "Run tests before review" \
    --trigger "about to request review" \
    --action "run the test suite locally" \
    --confidence 0.7`,
	Args: cobra.ExactArgs(1),
	RunE: runInstinctAdd,
}

func init() {
	instinctAddCmd.Flags().StringVar(&instinctTitle, "title", "", "Short title")
	instinctAddCmd.Flags().StringVar(&instinctTrigger, "trigger", "", "When the instinct applies")
	instinctAddCmd.Flags().StringVar(&instinctAction, "action", "", "What to do")
	instinctAddCmd.Flags().Float64Var(&instinctConfidence, "confidence", 0.5, "Confidence in [0,1]")
	instinctAddCmd.Flags().StringSliceVar(&instinctTags, "tags", nil, "Tags (comma-separated)")
	instinctAddCmd.Flags().StringVar(&instinctSkill, "skill", "", "Linked skill name")
	_ = instinctAddCmd.MarkFlagRequired("trigger")
	_ = instinctAddCmd.MarkFlagRequired("action")

	instinctCmd.AddCommand(instinctListCmd, instinctAddCmd)
	rootCmd.AddCommand(instinctCmd)
}

func runInstinctList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	active, err := a.store.Active()
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		return printJSON(active)
	}
	if len(active) == 0 {
		fmt.Println("No instincts recorded yet.")
		return nil
	}
	for _, in := range active {
		fmt.Printf("%.2f  %-30s %s\n", in.Confidence, in.ID, in.Title)
		fmt.Printf("      when: %s\n      do:   %s\n", in.Trigger, in.Action)
	}
	return nil
}

func runInstinctAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := spec.ValidateSlug(args[0]); err != nil {
		return err
	}

	created, _, err := a.store.ApplyChanges([]spec.InstinctCreate{{
		ID:         args[0],
		Title:      instinctTitle,
		Trigger:    instinctTrigger,
		Action:     instinctAction,
		Tags:       instinctTags,
		Confidence: instinctConfidence,
		Skill:      instinctSkill,
	}}, nil, "")
	if err != nil {
		return err
	}
	if created == 0 {
		fmt.Printf("Instinct %s already exists, left unchanged\n", args[0])
		return nil
	}

	if err := a.store.WriteIndex(a.cfg.InstinctIndexPath(), 0); err != nil {
		return err
	}
	fmt.Printf("Recorded instinct %s\n", args[0])
	return nil
}
