package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the lore data directory",
	Long: `Create the data directory layout and seed the managed blocks in the
configured project documents.

Examples:
  lore init
  lore init --base-dir .agents/lore`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	dirs := []string{
		a.cfg.BaseDir,
		a.cfg.SkillsDir(),
		a.cfg.FailureDir(),
		a.cfg.LogsDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	if err := a.syncer().Sync(); err != nil {
		return fmt.Errorf("seed document blocks: %w", err)
	}

	fmt.Printf("Initialized lore in %s\n", a.cfg.BaseDir)
	for _, target := range a.cfg.Docs.Targets {
		fmt.Printf("  synced %s\n", target)
	}
	return nil
}
