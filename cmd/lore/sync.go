package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate managed document blocks",
	Long: `Regenerate the skill and instinct index blocks in every configured
target document, plus the instinct index file. Content outside the
delimited blocks is never touched.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.store.WriteIndex(a.cfg.InstinctIndexPath(), 0); err != nil {
		return err
	}
	if err := a.syncer().Sync(); err != nil {
		return err
	}

	for _, target := range a.cfg.Docs.Targets {
		fmt.Printf("synced %s\n", target)
	}
	return nil
}
