package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/obslog"
)

var (
	observeType    string
	observeSession string
	observeTool    string
	observeSummary string
	observeOK      bool
	observeFailed  bool
	observeArgs    []string
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Record an observation",
	Long: `Append one observation to the log. Intended to be called from agent
hooks after tool use or command execution. Recording never fails the
caller: I/O problems are swallowed.

Examples:
  lore observe --type tool-use --tool edit --ok --summary "edited config.go"
  lore observe --type command --tool "go test" --failed --session abc123
  lore observe --type tool-use --tool bash --arg cmd="make build"`,
	RunE: runObserve,
}

func init() {
	observeCmd.Flags().StringVar(&observeType, "type", "tool-use", "Event type (tool-use, command, idle)")
	observeCmd.Flags().StringVar(&observeSession, "session", "", "Session identifier")
	observeCmd.Flags().StringVar(&observeTool, "tool", "", "Tool or command name")
	observeCmd.Flags().StringVar(&observeSummary, "summary", "", "One-line description")
	observeCmd.Flags().BoolVar(&observeOK, "ok", false, "Mark the observed action as succeeded")
	observeCmd.Flags().BoolVar(&observeFailed, "failed", false, "Mark the observed action as failed")
	observeCmd.Flags().StringArrayVar(&observeArgs, "arg", nil, "Argument as key=value (repeatable)")
	rootCmd.AddCommand(observeCmd)
}

func runObserve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	obs := obslog.Observation{
		Type:      observeType,
		SessionID: observeSession,
		Tool:      observeTool,
		Summary:   observeSummary,
	}
	if observeOK || observeFailed {
		ok := observeOK && !observeFailed
		obs.OK = &ok
	}
	if len(observeArgs) > 0 {
		obs.Args = make(map[string]string, len(observeArgs))
		for _, kv := range observeArgs {
			key, value, found := strings.Cut(kv, "=")
			if !found {
				return fmt.Errorf("malformed --arg %q, want key=value", kv)
			}
			obs.Args[key] = value
		}
	}

	a.log.Record(obs)
	VerbosePrintf("recorded %s observation\n", observeType)
	return nil
}
