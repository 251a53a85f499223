package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/extcmd"
)

var runTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run <subsystem> [args...]",
	Short: "Invoke an external collaborator CLI",
	Long: `Resolve the binary for a logical subsystem (ticket, workspace) by
probing the configured candidates, then invoke it as
"<binary> <subsystem> <args...>". The collaborator's output is passed
through; its exit code becomes this command's exit code.

Examples:
  lore run ticket list
  lore run workspace create feature-x`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "Invocation timeout")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	res := a.adapter().Invoke(context.Background(), args[0], args[1:], runTimeout)
	fmt.Print(res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)

	switch {
	case res.TimedOut:
		return fmt.Errorf("%s timed out after %s", args[0], runTimeout)
	case res.ExitCode == extcmd.ExitNotStarted:
		return fmt.Errorf("could not start %s: %s", args[0], res.Err)
	case res.ExitCode != 0:
		return fmt.Errorf("%s exited %d", args[0], res.ExitCode)
	}
	return nil
}
