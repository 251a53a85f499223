package autolearn

import (
	"context"
	"fmt"
	"time"

	"github.com/boshu2/lore/internal/extcmd"
)

// Runner executes one reasoning step over an assembled prompt. sessionID is
// the disposable conversational context the step runs in, never the user's
// interactive session.
type Runner interface {
	Run(ctx context.Context, prompt, sessionID string) (string, error)
}

// CLIRunner drives the reasoning runtime binary in headless print mode.
// Each run gets a fresh session id, so the large background prompt never
// lands in the interactive conversation.
type CLIRunner struct {
	bin     string
	timeout time.Duration
}

// NewCLIRunner returns a runner for the given runtime binary.
func NewCLIRunner(bin string, timeout time.Duration) *CLIRunner {
	return &CLIRunner{bin: bin, timeout: timeout}
}

// Run invokes the runtime and returns its stdout.
func (r *CLIRunner) Run(ctx context.Context, prompt, sessionID string) (string, error) {
	argv := []string{"-p", prompt, "--session-id", sessionID, "--output-format", "text"}
	res := extcmd.Run(ctx, r.bin, argv, r.timeout)
	if res.TimedOut {
		return res.Stdout, fmt.Errorf("reasoning runtime %s timed out after %s", r.bin, r.timeout)
	}
	if res.ExitCode != 0 {
		msg := res.Err
		if msg == "" {
			msg = res.Stderr
		}
		return res.Stdout, fmt.Errorf("reasoning runtime %s exited %d: %s", r.bin, res.ExitCode, firstLine(msg))
	}
	return res.Stdout, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
