// Package extcmd resolves and invokes the external CLI collaborators
// (ticketing, workspace, the reasoning runtime). Resolution probes an
// ordered list of candidate binaries; invocation enforces a timeout and
// always returns a structured result instead of an error — a failed or
// timed-out command is data, not a crash.
package extcmd

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"time"
)

const (
	// ExitTimeout is the distinguished exit code reported when a command
	// is killed on timeout.
	ExitTimeout = -2

	// ExitNotStarted is reported when the command could not be spawned at
	// all (binary missing, permission denied).
	ExitNotStarted = -1

	// DefaultProbeTimeout bounds the "are you runnable" probe.
	DefaultProbeTimeout = 2 * time.Second
)

// Result is the outcome of one external command invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool

	// Err holds the spawn error message when ExitCode is ExitNotStarted.
	Err string
}

// OK reports whether the command ran and exited zero.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Run spawns bin with argv, captures stdout and stderr, and enforces the
// timeout. It never panics and never returns a Go error; callers inspect
// the Result.
func Run(ctx context.Context, bin string, argv []string, timeout time.Duration) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.ExitCode = ExitTimeout
		res.TimedOut = true
	case err == nil:
		res.ExitCode = 0
	default:
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = ExitNotStarted
			res.Err = err.Error()
		}
	}
	return res
}

// Adapter resolves logical subsystem names ("ticket", "workspace") to a
// concrete binary. Resolution results are cached per subsystem.
type Adapter struct {
	candidates   map[string][]string
	fallbacks    map[string]string
	probeTimeout time.Duration
	probe        func(bin string) bool

	mu       sync.Mutex
	resolved map[string]string
}

// DefaultCandidates is the built-in candidate table.
func DefaultCandidates() map[string][]string {
	return map[string][]string{
		"ticket":    {"tk", "ticket"},
		"workspace": {"ws", "workspace"},
	}
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithCandidates replaces the candidate list for a subsystem.
func WithCandidates(subsystem string, bins []string) AdapterOption {
	return func(a *Adapter) { a.candidates[subsystem] = bins }
}

// WithFallback sets the binary used when no candidate probes successfully.
func WithFallback(subsystem, bin string) AdapterOption {
	return func(a *Adapter) { a.fallbacks[subsystem] = bin }
}

// WithProbeTimeout bounds each candidate probe.
func WithProbeTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.probeTimeout = d }
}

// WithProbeFunc overrides the probe (tests).
func WithProbeFunc(fn func(bin string) bool) AdapterOption {
	return func(a *Adapter) { a.probe = fn }
}

// NewAdapter returns an adapter with the default candidate table.
func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{
		candidates:   DefaultCandidates(),
		fallbacks:    map[string]string{},
		probeTimeout: DefaultProbeTimeout,
		resolved:     map[string]string{},
	}
	a.probe = a.probeVersion
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Resolve returns the first candidate binary for subsystem that answers a
// lightweight probe, falling back to the configured default (or the first
// candidate) when none succeed.
func (a *Adapter) Resolve(subsystem string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if bin, ok := a.resolved[subsystem]; ok {
		return bin
	}

	for _, candidate := range a.candidates[subsystem] {
		if a.probe(candidate) {
			a.resolved[subsystem] = candidate
			return candidate
		}
	}

	fallback := a.fallbacks[subsystem]
	if fallback == "" && len(a.candidates[subsystem]) > 0 {
		fallback = a.candidates[subsystem][0]
	}
	a.resolved[subsystem] = fallback
	return fallback
}

// Invoke resolves subsystem and runs "<binary> <subsystem> <argv...>".
func (a *Adapter) Invoke(ctx context.Context, subsystem string, argv []string, timeout time.Duration) Result {
	bin := a.Resolve(subsystem)
	if bin == "" {
		return Result{ExitCode: ExitNotStarted, Err: "no binary configured for " + subsystem}
	}
	return Run(ctx, bin, append([]string{subsystem}, argv...), timeout)
}

// probeVersion is the default probe: the candidate must answer --version
// within the probe timeout.
func (a *Adapter) probeVersion(bin string) bool {
	if _, err := exec.LookPath(bin); err != nil {
		return false
	}
	res := Run(context.Background(), bin, []string{"--version"}, a.probeTimeout)
	return res.OK()
}
