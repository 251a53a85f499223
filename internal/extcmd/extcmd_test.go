package extcmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_CapturesOutput(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, 5*time.Second)

	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.OK())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRun_NonZeroExit(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "exit 3"}, 5*time.Second)

	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.OK())
	assert.False(t, res.TimedOut)
}

func TestRun_Timeout(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "sleep 5"}, 100*time.Millisecond)

	assert.Equal(t, ExitTimeout, res.ExitCode)
	assert.True(t, res.TimedOut)
}

func TestRun_MissingBinary(t *testing.T) {
	res := Run(context.Background(), "definitely-not-a-real-binary-zz", nil, time.Second)

	assert.Equal(t, ExitNotStarted, res.ExitCode)
	assert.NotEmpty(t, res.Err)
}

func TestResolve_FirstProbedCandidateWins(t *testing.T) {
	probed := []string{}
	a := NewAdapter(
		WithCandidates("ticket", []string{"tk-one", "tk-two", "tk-three"}),
		WithProbeFunc(func(bin string) bool {
			probed = append(probed, bin)
			return bin == "tk-two"
		}),
	)

	assert.Equal(t, "tk-two", a.Resolve("ticket"))
	assert.Equal(t, []string{"tk-one", "tk-two"}, probed)

	// Cached: a second resolve does not probe again.
	assert.Equal(t, "tk-two", a.Resolve("ticket"))
	assert.Len(t, probed, 2)
}

func TestResolve_FallbackWhenNothingProbes(t *testing.T) {
	a := NewAdapter(
		WithCandidates("workspace", []string{"ws-a", "ws-b"}),
		WithFallback("workspace", "ws-default"),
		WithProbeFunc(func(string) bool { return false }),
	)

	assert.Equal(t, "ws-default", a.Resolve("workspace"))
}

func TestResolve_FirstCandidateAsImplicitFallback(t *testing.T) {
	a := NewAdapter(
		WithCandidates("ticket", []string{"tk"}),
		WithProbeFunc(func(string) bool { return false }),
	)

	assert.Equal(t, "tk", a.Resolve("ticket"))
}
