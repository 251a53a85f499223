// Package autolearn is the background distillation scheduler. An idle
// signal from the host triggers an evaluation against the plugin state;
// when enough new activity has accumulated it assembles a bounded context,
// runs the reasoning step in a disposable session, and applies the
// resulting payload. A single-flight latch coalesces concurrent triggers,
// and a run that produces unparsable output archives it and leaves the
// state untouched so the next signal re-evaluates from scratch.
package autolearn

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/applier"
	"github.com/boshu2/lore/internal/config"
	"github.com/boshu2/lore/internal/instinct"
	"github.com/boshu2/lore/internal/obslog"
	"github.com/boshu2/lore/internal/skills"
	"github.com/boshu2/lore/internal/spec"
	"github.com/boshu2/lore/internal/state"
)

// Outcome reports why an idle signal did or did not lead to changes.
type Outcome string

const (
	OutcomeDisabled     Outcome = "disabled"
	OutcomeNoSession    Outcome = "no-session"
	OutcomeBusy         Outcome = "busy"
	OutcomeCooldown     Outcome = "cooldown"
	OutcomeNoActivity   Outcome = "no-activity"
	OutcomeRunFailure   Outcome = "run-failure"
	OutcomeParseFailure Outcome = "parse-failure"
	OutcomeNoChange     Outcome = "no-change"
	OutcomeApplied      Outcome = "applied"
)

// Notifier surfaces transient user-visible messages. Background failures
// notify and move on; they never block the interactive session.
type Notifier interface {
	Notify(message string)
}

// NotifyFunc adapts a function to the Notifier interface.
type NotifyFunc func(message string)

// Notify calls f.
func (f NotifyFunc) Notify(message string) { f(message) }

// Deps are the collaborators a Scheduler drives.
type Deps struct {
	Log        *obslog.Log
	Repo       *skills.Repo
	Store      *instinct.Store
	Applier    *applier.Applier
	Syncer     applier.Syncer
	Runner     Runner
	Notifier   Notifier
	StatePath  string
	FailureDir string
}

// Scheduler evaluates idle signals and runs distillation cycles.
type Scheduler struct {
	cfg        config.AutolearnConfig
	log        *obslog.Log
	repo       *skills.Repo
	store      *instinct.Store
	applier    *applier.Applier
	syncer     applier.Syncer
	runner     Runner
	notifier   Notifier
	statePath  string
	failureDir string
	logger     *zap.Logger
	now        func() time.Time

	running atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the diagnostic logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = lg }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New returns a Scheduler.
func New(cfg config.AutolearnConfig, deps Deps, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:        cfg,
		log:        deps.Log,
		repo:       deps.Repo,
		store:      deps.Store,
		applier:    deps.Applier,
		syncer:     deps.Syncer,
		runner:     deps.Runner,
		notifier:   deps.Notifier,
		statePath:  deps.StatePath,
		failureDir: deps.FailureDir,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnIdle evaluates one idle signal. Concurrent calls while a run is in
// flight return OutcomeBusy immediately; they are dropped, not queued.
func (s *Scheduler) OnIdle(ctx context.Context, sessionID string) (Outcome, error) {
	if !s.cfg.Enabled {
		return OutcomeDisabled, nil
	}
	if sessionID == "" {
		return OutcomeNoSession, nil
	}
	if !s.running.CompareAndSwap(false, true) {
		return OutcomeBusy, nil
	}
	defer s.running.Store(false)

	st, err := state.Load(s.statePath)
	if err != nil {
		return OutcomeNoActivity, err
	}
	count, hash, err := s.log.Count()
	if err != nil {
		return OutcomeNoActivity, err
	}

	now := s.now().UTC()
	cooldown := time.Duration(s.cfg.CooldownMinutes) * time.Minute
	if !st.Autolearn.LastRunAt.IsZero() && now.Sub(st.Autolearn.LastRunAt) < cooldown {
		s.logger.Debug("autolearn on cooldown",
			zap.Time("last_run", st.Autolearn.LastRunAt))
		return OutcomeCooldown, nil
	}

	growth := count - st.Autolearn.LastObservationCount
	if growth < s.cfg.MinNewObservations && hash == st.Autolearn.LastTailHash {
		s.logger.Debug("autolearn skipped, not enough new activity",
			zap.Int("growth", growth), zap.String("hash", hash))
		return OutcomeNoActivity, nil
	}

	return s.run(ctx, sessionID, count, hash)
}

// run executes one distillation cycle. The plugin state only advances when
// the cycle reaches the apply step; a runtime or parse failure archives the
// raw output and leaves the counters alone so real new activity retriggers.
func (s *Scheduler) run(ctx context.Context, sessionID string, count int, hash string) (Outcome, error) {
	prompt := s.assembleContext(ctx)

	// A throwaway session keeps the background prompt out of the user's
	// conversation and is discarded whatever happens.
	runSession := uuid.NewString()
	s.logger.Info("autolearn run starting",
		zap.String("session", sessionID),
		zap.String("run_session", runSession),
		zap.Int("prompt_chars", len(prompt)))

	output, err := s.runner.Run(ctx, prompt, runSession)
	if err != nil {
		s.archiveFailure(output, err)
		s.notify("lore: background learning run failed")
		return OutcomeRunFailure, nil
	}

	payload, err := ExtractJSON(output)
	if err == nil {
		var parsed *spec.Spec
		parsed, err = spec.Parse(payload)
		if err == nil {
			return s.apply(ctx, parsed, sessionID, count, hash)
		}
	}
	s.archiveFailure(output, err)
	s.notify("lore: background learning produced unusable output")
	return OutcomeParseFailure, nil
}

func (s *Scheduler) apply(ctx context.Context, parsed *spec.Spec, sessionID string, count int, hash string) (Outcome, error) {
	// Provenance is forced; the payload's own claims are never trusted.
	parsed.Reason = "autolearn"
	parsed.SessionID = sessionID

	sum, err := s.applier.Apply(parsed, applier.ModeAuto)
	if err != nil {
		return OutcomeNoChange, fmt.Errorf("apply distilled changes: %w", err)
	}
	for _, failure := range sum.Failures {
		s.logger.Warn("autolearn apply step failed", zap.String("failure", failure))
	}

	// Documents resync unconditionally after every completed run.
	if s.syncer != nil {
		if err := s.syncer.Sync(); err != nil {
			s.logger.Warn("document resync failed", zap.Error(err))
		}
	}

	err = state.Update(s.statePath, func(st *state.State) {
		st.Autolearn.LastRunAt = s.now().UTC()
		st.Autolearn.LastRunSession = sessionID
		st.Autolearn.LastObservationCount = count
		st.Autolearn.LastTailHash = hash
	})
	if err != nil {
		return OutcomeNoChange, fmt.Errorf("record autolearn state: %w", err)
	}

	if !sum.Changed() {
		return OutcomeNoChange, nil
	}
	s.notify(fmt.Sprintf("lore: learned %d skill change(s), %d instinct change(s)",
		len(sum.Skills), sum.InstinctsCreated+sum.InstinctsUpdated))
	return OutcomeApplied, nil
}

// archiveFailure persists raw reasoning output for later inspection.
func (s *Scheduler) archiveFailure(output string, cause error) {
	name := fmt.Sprintf("autolearn-%s.txt", s.now().UTC().Format("20060102T150405"))
	path := filepath.Join(s.failureDir, name)

	body := output
	if cause != nil {
		body = fmt.Sprintf("cause: %v\n\n%s", cause, output)
	}
	if err := os.MkdirAll(s.failureDir, 0o755); err != nil {
		s.logger.Warn("failure archive dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		s.logger.Warn("failure archive write", zap.Error(err))
		return
	}
	s.logger.Info("autolearn output archived", zap.String("path", path))
}

func (s *Scheduler) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}
