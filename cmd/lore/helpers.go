package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/applier"
	"github.com/boshu2/lore/internal/autolearn"
	"github.com/boshu2/lore/internal/config"
	"github.com/boshu2/lore/internal/docsync"
	"github.com/boshu2/lore/internal/extcmd"
	"github.com/boshu2/lore/internal/fsutil"
	"github.com/boshu2/lore/internal/instinct"
	"github.com/boshu2/lore/internal/logging"
	"github.com/boshu2/lore/internal/obslog"
	"github.com/boshu2/lore/internal/skills"
	"github.com/boshu2/lore/internal/spec"
)

// loadConfig resolves configuration with global flags layered on top.
func loadConfig() (*config.Config, error) {
	overrides := &config.Config{
		Output:  output,
		BaseDir: baseDir,
		Verbose: verbose,
	}
	return config.Load(overrides)
}

// app bundles the wired components most commands need.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	log    *obslog.Log
	repo   *skills.Repo
	store  *instinct.Store
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogsDir(), cfg.Verbose)

	a := &app{
		cfg:    cfg,
		logger: logger,
		log: obslog.Open(cfg.ObservationLogPath(),
			obslog.WithMaxBytes(cfg.Observations.MaxLogBytes),
			obslog.WithHashWindow(cfg.Observations.HashWindow),
			obslog.WithLogger(logger)),
		store: instinct.NewStore(cfg.InstinctStorePath(), instinct.WithLogger(logger)),
	}

	repoOpts := []skills.Option{skills.WithLogger(logger)}
	if cfg.Skills.MirrorDir != "" {
		repoOpts = append(repoOpts, skills.WithMirror(cfg.Skills.MirrorDir))
	}
	a.repo = skills.NewRepo(cfg.SkillsDir(), repoOpts...)
	return a, nil
}

func (a *app) syncer() *docsync.Syncer {
	return docsync.New(a.repo, a.store, a.cfg.Docs.Targets, docsync.WithLogger(a.logger))
}

func (a *app) applier() *applier.Applier {
	return applier.New(a.repo, a.store, a.cfg.ChangelogPath(), a.cfg.InstinctIndexPath(),
		applier.WithSyncer(a.syncer()),
		applier.WithNoteSink(a.noteSink()),
		applier.WithLogger(a.logger))
}

// noteSink appends memory notes to a notes file under the data directory.
func (a *app) noteSink() applier.NoteSink {
	path := filepath.Join(a.cfg.BaseDir, "notes", "NOTES.md")
	return applier.NoteFunc(func(n spec.MemoryNote) error {
		line := fmt.Sprintf("- %s", n.Content)
		if n.Title != "" {
			line = fmt.Sprintf("- **%s**: %s", n.Title, n.Content)
		}
		return fsutil.AppendLine(path, []byte(line))
	})
}

func (a *app) scheduler() *autolearn.Scheduler {
	runtimeTimeout := time.Duration(a.cfg.Autolearn.RuntimeTimeoutMinutes) * time.Minute
	return autolearn.New(a.cfg.Autolearn, autolearn.Deps{
		Log:        a.log,
		Repo:       a.repo,
		Store:      a.store,
		Applier:    a.applier(),
		Syncer:     a.syncer(),
		Runner:     autolearn.NewCLIRunner(a.cfg.Autolearn.RuntimeCommand, runtimeTimeout),
		Notifier:   autolearn.NotifyFunc(func(msg string) { fmt.Fprintln(os.Stderr, msg) }),
		StatePath:  a.cfg.StatePath(),
		FailureDir: a.cfg.FailureDir(),
	}, autolearn.WithLogger(a.logger))
}

// adapter builds the external command adapter from configured candidates.
func (a *app) adapter() *extcmd.Adapter {
	return extcmd.NewAdapter(
		extcmd.WithCandidates("ticket", a.cfg.Commands.Ticket),
		extcmd.WithCandidates("workspace", a.cfg.Commands.Workspace),
	)
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// jsonOutput reports whether the effective output format is json.
func (a *app) jsonOutput() bool {
	return a.cfg.Output == "json"
}
