// Package docsync regenerates the managed index blocks that lore keeps
// inside project documents. Everything outside the blocks belongs to the
// humans; a sync touches only the delimited regions.
package docsync

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/fsutil"
	"github.com/boshu2/lore/internal/instinct"
	"github.com/boshu2/lore/internal/skills"
	"github.com/boshu2/lore/internal/textblock"
)

// SkillsBlockID is the managed-block id holding the skill index.
const SkillsBlockID = "lore:skills"

// Syncer regenerates index blocks in configured target documents.
type Syncer struct {
	repo    *skills.Repo
	store   *instinct.Store
	targets []string
	top     int
	logger  *zap.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithTop sets how many instincts the instinct block shows.
func WithTop(n int) Option {
	return func(s *Syncer) { s.top = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Syncer) { s.logger = lg }
}

// New returns a Syncer over the given repositories and target documents.
func New(repo *skills.Repo, store *instinct.Store, targets []string, opts ...Option) *Syncer {
	s := &Syncer{
		repo:    repo,
		store:   store,
		targets: targets,
		top:     instinct.DefaultIndexTop,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RenderSkills renders the skill index as a markdown fragment.
func RenderSkills(docs []*skills.Doc) string {
	if len(docs) == 0 {
		return "_No skills recorded yet._"
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "- **%s** (v%d): %s", d.Name, d.Version, d.Description)
		if d.Deprecated() {
			b.WriteString(" _(deprecated)_")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Sync regenerates both index blocks in every target document. A target that
// does not exist yet is created with a minimal heading. Failures on one
// target do not stop the others; the first error is returned.
func (s *Syncer) Sync() error {
	docs, err := s.repo.ScanAll()
	if err != nil {
		return fmt.Errorf("scan skills: %w", err)
	}
	active, err := s.store.Active()
	if err != nil {
		return fmt.Errorf("load instincts: %w", err)
	}

	skillsBlock := RenderSkills(docs)
	instinctBlock := instinct.RenderIndex(active, s.top)

	var firstErr error
	for _, target := range s.targets {
		if err := s.syncOne(target, skillsBlock, instinctBlock); err != nil {
			s.logger.Warn("document sync failed", zap.String("target", target), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Syncer) syncOne(path, skillsBlock, instinctBlock string) error {
	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	doc := string(raw)
	if doc == "" {
		doc = "# Project Knowledge\n"
	}

	doc = textblock.Upsert(doc, SkillsBlockID, skillsBlock)
	doc = textblock.Upsert(doc, instinct.IndexBlockID, instinctBlock)
	return fsutil.AtomicWrite(path, []byte(doc), 0o644)
}
