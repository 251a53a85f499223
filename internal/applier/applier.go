// Package applier executes a CompoundSpec payload against the stores: skill
// creates, updates and deprecations, instinct changes, memory notes,
// document sync, and the changelog line, in that order. Manual invocations
// fail fast; auto (background) invocations record per-item failures and keep
// going so one bad entry never wastes a whole distillation run.
package applier

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/fsutil"
	"github.com/boshu2/lore/internal/instinct"
	"github.com/boshu2/lore/internal/skills"
	"github.com/boshu2/lore/internal/spec"
)

// Mode selects the failure policy of an apply run.
type Mode string

const (
	// ModeManual aborts on the first failure and surfaces it.
	ModeManual Mode = "manual"

	// ModeAuto records failures per item, caps batch sizes, and always
	// completes the remaining steps.
	ModeAuto Mode = "auto"
)

// Per-run caps for auto mode. Manual runs are unbounded.
const (
	AutoMaxSkillCreates    = 5
	AutoMaxSkillUpdates    = 10
	AutoMaxSkillDeprecates = 5
	AutoMaxInstinctChanges = 20
	AutoMaxNotes           = 5
)

// NoteSink receives memory notes destined for an external collaborator.
// Delivery is best-effort in every mode.
type NoteSink interface {
	Send(note spec.MemoryNote) error
}

// NoteFunc adapts a function to the NoteSink interface.
type NoteFunc func(note spec.MemoryNote) error

// Send calls f.
func (f NoteFunc) Send(note spec.MemoryNote) error { return f(note) }

// Syncer regenerates managed blocks in project documents.
type Syncer interface {
	Sync() error
}

// SkillAction records one skill touched by an apply run.
type SkillAction struct {
	Name   string `json:"name"`
	Action string `json:"action"` // created, updated, deprecated
}

// Summary reports what an apply run changed.
type Summary struct {
	Skills           []SkillAction `json:"skills,omitempty"`
	InstinctsCreated int           `json:"instincts_created"`
	InstinctsUpdated int           `json:"instincts_updated"`
	Failures         []string      `json:"failures,omitempty"`
}

// Changed reports whether any skill or instinct was actually modified.
func (s *Summary) Changed() bool {
	return len(s.Skills) > 0 || s.InstinctsCreated > 0 || s.InstinctsUpdated > 0
}

// Applier wires the stores a CompoundSpec acts on.
type Applier struct {
	repo          *skills.Repo
	store         *instinct.Store
	syncer        Syncer
	notes         NoteSink
	changelogPath string
	indexPath     string
	indexTop      int
	logger        *zap.Logger
	now           func() time.Time
}

// Option configures an Applier.
type Option func(*Applier)

// WithSyncer sets the document synchronizer invoked on documents.sync.
func WithSyncer(s Syncer) Option {
	return func(a *Applier) { a.syncer = s }
}

// WithNoteSink sets the memory-note collaborator.
func WithNoteSink(n NoteSink) Option {
	return func(a *Applier) { a.notes = n }
}

// WithIndexTop sets how many instincts the regenerated index shows.
func WithIndexTop(n int) Option {
	return func(a *Applier) { a.indexTop = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(lg *zap.Logger) Option {
	return func(a *Applier) { a.logger = lg }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(a *Applier) { a.now = now }
}

// New returns an Applier over the given stores. changelogPath receives one
// appended line per effective run; indexPath is the regenerated instinct
// index document.
func New(repo *skills.Repo, store *instinct.Store, changelogPath, indexPath string, opts ...Option) *Applier {
	a := &Applier{
		repo:          repo,
		store:         store,
		changelogPath: changelogPath,
		indexPath:     indexPath,
		indexTop:      instinct.DefaultIndexTop,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply executes the payload. In auto mode the returned error is nil unless
// bookkeeping itself fails; per-item problems land in Summary.Failures.
func (a *Applier) Apply(s *spec.Spec, mode Mode) (*Summary, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	auto := mode == ModeAuto
	sum := &Summary{}

	if err := a.applySkills(s, auto, sum); err != nil {
		return sum, err
	}
	if err := a.applyInstincts(s, auto, sum); err != nil {
		return sum, err
	}
	a.forwardNotes(s, auto, sum)
	if err := a.syncDocuments(s, auto, sum); err != nil {
		return sum, err
	}
	if err := a.appendChangelog(s, mode, sum); err != nil {
		if !auto {
			return sum, err
		}
		sum.fail("changelog: %v", err)
	}
	return sum, nil
}

func (a *Applier) applySkills(s *spec.Spec, auto bool, sum *Summary) error {
	if s.Skills == nil {
		return nil
	}

	creates := s.Skills.Create
	updates := s.Skills.Update
	deprecates := s.Skills.Deprecate
	if auto {
		creates = capSlice(creates, AutoMaxSkillCreates)
		updates = capSlice(updates, AutoMaxSkillUpdates)
		deprecates = capSlice(deprecates, AutoMaxSkillDeprecates)
	}

	for _, c := range creates {
		meta := &skills.Meta{License: c.License, Compatibility: c.Compatibility, Tags: c.Tags}
		if _, err := a.repo.Upsert(c.Name, c.Description, c.Body, meta); err != nil {
			if !auto {
				return fmt.Errorf("skill create %s: %w", c.Name, err)
			}
			sum.fail("skill create %s: %v", c.Name, err)
			continue
		}
		sum.Skills = append(sum.Skills, SkillAction{Name: c.Name, Action: "created"})
	}

	for _, u := range updates {
		meta := &skills.Meta{Tags: u.Tags}
		if _, err := a.repo.Upsert(u.Name, u.Description, u.Body, meta); err != nil {
			if !auto {
				return fmt.Errorf("skill update %s: %w", u.Name, err)
			}
			sum.fail("skill update %s: %v", u.Name, err)
			continue
		}
		sum.Skills = append(sum.Skills, SkillAction{Name: u.Name, Action: "updated"})
	}

	for _, d := range deprecates {
		if _, err := a.repo.Deprecate(d.Name, d.Reason); err != nil {
			if !auto {
				return fmt.Errorf("skill deprecate %s: %w", d.Name, err)
			}
			sum.fail("skill deprecate %s: %v", d.Name, err)
			continue
		}
		sum.Skills = append(sum.Skills, SkillAction{Name: d.Name, Action: "deprecated"})
	}
	return nil
}

func (a *Applier) applyInstincts(s *spec.Spec, auto bool, sum *Summary) error {
	if s.SchemaVersion < 2 || s.Instincts == nil {
		return nil
	}

	creates := s.Instincts.Create
	updates := s.Instincts.Update
	if auto {
		creates = capSlice(creates, AutoMaxInstinctChanges)
		updates = capSlice(updates, AutoMaxInstinctChanges)
	}

	created, updated, err := a.store.ApplyChanges(creates, updates, s.SessionID)
	if err != nil {
		if !auto {
			return fmt.Errorf("apply instincts: %w", err)
		}
		sum.fail("instincts: %v", err)
		return nil
	}
	sum.InstinctsCreated = created
	sum.InstinctsUpdated = updated

	if created+updated > 0 {
		if err := a.store.WriteIndex(a.indexPath, a.indexTop); err != nil {
			if !auto {
				return fmt.Errorf("instinct index: %w", err)
			}
			sum.fail("instinct index: %v", err)
		}
	}
	return nil
}

// forwardNotes is best-effort in every mode: the collaborator is external
// and its availability must not decide whether memory changes land.
func (a *Applier) forwardNotes(s *spec.Spec, auto bool, sum *Summary) {
	if s.Documents == nil || len(s.Documents.Notes) == 0 {
		return
	}
	if a.notes == nil {
		a.logger.Debug("memory notes dropped, no sink configured",
			zap.Int("count", len(s.Documents.Notes)))
		return
	}

	notes := s.Documents.Notes
	if auto {
		notes = capSlice(notes, AutoMaxNotes)
	}
	for _, n := range notes {
		if err := a.notes.Send(n); err != nil {
			sum.fail("memory note %q: %v", n.Title, err)
		}
	}
}

func (a *Applier) syncDocuments(s *spec.Spec, auto bool, sum *Summary) error {
	if s.Documents == nil || !s.Documents.Sync || a.syncer == nil {
		return nil
	}
	if err := a.syncer.Sync(); err != nil {
		if !auto {
			return fmt.Errorf("document sync: %w", err)
		}
		sum.fail("document sync: %v", err)
	}
	return nil
}

// appendChangelog writes one line: the payload's explicit note, or an
// auto-generated summary when something changed without a note. No change
// and no note appends nothing.
func (a *Applier) appendChangelog(s *spec.Spec, mode Mode, sum *Summary) error {
	note := strings.TrimSpace(s.Changelog)
	if note == "" {
		if !sum.Changed() {
			return nil
		}
		note = sum.describe()
	}

	line := fmt.Sprintf("- %s [%s] %s", a.now().UTC().Format(time.RFC3339), mode, note)
	return fsutil.AppendLine(a.changelogPath, []byte(line))
}

// describe renders the auto-generated changelog note.
func (s *Summary) describe() string {
	var parts []string
	for _, sk := range s.Skills {
		parts = append(parts, fmt.Sprintf("%s %s", sk.Action, sk.Name))
	}
	if s.InstinctsCreated > 0 || s.InstinctsUpdated > 0 {
		parts = append(parts, fmt.Sprintf("instincts +%d/~%d", s.InstinctsCreated, s.InstinctsUpdated))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

func (s *Summary) fail(format string, args ...any) {
	s.Failures = append(s.Failures, fmt.Sprintf(format, args...))
}

func capSlice[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
