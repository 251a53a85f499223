// Package instinct is the heuristic database: small trigger→action rules
// with a confidence score, accumulated over many distillation cycles.
// Instincts are never hard-deleted, only marked deprecated, and their ids
// are immutable once created.
package instinct

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/fsutil"
	"github.com/boshu2/lore/internal/spec"
)

// Status values for an instinct.
const (
	StatusActive     = "active"
	StatusDeprecated = "deprecated"
)

// storeVersion is the schema version of the store file.
const storeVersion = 1

// Evidence is one observation supporting an instinct.
type Evidence struct {
	TS        time.Time `json:"ts"`
	SessionID string    `json:"session_id,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// Instinct is a single heuristic.
type Instinct struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Trigger    string     `json:"trigger"`
	Action     string     `json:"action"`
	Tags       []string   `json:"tags,omitempty"`
	Confidence float64    `json:"confidence"`
	Status     string     `json:"status"`
	Skill      string     `json:"skill,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}

// storeFile is the on-disk shape: {"version": 1, "instincts": [...]}.
type storeFile struct {
	Version   int        `json:"version"`
	Instincts []Instinct `json:"instincts"`
}

// Store is the file-backed instinct database.
type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.logger = lg }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store backed by the given JSON file.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

// Load reads every instinct. A missing file yields an empty list.
func (s *Store) Load() ([]Instinct, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f storeFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse instinct store: %w", err)
	}
	return f.Instincts, nil
}

// save writes the whole store atomically.
func (s *Store) save(instincts []Instinct) error {
	data, err := json.MarshalIndent(storeFile{Version: storeVersion, Instincts: instincts}, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(s.path, data, 0o644)
}

// ApplyChanges applies a batch of creates and updates and persists the
// store once. Creating an id that already exists is a no-op (first writer
// wins); updating an id that does not exist is a no-op. Confidence is
// clamped to [0,1] after every write. Returns how many records were
// created and updated.
func (s *Store) ApplyChanges(creates []spec.InstinctCreate, updates []spec.InstinctUpdate, sessionID string) (created, updated int, err error) {
	instincts, err := s.Load()
	if err != nil {
		return 0, 0, err
	}

	index := make(map[string]int, len(instincts))
	for i, in := range instincts {
		index[in.ID] = i
	}
	now := s.now().UTC()

	for _, c := range creates {
		if err := spec.ValidateSlug(c.ID); err != nil {
			s.logger.Warn("skipping instinct create", zap.String("id", c.ID), zap.Error(err))
			continue
		}
		if _, exists := index[c.ID]; exists {
			continue
		}
		in := Instinct{
			ID:         c.ID,
			Title:      c.Title,
			Trigger:    c.Trigger,
			Action:     c.Action,
			Tags:       c.Tags,
			Confidence: clamp(c.Confidence),
			Status:     StatusActive,
			Skill:      c.Skill,
			Notes:      c.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
			Evidence: []Evidence{{
				TS:        now,
				SessionID: sessionID,
				Note:      c.Evidence,
			}},
		}
		index[in.ID] = len(instincts)
		instincts = append(instincts, in)
		created++
	}

	for _, u := range updates {
		i, exists := index[u.ID]
		if !exists {
			continue
		}
		in := &instincts[i]
		if u.Title != nil {
			in.Title = *u.Title
		}
		if u.Trigger != nil {
			in.Trigger = *u.Trigger
		}
		if u.Action != nil {
			in.Action = *u.Action
		}
		if len(u.Tags) > 0 {
			in.Tags = u.Tags
		}
		if u.Status != nil && (*u.Status == StatusActive || *u.Status == StatusDeprecated) {
			in.Status = *u.Status
		}
		if u.Skill != nil {
			in.Skill = *u.Skill
		}
		if u.Notes != nil {
			in.Notes = *u.Notes
		}
		switch {
		case u.Confidence != nil:
			// Absolute confidence wins over a delta when both are given.
			in.Confidence = clamp(*u.Confidence)
		case u.ConfidenceDelta != nil:
			in.Confidence = clamp(in.Confidence + *u.ConfidenceDelta)
		}
		if u.Evidence != "" {
			in.Evidence = append(in.Evidence, Evidence{
				TS:        now,
				SessionID: sessionID,
				Note:      u.Evidence,
			})
		}
		in.UpdatedAt = now
		updated++
	}

	if created == 0 && updated == 0 {
		return 0, 0, nil
	}
	if err := s.save(instincts); err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

// Active returns non-deprecated instincts sorted by confidence descending,
// ties broken by id.
func (s *Store) Active() ([]Instinct, error) {
	all, err := s.Load()
	if err != nil {
		return nil, err
	}
	var active []Instinct
	for _, in := range all {
		if in.Status != StatusDeprecated {
			active = append(active, in)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Confidence != active[j].Confidence {
			return active[i].Confidence > active[j].Confidence
		}
		return active[i].ID < active[j].ID
	})
	return active, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
