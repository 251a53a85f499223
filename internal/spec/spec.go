// Package spec models the CompoundSpec payload: a structured batch of
// proposed memory changes, produced either by a human caller or by the
// background reasoning step. The payload is untrusted input — schema_version
// is validated before any field is interpreted, and every nested identifier
// must be a well-formed slug.
package spec

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// MaxSlugLength bounds entity identifiers (instinct ids, skill names).
const MaxSlugLength = 64

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks that id is a non-empty lowercase hyphenated slug.
func ValidateSlug(id string) error {
	if id == "" {
		return ErrEmptySlug
	}
	if len(id) > MaxSlugLength {
		return fmt.Errorf("%w: %q (max %d)", ErrSlugTooLong, id, MaxSlugLength)
	}
	if !slugPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrSlugInvalidChars, id)
	}
	return nil
}

// Spec is a single structured change payload. It is transient: its effects
// are persisted through the instinct store, the skill repository, and the
// changelog, never the payload itself.
type Spec struct {
	// SchemaVersion is 1 (skills only) or 2 (skills plus instincts).
	SchemaVersion int `json:"schema_version"`

	// Reason records why the payload was produced (provenance).
	Reason string `json:"reason,omitempty"`

	// SessionID records the originating session (provenance).
	SessionID string `json:"session_id,omitempty"`

	// Skills holds skill creates, updates, and deprecations.
	Skills *SkillChanges `json:"skills,omitempty"`

	// Instincts holds instinct creates and updates (version 2 only).
	Instincts *InstinctChanges `json:"instincts,omitempty"`

	// Documents holds document-related requests.
	Documents *DocumentChanges `json:"documents,omitempty"`

	// Changelog is an explicit one-line changelog note.
	Changelog string `json:"changelog,omitempty"`
}

// SkillChanges groups the skill operations of a payload.
type SkillChanges struct {
	Create    []SkillCreate    `json:"create,omitempty"`
	Update    []SkillUpdate    `json:"update,omitempty"`
	Deprecate []SkillDeprecate `json:"deprecate,omitempty"`
}

// SkillCreate describes a new skill document.
type SkillCreate struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Body          string   `json:"body"`
	License       string   `json:"license,omitempty"`
	Compatibility string   `json:"compatibility,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// SkillUpdate describes a full-body replacement of an existing skill.
type SkillUpdate struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags,omitempty"`
}

// SkillDeprecate marks a skill as deprecated without deleting it.
type SkillDeprecate struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// InstinctChanges groups the instinct operations of a payload.
type InstinctChanges struct {
	Create []InstinctCreate `json:"create,omitempty"`
	Update []InstinctUpdate `json:"update,omitempty"`
}

// InstinctCreate describes a new heuristic.
type InstinctCreate struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Trigger    string   `json:"trigger"`
	Action     string   `json:"action"`
	Tags       []string `json:"tags,omitempty"`
	Confidence float64  `json:"confidence"`
	Skill      string   `json:"skill,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	Evidence   string   `json:"evidence,omitempty"`
}

// InstinctUpdate describes field overwrites for an existing heuristic.
// Pointer fields distinguish "not provided" from an explicit zero value.
type InstinctUpdate struct {
	ID              string   `json:"id"`
	Title           *string  `json:"title,omitempty"`
	Trigger         *string  `json:"trigger,omitempty"`
	Action          *string  `json:"action,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Status          *string  `json:"status,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	ConfidenceDelta *float64 `json:"confidence_delta,omitempty"`
	Skill           *string  `json:"skill,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	Evidence        string   `json:"evidence,omitempty"`
}

// DocumentChanges groups document-related requests.
type DocumentChanges struct {
	// Sync requests a full document resynchronization after apply.
	Sync bool `json:"sync,omitempty"`

	// Notes are free-form memory notes forwarded to the external
	// memory-note collaborator.
	Notes []MemoryNote `json:"notes,omitempty"`
}

// MemoryNote is one note destined for the external memory collaborator.
type MemoryNote struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Parse decodes and validates a CompoundSpec payload. The schema version is
// probed first; anything that is not a known variant is rejected before any
// other field is touched.
func Parse(data []byte) (*Spec, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if probe.SchemaVersion != 1 && probe.SchemaVersion != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrSchemaVersion, probe.SchemaVersion)
	}

	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks schema version and every nested identifier.
func (s *Spec) Validate() error {
	if s.SchemaVersion != 1 && s.SchemaVersion != 2 {
		return fmt.Errorf("%w: got %d", ErrSchemaVersion, s.SchemaVersion)
	}
	if s.SchemaVersion == 1 && s.Instincts != nil {
		return ErrInstinctsNotAllowed
	}

	if s.Skills != nil {
		for _, c := range s.Skills.Create {
			if err := ValidateSlug(c.Name); err != nil {
				return fmt.Errorf("skill create: %w", err)
			}
		}
		for _, u := range s.Skills.Update {
			if err := ValidateSlug(u.Name); err != nil {
				return fmt.Errorf("skill update: %w", err)
			}
		}
		for _, d := range s.Skills.Deprecate {
			if err := ValidateSlug(d.Name); err != nil {
				return fmt.Errorf("skill deprecate: %w", err)
			}
		}
	}
	if s.Instincts != nil {
		for _, c := range s.Instincts.Create {
			if err := ValidateSlug(c.ID); err != nil {
				return fmt.Errorf("instinct create: %w", err)
			}
		}
		for _, u := range s.Instincts.Update {
			if err := ValidateSlug(u.ID); err != nil {
				return fmt.Errorf("instinct update: %w", err)
			}
		}
	}
	return nil
}

// IsEmpty reports whether the payload proposes no changes at all.
func (s *Spec) IsEmpty() bool {
	if s.Skills != nil && (len(s.Skills.Create)+len(s.Skills.Update)+len(s.Skills.Deprecate)) > 0 {
		return false
	}
	if s.Instincts != nil && (len(s.Instincts.Create)+len(s.Instincts.Update)) > 0 {
		return false
	}
	if s.Documents != nil && (s.Documents.Sync || len(s.Documents.Notes) > 0) {
		return false
	}
	return true
}
