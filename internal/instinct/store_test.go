package instinct

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lore/internal/spec"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "instincts.json"))
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func TestApplyChanges_Create(t *testing.T) {
	s := newTestStore(t)

	created, updated, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID:         "run-tests-first",
		Title:      "Run tests before committing",
		Trigger:    "about to commit",
		Action:     "run the package tests",
		Confidence: 0.6,
		Evidence:   "seen in three sessions",
	}}, nil, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, updated)

	all, err := s.Load()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, StatusActive, all[0].Status)
	require.Len(t, all[0].Evidence, 1)
	assert.Equal(t, "sess-1", all[0].Evidence[0].SessionID)
}

func TestApplyChanges_DuplicateCreateIsNoOp(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID: "dup", Title: "Original", Trigger: "t", Action: "a", Confidence: 0.5, Evidence: "first",
	}}, nil, "sess-1")
	require.NoError(t, err)

	created, _, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID: "dup", Title: "Imposter", Trigger: "x", Action: "y", Confidence: 0.9,
	}}, nil, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	all, err := s.Load()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Original", all[0].Title)
	assert.InDelta(t, 0.5, all[0].Confidence, 1e-9)
	require.Len(t, all[0].Evidence, 1, "evidence history must be unchanged")
	assert.Equal(t, "first", all[0].Evidence[0].Note)
}

func TestApplyChanges_UpdateMissingIDIsNoOp(t *testing.T) {
	s := newTestStore(t)

	created, updated, err := s.ApplyChanges(nil, []spec.InstinctUpdate{{
		ID: "ghost", ConfidenceDelta: f64Ptr(0.2),
	}}, "sess")
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Zero(t, updated)
}

func TestApplyChanges_ConfidenceAlwaysClamped(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID: "clamped", Title: "t", Trigger: "tr", Action: "a", Confidence: 7.5,
	}}, nil, "sess")
	require.NoError(t, err)

	all, _ := s.Load()
	assert.Equal(t, 1.0, all[0].Confidence)

	// Huge negative delta clamps at zero.
	_, _, err = s.ApplyChanges(nil, []spec.InstinctUpdate{{
		ID: "clamped", ConfidenceDelta: f64Ptr(-42),
	}}, "sess")
	require.NoError(t, err)
	all, _ = s.Load()
	assert.Equal(t, 0.0, all[0].Confidence)

	// Sequence of deltas stays inside [0,1].
	for i := 0; i < 5; i++ {
		_, _, err = s.ApplyChanges(nil, []spec.InstinctUpdate{{
			ID: "clamped", ConfidenceDelta: f64Ptr(0.4),
		}}, "sess")
		require.NoError(t, err)
	}
	all, _ = s.Load()
	assert.Equal(t, 1.0, all[0].Confidence)
}

func TestApplyChanges_AbsoluteConfidenceWinsOverDelta(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID: "abs", Title: "t", Trigger: "tr", Action: "a", Confidence: 0.5,
	}}, nil, "sess")
	require.NoError(t, err)

	_, _, err = s.ApplyChanges(nil, []spec.InstinctUpdate{{
		ID: "abs", Confidence: f64Ptr(0.9), ConfidenceDelta: f64Ptr(-0.3),
	}}, "sess")
	require.NoError(t, err)

	all, _ := s.Load()
	assert.InDelta(t, 0.9, all[0].Confidence, 1e-9)
}

func TestApplyChanges_FieldOverwritesAndEvidence(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID: "evolving", Title: "old", Trigger: "tr", Action: "a", Confidence: 0.4,
	}}, nil, "sess-1")
	require.NoError(t, err)

	_, updated, err := s.ApplyChanges(nil, []spec.InstinctUpdate{{
		ID:       "evolving",
		Title:    strPtr("new title"),
		Status:   strPtr(StatusDeprecated),
		Skill:    strPtr("go-testing"),
		Evidence: "confirmed again",
	}}, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	all, _ := s.Load()
	in := all[0]
	assert.Equal(t, "new title", in.Title)
	assert.Equal(t, StatusDeprecated, in.Status)
	assert.Equal(t, "go-testing", in.Skill)
	require.Len(t, in.Evidence, 2)
	assert.Equal(t, "sess-2", in.Evidence[1].SessionID)
}

func TestApplyChanges_InvalidSlugSkipped(t *testing.T) {
	s := newTestStore(t)

	created, _, err := s.ApplyChanges([]spec.InstinctCreate{
		{ID: "Not A Slug", Title: "t", Trigger: "tr", Action: "a"},
		{ID: "valid-slug", Title: "t", Trigger: "tr", Action: "a"},
	}, nil, "sess")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestActive_SortedByConfidence(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.ApplyChanges([]spec.InstinctCreate{
		{ID: "low", Title: "l", Trigger: "t", Action: "a", Confidence: 0.2},
		{ID: "high", Title: "h", Trigger: "t", Action: "a", Confidence: 0.9},
		{ID: "mid", Title: "m", Trigger: "t", Action: "a", Confidence: 0.5},
	}, nil, "sess")
	require.NoError(t, err)

	_, _, err = s.ApplyChanges(nil, []spec.InstinctUpdate{{
		ID: "mid", Status: strPtr(StatusDeprecated),
	}}, "sess")
	require.NoError(t, err)

	active, err := s.Active()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "high", active[0].ID)
	assert.Equal(t, "low", active[1].ID)
}

func TestWriteIndex_ThroughManagedBlock(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.ApplyChanges([]spec.InstinctCreate{{
		ID: "indexed", Title: "t", Trigger: "when x", Action: "do y",
		Confidence: 0.7, Tags: []string{"go"}, Skill: "go-testing",
	}}, nil, "sess")
	require.NoError(t, err)

	docPath := filepath.Join(t.TempDir(), "INSTINCTS.md")
	require.NoError(t, os.WriteFile(docPath, []byte("# My Notes\n\nhand-written intro\n"), 0o644))

	require.NoError(t, s.WriteIndex(docPath, DefaultIndexTop))

	raw, err := os.ReadFile(docPath)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "hand-written intro")
	assert.Contains(t, content, "**indexed** (0.70) [go] → skill: go-testing")
	assert.Contains(t, content, "Trigger: when x")

	// Regenerating is idempotent.
	require.NoError(t, s.WriteIndex(docPath, DefaultIndexTop))
	raw2, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(raw2))
}

func TestLoad_MissingFile(t *testing.T) {
	s := newTestStore(t)
	all, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, all)
}
