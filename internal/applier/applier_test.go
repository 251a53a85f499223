package applier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lore/internal/instinct"
	"github.com/boshu2/lore/internal/skills"
	"github.com/boshu2/lore/internal/spec"
)

const sampleBody = `Use the release checklist before every tag.

1. Run the full test suite.
2. Update the changelog.
3. Tag and push.
4. Verify the published artifact.
5. Announce in the team channel.`

type fixture struct {
	applier   *Applier
	repo      *skills.Repo
	store     *instinct.Store
	changelog string
	index     string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo := skills.NewRepo(filepath.Join(dir, "skills"))
	store := instinct.NewStore(filepath.Join(dir, "instincts.json"))
	changelog := filepath.Join(dir, "CHANGELOG.md")
	index := filepath.Join(dir, "INSTINCTS.md")
	return &fixture{
		applier:   New(repo, store, changelog, index, opts...),
		repo:      repo,
		store:     store,
		changelog: changelog,
		index:     index,
	}
}

func changelogLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func TestApplySkillLifecycle(t *testing.T) {
	f := newFixture(t)

	sum, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 1,
		Skills: &spec.SkillChanges{
			Create: []spec.SkillCreate{{
				Name:        "release-checklist",
				Description: "Cut a release safely",
				Body:        sampleBody,
				Tags:        []string{"release"},
			}},
		},
	}, ModeManual)
	require.NoError(t, err)
	require.Equal(t, []SkillAction{{Name: "release-checklist", Action: "created"}}, sum.Skills)

	doc, err := f.repo.Get("release-checklist")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)

	lines := changelogLines(t, f.changelog)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "created release-checklist")
	assert.Contains(t, lines[0], "[manual]")
}

func TestManualModeFailsFast(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.Upsert("release-checklist", "Cut a release safely", sampleBody, nil)
	require.NoError(t, err)

	// A truncated body trips the safe-update guard; the deprecate after it
	// must not run in manual mode.
	_, err = f.applier.Apply(&spec.Spec{
		SchemaVersion: 1,
		Skills: &spec.SkillChanges{
			Update: []spec.SkillUpdate{{
				Name: "release-checklist",
				Body: "1. Run the full test suite.",
			}},
			Deprecate: []spec.SkillDeprecate{{Name: "release-checklist"}},
		},
	}, ModeManual)
	require.ErrorIs(t, err, skills.ErrUnsafeUpdate)

	doc, err := f.repo.Get("release-checklist")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.False(t, doc.Deprecated())
	assert.Empty(t, changelogLines(t, f.changelog))
}

func TestAutoModeRecordsFailuresAndContinues(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.Upsert("release-checklist", "Cut a release safely", sampleBody, nil)
	require.NoError(t, err)

	sum, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 1,
		Skills: &spec.SkillChanges{
			Update: []spec.SkillUpdate{{
				Name: "release-checklist",
				Body: "1. Run the full test suite.",
			}},
			Deprecate: []spec.SkillDeprecate{{Name: "release-checklist", Reason: "retired"}},
		},
	}, ModeAuto)
	require.NoError(t, err)

	require.Len(t, sum.Failures, 1)
	assert.Contains(t, sum.Failures[0], "skill update release-checklist")
	require.Equal(t, []SkillAction{{Name: "release-checklist", Action: "deprecated"}}, sum.Skills)

	doc, err := f.repo.Get("release-checklist")
	require.NoError(t, err)
	assert.True(t, doc.Deprecated())
}

func TestAutoModeCapsBatches(t *testing.T) {
	f := newFixture(t)

	var creates []spec.SkillCreate
	for _, name := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf"} {
		creates = append(creates, spec.SkillCreate{
			Name:        name,
			Description: "Skill " + name,
			Body:        sampleBody,
		})
	}

	sum, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 1,
		Skills:        &spec.SkillChanges{Create: creates},
	}, ModeAuto)
	require.NoError(t, err)
	assert.Len(t, sum.Skills, AutoMaxSkillCreates)

	docs, err := f.repo.ScanAll()
	require.NoError(t, err)
	assert.Len(t, docs, AutoMaxSkillCreates)
}

func TestApplyInstinctsRegeneratesIndex(t *testing.T) {
	f := newFixture(t)

	sum, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 2,
		SessionID:     "sess-1",
		Instincts: &spec.InstinctChanges{
			Create: []spec.InstinctCreate{{
				ID:         "run-tests-first",
				Title:      "Run tests before review",
				Trigger:    "about to request review",
				Action:     "run the test suite locally",
				Confidence: 0.7,
			}},
		},
	}, ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.InstinctsCreated)

	raw, err := os.ReadFile(f.index)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run-tests-first")

	lines := changelogLines(t, f.changelog)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "instincts +1/~0")
}

func TestSchemaV1IgnoresInstincts(t *testing.T) {
	f := newFixture(t)

	_, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 1,
		Instincts: &spec.InstinctChanges{
			Create: []spec.InstinctCreate{{ID: "x-y", Title: "t", Trigger: "a", Action: "b"}},
		},
	}, ModeManual)
	assert.ErrorIs(t, err, spec.ErrInstinctsNotAllowed)
}

func TestNoChangeNoNoteAppendsNothing(t *testing.T) {
	f := newFixture(t)

	sum, err := f.applier.Apply(&spec.Spec{SchemaVersion: 2}, ModeAuto)
	require.NoError(t, err)
	assert.False(t, sum.Changed())
	assert.Empty(t, changelogLines(t, f.changelog))
}

func TestExplicitChangelogNoteWins(t *testing.T) {
	f := newFixture(t)

	_, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 2,
		Changelog:     "manual bookkeeping note",
	}, ModeManual)
	require.NoError(t, err)

	lines := changelogLines(t, f.changelog)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "manual bookkeeping note")
}

func TestNotesForwardedBestEffort(t *testing.T) {
	var got []spec.MemoryNote
	sink := NoteFunc(func(n spec.MemoryNote) error {
		got = append(got, n)
		return nil
	})
	f := newFixture(t, WithNoteSink(sink))

	notes := make([]spec.MemoryNote, AutoMaxNotes+3)
	for i := range notes {
		notes[i] = spec.MemoryNote{Content: "note"}
	}
	_, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 2,
		Documents:     &spec.DocumentChanges{Notes: notes},
	}, ModeAuto)
	require.NoError(t, err)
	assert.Len(t, got, AutoMaxNotes)
}

type fakeSyncer struct{ calls int }

func (f *fakeSyncer) Sync() error {
	f.calls++
	return nil
}

func TestDocumentSyncRequested(t *testing.T) {
	syncer := &fakeSyncer{}
	f := newFixture(t, WithSyncer(syncer))

	_, err := f.applier.Apply(&spec.Spec{
		SchemaVersion: 2,
		Documents:     &spec.DocumentChanges{Sync: true},
	}, ModeManual)
	require.NoError(t, err)
	assert.Equal(t, 1, syncer.calls)
}
