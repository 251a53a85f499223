package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lore/internal/spec"
)

func TestUpsert_CreateThenUpdate(t *testing.T) {
	repo := NewRepo(t.TempDir())

	created, err := repo.Upsert("go-testing", "Testing Go code.", fullBody(25), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	updated, err := repo.Upsert("go-testing", "", fullBody(26), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	// Description carries forward when the update omits it.
	assert.Equal(t, "Testing Go code.", updated.Description)
}

func TestUpsert_RejectsSnippet_LeavesFileUnchanged(t *testing.T) {
	repo := NewRepo(t.TempDir())

	_, err := repo.Upsert("deploys", "Deploy procedure.", fullBody(30), nil)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(repo.Root(), "deploys", DocFileName))
	require.NoError(t, err)

	_, err = repo.Upsert("deploys", "", "1. only the changed step\n", nil)
	require.ErrorIs(t, err, ErrUnsafeUpdate)

	after, err := os.ReadFile(filepath.Join(repo.Root(), "deploys", DocFileName))
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected update must not touch the stored document")
}

func TestUpsert_PreservesManualNotes(t *testing.T) {
	repo := NewRepo(t.TempDir())

	_, err := repo.Upsert("reviews", "Review checklist.", fullBody(20), nil)
	require.NoError(t, err)

	// A human edits the notes region by hand.
	path := filepath.Join(repo.Root(), "reviews", DocFileName)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(raw),
		"Keep your own notes below; machine updates never touch this section.",
		"NEVER approve vendored changes without a diff.", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	docBefore, err := repo.Get("reviews")
	require.NoError(t, err)

	_, err = repo.Upsert("reviews", "", fullBody(22), nil)
	require.NoError(t, err)

	docAfter, err := repo.Get("reviews")
	require.NoError(t, err)
	assert.Equal(t, docBefore.ManualNotes, docAfter.ManualNotes)
	assert.Contains(t, docAfter.ManualNotes, "NEVER approve vendored changes")
}

func TestUpsert_MetadataCarryForward(t *testing.T) {
	repo := NewRepo(t.TempDir())

	_, err := repo.Upsert("infra", "Infra runbook.", fullBody(10), &Meta{
		License:       "internal",
		Compatibility: "claude-code",
		Tags:          []string{"infra"},
	})
	require.NoError(t, err)

	updated, err := repo.Upsert("infra", "", fullBody(11), nil)
	require.NoError(t, err)
	assert.Equal(t, "internal", updated.License)
	assert.Equal(t, "claude-code", updated.Compatibility)
	assert.Equal(t, []string{"infra"}, updated.Tags)
}

func TestUpsert_InvalidName(t *testing.T) {
	repo := NewRepo(t.TempDir())
	_, err := repo.Upsert("Bad Name", "d", "body", nil)
	assert.ErrorIs(t, err, spec.ErrSlugInvalidChars)
}

func TestUpsert_EmptyBody(t *testing.T) {
	repo := NewRepo(t.TempDir())
	_, err := repo.Upsert("name", "d", "   \n", nil)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestMirror_WritesCopy(t *testing.T) {
	mirror := t.TempDir()
	repo := NewRepo(t.TempDir(), WithMirror(mirror))

	_, err := repo.Upsert("shared", "Shared skill.", fullBody(8), nil)
	require.NoError(t, err)

	primary, err := os.ReadFile(filepath.Join(repo.Root(), "shared", DocFileName))
	require.NoError(t, err)
	copied, err := os.ReadFile(filepath.Join(mirror, "shared", DocFileName))
	require.NoError(t, err)
	assert.Equal(t, primary, copied)
}

func TestMirror_FailureDoesNotRollBackPrimary(t *testing.T) {
	// A mirror path that cannot be created: a file where a dir is needed.
	blocked := filepath.Join(t.TempDir(), "mirror")
	require.NoError(t, os.WriteFile(blocked, []byte("file"), 0o644))

	repo := NewRepo(t.TempDir(), WithMirror(blocked))

	doc, err := repo.Upsert("solo", "Solo skill.", fullBody(8), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)

	got, err := repo.Get("solo")
	require.NoError(t, err)
	assert.Equal(t, doc.Body, got.Body)
}

func TestUpsert_ReturnedDocMatchesRoundTrip(t *testing.T) {
	repo := NewRepo(t.TempDir())

	doc, err := repo.Upsert("trailing", "Trailing whitespace.", fullBody(8)+"\n\n", nil)
	require.NoError(t, err)

	got, err := repo.Get("trailing")
	require.NoError(t, err)
	assert.Equal(t, doc.Body, got.Body)
	assert.Equal(t, doc.Version, got.Version)
}

func TestDeprecate_PrependsNoticeAndPreservesBody(t *testing.T) {
	repo := NewRepo(t.TempDir())
	body := fullBody(15)

	_, err := repo.Upsert("legacy", "Old procedure.", body, nil)
	require.NoError(t, err)

	doc, err := repo.Deprecate("legacy", "superseded by new-flow")
	require.NoError(t, err)
	assert.True(t, doc.Deprecated())
	assert.Contains(t, doc.Body, "superseded by new-flow")
	assert.Contains(t, doc.Body, strings.TrimRight(body, "\n"))
	assert.Equal(t, 2, doc.Version)

	// Deprecating twice is a no-op.
	again, err := repo.Deprecate("legacy", "again")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)
}

func TestScanAll_SkipsMalformedDocs(t *testing.T) {
	repo := NewRepo(t.TempDir())

	_, err := repo.Upsert("alpha", "First.", fullBody(5), nil)
	require.NoError(t, err)
	_, err = repo.Upsert("beta", "Second.", fullBody(5), nil)
	require.NoError(t, err)

	// A directory with a document missing required frontmatter.
	badDir := filepath.Join(repo.Root(), "broken")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, DocFileName), []byte("not a skill doc"), 0o644))

	docs, err := repo.ScanAll()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].Name)
	assert.Equal(t, "beta", docs[1].Name)
}

func TestGet_NotFound(t *testing.T) {
	repo := NewRepo(t.TempDir())
	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
