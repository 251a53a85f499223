package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"simple", "foo", nil},
		{"hyphenated", "prefer-table-tests", nil},
		{"digits", "go-1-23-migration", nil},
		{"empty", "", ErrEmptySlug},
		{"uppercase", "Foo", ErrSlugInvalidChars},
		{"underscore", "foo_bar", ErrSlugInvalidChars},
		{"leading hyphen", "-foo", ErrSlugInvalidChars},
		{"trailing hyphen", "foo-", ErrSlugInvalidChars},
		{"double hyphen", "foo--bar", ErrSlugInvalidChars},
		{"spaces", "foo bar", ErrSlugInvalidChars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlug_TooLong(t *testing.T) {
	long := ""
	for i := 0; i < 70; i++ {
		long += "a"
	}
	assert.ErrorIs(t, ValidateSlug(long), ErrSlugTooLong)
}

func TestParse_Version2(t *testing.T) {
	payload := `{
		"schema_version": 2,
		"reason": "distillation",
		"skills": {"update": [{"name": "go-testing", "body": "full body"}]},
		"instincts": {"create": [{"id": "run-tests-first", "title": "t", "trigger": "x", "action": "y", "confidence": 0.6}]}
	}`

	s, err := Parse([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 2, s.SchemaVersion)
	require.NotNil(t, s.Instincts)
	assert.Len(t, s.Instincts.Create, 1)
}

func TestParse_Version1RejectsInstincts(t *testing.T) {
	payload := `{"schema_version": 1, "instincts": {"create": []}}`

	_, err := Parse([]byte(payload))
	assert.ErrorIs(t, err, ErrInstinctsNotAllowed)
}

func TestParse_UnknownVersion(t *testing.T) {
	for _, payload := range []string{
		`{"schema_version": 0}`,
		`{"schema_version": 3}`,
		`{}`,
	} {
		_, err := Parse([]byte(payload))
		assert.ErrorIs(t, err, ErrSchemaVersion, payload)
	}
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse([]byte("not json at all"))
	assert.ErrorIs(t, err, ErrNotJSON)
}

func TestParse_BadSlug(t *testing.T) {
	payload := `{"schema_version": 1, "skills": {"create": [{"name": "Bad Name", "description": "d", "body": "b"}]}}`

	_, err := Parse([]byte(payload))
	assert.ErrorIs(t, err, ErrSlugInvalidChars)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, (&Spec{SchemaVersion: 1}).IsEmpty())
	assert.False(t, (&Spec{SchemaVersion: 1, Documents: &DocumentChanges{Sync: true}}).IsEmpty())
	assert.False(t, (&Spec{SchemaVersion: 2, Instincts: &InstinctChanges{
		Update: []InstinctUpdate{{ID: "x"}},
	}}).IsEmpty())
}
