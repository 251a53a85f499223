package spec

import "errors"

// Sentinel errors for payload validation. Using sentinels allows callers to
// match with errors.Is for reliable error handling.
var (
	// ErrSchemaVersion is returned when schema_version is not 1 or 2.
	ErrSchemaVersion = errors.New("schema_version must be 1 or 2")

	// ErrInstinctsNotAllowed is returned when a version 1 payload carries an
	// instincts section.
	ErrInstinctsNotAllowed = errors.New("instincts section requires schema_version 2")

	// ErrEmptySlug is returned when an entity identifier is empty.
	ErrEmptySlug = errors.New("identifier cannot be empty")

	// ErrSlugTooLong is returned when an identifier exceeds MaxSlugLength.
	ErrSlugTooLong = errors.New("identifier too long")

	// ErrSlugInvalidChars is returned when an identifier is not a lowercase
	// hyphenated slug.
	ErrSlugInvalidChars = errors.New("identifier must be a lowercase slug (a-z, 0-9, hyphen)")

	// ErrNotJSON is returned when a payload cannot be parsed as JSON.
	ErrNotJSON = errors.New("payload is not valid JSON")
)
