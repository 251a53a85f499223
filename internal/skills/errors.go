package skills

import "errors"

// Sentinel errors for the skill repository. Using sentinels allows callers
// to match with errors.Is for reliable error handling.
var (
	// ErrNotFound is returned when no skill document exists for a name.
	ErrNotFound = errors.New("skill not found")

	// ErrUnsafeUpdate is returned when a proposed body looks like a
	// truncation or diff fragment instead of a complete replacement.
	// Accepting it would silently destroy accumulated procedure text, so
	// the update is rejected and nothing is written.
	ErrUnsafeUpdate = errors.New("unsafe skill update: body must be a complete replacement")

	// ErrMalformedDoc is returned when a skill document cannot be parsed.
	ErrMalformedDoc = errors.New("malformed skill document")

	// ErrEmptyBody is returned when an upsert provides no body at all.
	ErrEmptyBody = errors.New("skill body cannot be empty")
)
