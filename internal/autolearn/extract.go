package autolearn

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON means the reasoning output contained no parsable JSON object.
var ErrNoJSON = errors.New("no JSON object found in output")

// ExtractJSON pulls a single JSON object out of reasoning-step output. The
// whole text is tried first; failing that, the substring between the first
// '{' and the last '}' is tried, which tolerates prose wrapped around the
// payload.
func ExtractJSON(output string) ([]byte, error) {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	candidate := trimmed[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, ErrNoJSON
	}
	return []byte(candidate), nil
}
