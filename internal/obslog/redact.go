package obslog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// RedactThreshold is the argument length beyond which values are
	// replaced with a preview.
	RedactThreshold = 256

	// RedactPreviewLen is how many leading characters the preview keeps.
	RedactPreviewLen = 64

	// redactHashLen is the number of hex characters of the content hash
	// kept in the placeholder.
	redactHashLen = 12
)

// mutatingTools are tool names whose arguments may carry large payloads
// (file contents, shell scripts) worth redacting.
var mutatingTools = map[string]bool{
	"write": true,
	"edit":  true,
	"patch": true,
	"bash":  true,
	"shell": true,
	"exec":  true,
}

// redactArgs replaces oversized argument values of write/edit/shell-like
// events with a fixed-length preview plus length and content hash. The log
// stays small and never holds large payloads or secrets verbatim.
func redactArgs(eventType, tool string, args map[string]string) map[string]string {
	if len(args) == 0 {
		return args
	}
	if !isMutating(eventType) && !isMutating(tool) {
		return args
	}

	out := make(map[string]string, len(args))
	for k, v := range args {
		if len(v) <= RedactThreshold {
			out[k] = v
			continue
		}
		h := sha256.Sum256([]byte(v))
		out[k] = fmt.Sprintf("%s… [len=%d sha256=%s]",
			previewOf(v), len(v), hex.EncodeToString(h[:])[:redactHashLen])
	}
	return out
}

// previewOf cuts the value at the preview length, backed off to a rune
// boundary so the placeholder stays valid UTF-8.
func previewOf(v string) string {
	n := RedactPreviewLen
	for n > 0 && !utf8.RuneStart(v[n]) {
		n--
	}
	return v[:n]
}

func isMutating(name string) bool {
	return mutatingTools[strings.ToLower(name)]
}
