// Package textblock maintains machine-owned delimited regions inside
// otherwise human-edited text documents. A block is bounded by
// "<!-- BEGIN:<id> -->" and "<!-- END:<id> -->" markers; Upsert replaces the
// region's content in place, or appends a fresh block when the markers are
// missing, so generated indexes can live inside freely-edited files without
// ever touching the surrounding prose.
package textblock

import "strings"

// BeginMarker returns the opening delimiter for a block id.
func BeginMarker(id string) string {
	return "<!-- BEGIN:" + id + " -->"
}

// EndMarker returns the closing delimiter for a block id.
func EndMarker(id string) string {
	return "<!-- END:" + id + " -->"
}

// Upsert returns doc with the block identified by id containing exactly
// content (trailing whitespace trimmed). When the delimiters are present
// exactly once and well-ordered, only the region between them changes and
// every other byte of doc is preserved. Otherwise the block is appended at
// the end with blank-line separation; a document with duplicated or
// reversed markers is treated as if the markers were absent. The operation
// is idempotent and cannot fail.
func Upsert(doc, id, content string) string {
	content = strings.TrimRight(content, " \t\n")
	begin := BeginMarker(id)
	end := EndMarker(id)
	block := begin + "\n" + content + "\n" + end

	if strings.Count(doc, begin) == 1 && strings.Count(doc, end) == 1 {
		i := strings.Index(doc, begin)
		j := strings.Index(doc, end)
		if i < j {
			return doc[:i] + block + doc[j+len(end):]
		}
	}

	trimmed := strings.TrimRight(doc, "\n")
	if trimmed == "" {
		return block + "\n"
	}
	return trimmed + "\n\n" + block + "\n"
}

// Extract returns the inner content of the block identified by id, and
// whether a well-formed block was found.
func Extract(doc, id string) (string, bool) {
	begin := BeginMarker(id)
	end := EndMarker(id)
	if strings.Count(doc, begin) != 1 || strings.Count(doc, end) != 1 {
		return "", false
	}
	i := strings.Index(doc, begin)
	j := strings.Index(doc, end)
	if i >= j {
		return "", false
	}
	inner := doc[i+len(begin) : j]
	inner = strings.TrimPrefix(inner, "\n")
	inner = strings.TrimSuffix(inner, "\n")
	return inner, true
}
