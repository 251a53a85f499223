// Package skills is the versioned skill repository. Each skill lives in its
// own directory as a SKILL.md: a frontmatter header, a machine-owned body
// wrapped in managed-block delimiters, and a trailing human-owned notes
// region that machine updates preserve byte-for-byte. Updates are whole-body
// replacements only; anything that looks like a snippet or a patch is
// rejected before it reaches disk.
package skills

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boshu2/lore/internal/textblock"
)

// BodyBlockID is the managed-block id wrapping the machine-owned body.
const BodyBlockID = "skill"

// manualNotesPlaceholder seeds the human-owned region on first write.
const manualNotesPlaceholder = "\n\n## Manual Notes\n\nKeep your own notes below; machine updates never touch this section.\n"

// Doc is one parsed skill document.
type Doc struct {
	// Name is the skill's slug identity (also its directory name).
	Name string

	// Description is the one-line summary from the header.
	Description string

	// License is the declared license, if any.
	License string

	// Compatibility declares which agent runtimes the skill targets.
	Compatibility string

	// Version increments on every write.
	Version int

	// CreatedAt and UpdatedAt come from the metadata map.
	CreatedAt time.Time
	UpdatedAt time.Time

	// Tags are free-form labels.
	Tags []string

	// Body is the machine-owned managed body (inside the delimiters).
	Body string

	// ManualNotes is the raw human-owned text after the managed region,
	// preserved verbatim across updates.
	ManualNotes string
}

// Deprecated reports whether the body carries a deprecation notice.
func (d *Doc) Deprecated() bool {
	return strings.HasPrefix(d.Body, deprecationPrefix)
}

// Render serializes the document. The header uses a fixed two-section
// grammar (key: value lines plus one nested metadata map) rather than
// general-purpose YAML so the update safety checks stay decidable.
func (d *Doc) Render() string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "name: %s\n", d.Name)
	fmt.Fprintf(&b, "description: %s\n", sanitizeHeaderValue(d.Description))
	if d.License != "" {
		fmt.Fprintf(&b, "license: %s\n", sanitizeHeaderValue(d.License))
	}
	if d.Compatibility != "" {
		fmt.Fprintf(&b, "compatibility: %s\n", sanitizeHeaderValue(d.Compatibility))
	}
	b.WriteString("metadata:\n")
	fmt.Fprintf(&b, "  created_at: %s\n", d.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  updated_at: %s\n", d.UpdatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  version: %d\n", d.Version)
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "  tags: %s\n", strings.Join(d.Tags, ", "))
	}
	b.WriteString("---\n\n")

	b.WriteString(textblock.BeginMarker(BodyBlockID))
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(d.Body, " \t\n"))
	b.WriteString("\n")
	b.WriteString(textblock.EndMarker(BodyBlockID))

	notes := d.ManualNotes
	if notes == "" {
		notes = manualNotesPlaceholder
	}
	b.WriteString(notes)
	return b.String()
}

// ParseDoc parses a serialized skill document.
func ParseDoc(raw string) (*Doc, error) {
	header, rest, err := splitHeader(raw)
	if err != nil {
		return nil, err
	}

	doc := &Doc{}
	meta := map[string]string{}
	inMeta := false
	for _, line := range strings.Split(header, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indented := strings.HasPrefix(line, "  ")
		if inMeta && indented {
			k, v, ok := splitKeyValue(strings.TrimSpace(line))
			if ok {
				meta[k] = v
			}
			continue
		}
		inMeta = false
		k, v, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		switch k {
		case "name":
			doc.Name = v
		case "description":
			doc.Description = v
		case "license":
			doc.License = v
		case "compatibility":
			doc.Compatibility = v
		case "metadata":
			inMeta = true
		}
	}

	if ts, ok := meta["created_at"]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			doc.CreatedAt = t
		}
	}
	if ts, ok := meta["updated_at"]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			doc.UpdatedAt = t
		}
	}
	if vs, ok := meta["version"]; ok {
		if v, err := strconv.Atoi(vs); err == nil {
			doc.Version = v
		}
	}
	if tags, ok := meta["tags"]; ok {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				doc.Tags = append(doc.Tags, t)
			}
		}
	}

	begin := textblock.BeginMarker(BodyBlockID)
	end := textblock.EndMarker(BodyBlockID)
	i := strings.Index(rest, begin)
	j := strings.Index(rest, end)
	if i < 0 || j < 0 || i >= j {
		return nil, fmt.Errorf("%w: missing managed body delimiters", ErrMalformedDoc)
	}
	body := rest[i+len(begin) : j]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")
	doc.Body = body
	doc.ManualNotes = rest[j+len(end):]

	return doc, nil
}

// splitHeader separates the frontmatter header from the rest of the file.
func splitHeader(raw string) (header, rest string, err error) {
	if !strings.HasPrefix(raw, "---\n") {
		return "", "", fmt.Errorf("%w: missing frontmatter header", ErrMalformedDoc)
	}
	body := raw[len("---\n"):]
	idx := strings.Index(body, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: unterminated frontmatter header", ErrMalformedDoc)
	}
	header = body[:idx]
	rest = body[idx+len("\n---"):]
	rest = strings.TrimPrefix(rest, "\n")
	return header, rest, nil
}

// splitKeyValue splits a "key: value" header line. Surrounding quotes on
// the value are stripped.
func splitKeyValue(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key = strings.TrimSpace(parts[0])
	value = strings.Trim(strings.TrimSpace(parts[1]), "\"'")
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// sanitizeHeaderValue keeps header values single-line so the two-section
// grammar round-trips.
func sanitizeHeaderValue(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}
