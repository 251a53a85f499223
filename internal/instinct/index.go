package instinct

import (
	"fmt"
	"os"
	"strings"

	"github.com/boshu2/lore/internal/fsutil"
	"github.com/boshu2/lore/internal/textblock"
)

// IndexBlockID is the managed-block id holding the generated index.
const IndexBlockID = "lore:instincts"

// DefaultIndexTop is how many instincts the index shows by default.
const DefaultIndexTop = 20

// RenderIndex renders the top-n active instincts as a human-readable
// markdown fragment: id, confidence, tags, linked skill, trigger, action.
func RenderIndex(instincts []Instinct, n int) string {
	if n > 0 && len(instincts) > n {
		instincts = instincts[:n]
	}
	if len(instincts) == 0 {
		return "_No instincts recorded yet._"
	}

	var b strings.Builder
	for _, in := range instincts {
		fmt.Fprintf(&b, "- **%s** (%.2f)", in.ID, in.Confidence)
		if len(in.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(in.Tags, ", "))
		}
		if in.Skill != "" {
			fmt.Fprintf(&b, " → skill: %s", in.Skill)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  - Trigger: %s\n", in.Trigger)
		fmt.Fprintf(&b, "  - Action: %s\n", in.Action)
	}
	return strings.TrimRight(b.String(), "\n")
}

// WriteIndex regenerates the index document at docPath through the managed
// text block engine, leaving any surrounding human prose untouched.
func (s *Store) WriteIndex(docPath string, n int) error {
	active, err := s.Active()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(docPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	doc := string(raw)
	if doc == "" {
		doc = "# Instincts\n\nGenerated index of learned heuristics.\n"
	}

	doc = textblock.Upsert(doc, IndexBlockID, RenderIndex(active, n))
	return fsutil.AtomicWrite(docPath, []byte(doc), 0o644)
}
