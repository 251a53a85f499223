package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/fsutil"
	"github.com/boshu2/lore/internal/spec"
)

// DocFileName is the document file inside each skill directory.
const DocFileName = "SKILL.md"

const deprecationPrefix = "> **DEPRECATED**"

// Meta carries the optional metadata of an upsert.
type Meta struct {
	License       string
	Compatibility string
	Tags          []string
}

// Repo is the file-backed skill repository. The primary root is
// authoritative; an optional mirror receives a byte-identical copy of every
// successful write, best-effort.
type Repo struct {
	root      string
	mirrorDir string
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Repo.
type Option func(*Repo)

// WithMirror enables mirroring to a secondary skill location.
func WithMirror(dir string) Option {
	return func(r *Repo) { r.mirrorDir = dir }
}

// WithLogger sets the diagnostic logger.
func WithLogger(lg *zap.Logger) Option {
	return func(r *Repo) { r.logger = lg }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// NewRepo returns a repository rooted at dir.
func NewRepo(dir string, opts ...Option) *Repo {
	r := &Repo{
		root:   dir,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the primary repository directory.
func (r *Repo) Root() string { return r.root }

func (r *Repo) docPath(name string) string {
	return filepath.Join(r.root, name, DocFileName)
}

// Get loads one skill document by name.
func (r *Repo) Get(name string) (*Doc, error) {
	raw, err := os.ReadFile(r.docPath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return ParseDoc(string(raw))
}

// Upsert creates or updates a skill document.
//
// On create the document gets version 1, a generated metadata block, the
// body wrapped in managed-block delimiters, and a placeholder manual-notes
// section. On update the version increments, manual notes carry forward
// byte-for-byte, metadata fields absent from the call carry forward from
// the existing document, and the replacement body must pass the
// partial-update guard — a truncation or patch fragment is rejected with
// ErrUnsafeUpdate and nothing is written.
func (r *Repo) Upsert(name, description, body string, meta *Meta) (*Doc, error) {
	if err := spec.ValidateSlug(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	// Render trims trailing whitespace on disk; normalize up front so the
	// returned document matches what a later Get will parse back.
	body = strings.TrimRight(body, " \t\n")

	existing, err := r.Get(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// A malformed existing document blocks the update rather than
		// being silently overwritten.
		return nil, err
	}
	if errors.Is(err, ErrNotFound) {
		existing = nil
	}

	now := r.now().UTC()
	var doc *Doc
	if existing == nil {
		doc = &Doc{
			Name:        name,
			Description: description,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
			Body:        body,
		}
		if meta != nil {
			doc.License = meta.License
			doc.Compatibility = meta.Compatibility
			doc.Tags = meta.Tags
		}
	} else {
		if err := validateReplacement(existing.Body, body); err != nil {
			return nil, err
		}
		doc = existing
		doc.Version++
		doc.UpdatedAt = now
		doc.Body = body
		if description != "" {
			doc.Description = description
		}
		if meta != nil {
			if meta.License != "" {
				doc.License = meta.License
			}
			if meta.Compatibility != "" {
				doc.Compatibility = meta.Compatibility
			}
			if len(meta.Tags) > 0 {
				doc.Tags = meta.Tags
			}
		}
	}

	if err := r.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Deprecate prepends a visible deprecation notice to the managed body.
// Prior content is preserved; nothing is deleted.
func (r *Repo) Deprecate(name, reason string) (*Doc, error) {
	doc, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if doc.Deprecated() {
		return doc, nil
	}

	now := r.now().UTC()
	notice := fmt.Sprintf("%s (%s)", deprecationPrefix, now.Format("2006-01-02"))
	if reason != "" {
		notice += ": " + reason
	}
	doc.Body = notice + "\n\n" + doc.Body
	doc.Version++
	doc.UpdatedAt = now

	if err := r.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ScanAll reads every skill document under the repository root. Documents
// missing required frontmatter (name, description) or failing to parse are
// skipped, not errors. Results are sorted by name.
func (r *Repo) ScanAll() ([]*Doc, error) {
	entries, err := os.ReadDir(r.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var docs []*Doc
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(r.root, e.Name(), DocFileName))
		if err != nil {
			continue
		}
		doc, err := ParseDoc(string(raw))
		if err != nil || doc.Name == "" || doc.Description == "" {
			r.logger.Debug("skipping unparsable skill document", zap.String("dir", e.Name()))
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// save renders and writes the document atomically, then mirrors it.
// A mirror failure never rolls back the primary write.
func (r *Repo) save(doc *Doc) error {
	rendered := []byte(doc.Render())
	if err := fsutil.AtomicWrite(r.docPath(doc.Name), rendered, 0o644); err != nil {
		return fmt.Errorf("write skill %s: %w", doc.Name, err)
	}

	if r.mirrorDir != "" {
		mirrorPath := filepath.Join(r.mirrorDir, doc.Name, DocFileName)
		if err := fsutil.AtomicWrite(mirrorPath, rendered, 0o644); err != nil {
			r.logger.Warn("skill mirror write failed",
				zap.String("skill", doc.Name), zap.Error(err))
		}
	}
	return nil
}
