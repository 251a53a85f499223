// Package obslog is the append-only observation log: one JSON object per
// line, recording what the agent did. Recording is best-effort — a failed
// write must never break the operation that triggered it. The log rotates
// by rename once it crosses a byte ceiling, and oversized arguments are
// redacted before they touch disk.
package obslog

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boshu2/lore/internal/fsutil"
)

const (
	// DefaultMaxLogBytes is the rotation ceiling for the active log file.
	DefaultMaxLogBytes = 1 << 20 // 1 MiB

	// DefaultHashWindow is how many recent lines feed the content hash.
	DefaultHashWindow = 50

	// hashLen is the number of hex characters kept from the window hash.
	hashLen = 16
)

// Observation is one recorded event. Records are append-only; nothing ever
// mutates or deletes them short of whole-file rotation.
type Observation struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// TS is when the event was recorded.
	TS time.Time `json:"ts"`

	// Type is the event type tag (e.g., "tool-use", "command", "idle").
	Type string `json:"type"`

	// SessionID is the conversation session the event belongs to.
	SessionID string `json:"sessionID,omitempty"`

	// Tool is the tool or command name, when the event involves one.
	Tool string `json:"tool,omitempty"`

	// OK records whether the observed action succeeded.
	OK *bool `json:"ok,omitempty"`

	// Args holds redacted argument summaries keyed by argument name.
	Args map[string]string `json:"args,omitempty"`

	// Summary is a one-line human-readable description.
	Summary string `json:"summary,omitempty"`

	// Properties carries any extra structured detail.
	Properties map[string]any `json:"properties,omitempty"`
}

// Log is a file-backed observation log.
type Log struct {
	path       string
	maxBytes   int64
	hashWindow int
	logger     *zap.Logger

	mu sync.Mutex
}

// Option configures a Log.
type Option func(*Log)

// WithMaxBytes sets the rotation ceiling.
func WithMaxBytes(n int64) Option {
	return func(l *Log) { l.maxBytes = n }
}

// WithHashWindow sets how many recent lines feed the content hash.
func WithHashWindow(n int) Option {
	return func(l *Log) { l.hashWindow = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(lg *zap.Logger) Option {
	return func(l *Log) { l.logger = lg }
}

// Open returns a Log backed by the given file path. The file is created
// lazily on first record.
func Open(path string, opts ...Option) *Log {
	l := &Log{
		path:       path,
		maxBytes:   DefaultMaxLogBytes,
		hashWindow: DefaultHashWindow,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the active log file path.
func (l *Log) Path() string { return l.path }

// Record appends one observation. Missing ID and TS fields are filled in,
// argument values are redacted, and any I/O failure is swallowed: logging
// must never abort the operation being observed.
func (l *Log) Record(obs Observation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	if obs.TS.IsZero() {
		obs.TS = time.Now().UTC()
	}
	obs.Args = redactArgs(obs.Type, obs.Tool, obs.Args)

	data, err := json.Marshal(obs)
	if err != nil {
		l.logger.Debug("observation marshal failed", zap.Error(err))
		return
	}
	if err := fsutil.AppendLine(l.path, data); err != nil {
		l.logger.Debug("observation append failed", zap.Error(err))
		return
	}
	l.rotateIfNeeded()
}

// rotateIfNeeded renames the active file with a timestamp suffix once it
// exceeds the ceiling. The rename-then-fresh-create order means a
// concurrent tail reader sees either the full old file or the new empty
// one, never a truncation.
func (l *Log) rotateIfNeeded() {
	info, err := os.Stat(l.path)
	if err != nil || info.Size() <= l.maxBytes {
		return
	}

	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	// Nanosecond precision so repeated rotations never collide on a name.
	rotated := base + "-" + time.Now().UTC().Format("20060102T150405.000000000") + ext

	if err := os.Rename(l.path, rotated); err != nil {
		l.logger.Debug("log rotation failed", zap.Error(err))
		return
	}
	l.logger.Info("observation log rotated",
		zap.String("rotated", rotated),
		zap.Int64("bytes", info.Size()))
}

// Tail returns the last n parsable records from the active file. Malformed
// lines are skipped silently. A missing file yields no records and no error.
func (l *Log) Tail(n int) ([]Observation, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var out []Observation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var obs Observation
		if err := json.Unmarshal(scanner.Bytes(), &obs); err != nil {
			continue
		}
		out = append(out, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

// Count returns the number of records in the active file plus a short
// content hash of the most recent lines. The hash is a cheap idempotence
// signal independent of the count: it changes whenever recent activity
// changes, even when the count does not grow.
func (l *Log) Count() (int, string, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_ = f.Close()
	}()

	var window []string
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		count++
		window = append(window, scanner.Text())
		if len(window) > l.hashWindow {
			window = window[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, "", err
	}
	if count == 0 {
		return 0, "", nil
	}

	h := sha256.Sum256([]byte(strings.Join(window, "\n")))
	return count, hex.EncodeToString(h[:])[:hashLen], nil
}
