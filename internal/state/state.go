// Package state holds the per-working-root bookkeeping record: the last
// top-level command and the autolearn counters. There is exactly one state
// file per root, and every scheduler decision goes through an atomic
// read-modify-write of it.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/boshu2/lore/internal/fsutil"
)

// Version is the current state file schema version.
const Version = 1

// CommandRecord captures the last invoked top-level command.
type CommandRecord struct {
	Name      string    `json:"name"`
	At        time.Time `json:"at"`
	SessionID string    `json:"session_id,omitempty"`
}

// AutolearnRecord captures the scheduler's bookkeeping.
type AutolearnRecord struct {
	// LastRunAt is when the last distillation run completed.
	LastRunAt time.Time `json:"last_run_at"`

	// LastRunSession is the session that triggered the last run.
	LastRunSession string `json:"last_run_session,omitempty"`

	// LastObservationCount is the observation count at the last run.
	LastObservationCount int `json:"last_observation_count"`

	// LastTailHash is the content hash of the log tail at the last run.
	LastTailHash string `json:"last_tail_hash,omitempty"`
}

// State is the singleton bookkeeping record.
type State struct {
	Version     int             `json:"version"`
	LastCommand *CommandRecord  `json:"lastCommand,omitempty"`
	Autolearn   AutolearnRecord `json:"autolearn"`
}

// Load reads the state file, returning a fresh empty state when the file
// does not exist yet.
func Load(path string) (*State, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &State{Version: Version}, nil
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if s.Version == 0 {
		s.Version = Version
	}
	return &s, nil
}

// Save writes the state file atomically.
func Save(path string, s *State) error {
	s.Version = Version
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWrite(path, data, 0o644)
}

// Update performs a read-modify-write of the state file.
func Update(path string, fn func(*State)) error {
	s, err := Load(path)
	if err != nil {
		return err
	}
	fn(s)
	return Save(path, s)
}
