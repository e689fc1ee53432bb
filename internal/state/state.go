// Package state tracks the unit files this operator manages, so that an
// upgrade can tell its own stale units apart from anything else living in
// the systemd unit directory.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// State holds the persisted bookkeeping for the operator.
type State struct {
	// ManagedUnits is the set of unit file names (service and timer)
	// written by the last successful install.
	ManagedUnits []string `json:"managed_units,omitempty"`
}

// Load reads the state file from disk. A missing file yields an empty
// state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from operator configuration
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s := &State{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return s, nil
}

// Save writes the state to disk, creating parent directories as needed.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // Bookkeeping data, not secret
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// SetManagedUnits records the current set of managed unit names, sorted
// for stable files.
func (s *State) SetManagedUnits(units []string) {
	sorted := make([]string, len(units))
	copy(sorted, units)
	sort.Strings(sorted)
	s.ManagedUnits = sorted
}

// Contains reports whether the given unit name is managed.
func (s *State) Contains(unit string) bool {
	for _, u := range s.ManagedUnits {
		if u == unit {
			return true
		}
	}
	return false
}
