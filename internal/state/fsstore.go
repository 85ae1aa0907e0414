package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	currentFileName = "current_state.json"
	historicDirName = "historic_state"
)

// FSStore keeps snapshots under a directory: current_state.json for the
// current snapshot and historic_state/state_file_<version>.json per apply.
type FSStore struct {
	dir string
}

// NewFSStore returns a store rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, historicDirName), 0o755); err != nil {
		return nil, fmt.Errorf("state: create store dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// ReadCurrent implements Store.
func (s *FSStore) ReadCurrent(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("state: read current snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("state: decode current snapshot: %w", err)
	}
	return &snap, nil
}

// WriteCurrent implements Store.
func (s *FSStore) WriteCurrent(_ context.Context, snap *Snapshot) error {
	return s.writeFile(filepath.Join(s.dir, currentFileName), snap)
}

// WriteHistoric implements Store.
func (s *FSStore) WriteHistoric(_ context.Context, snap *Snapshot) error {
	name := fmt.Sprintf("state_file_%s.json", snap.Metadata.Version)
	return s.writeFile(filepath.Join(s.dir, historicDirName, name), snap)
}

// ListHistoric implements Store. File names are returned sorted.
func (s *FSStore) ListHistoric(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, historicDirName))
	if err != nil {
		return nil, fmt.Errorf("state: list historic snapshots: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSStore) writeFile(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("state: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("state: write snapshot: %w", err)
	}
	return nil
}
