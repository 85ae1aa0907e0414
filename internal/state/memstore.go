package state

import (
	"context"
	"sort"
)

// MemStore is an in-memory Store for tests and callers that do not want
// anything on disk.
type MemStore struct {
	current  *Snapshot
	historic map[string]*Snapshot
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{historic: make(map[string]*Snapshot)}
}

// ReadCurrent implements Store.
func (s *MemStore) ReadCurrent(_ context.Context) (*Snapshot, error) {
	if s.current == nil {
		return nil, ErrNotFound
	}
	return s.current, nil
}

// WriteCurrent implements Store.
func (s *MemStore) WriteCurrent(_ context.Context, snap *Snapshot) error {
	s.current = snap
	return nil
}

// WriteHistoric implements Store.
func (s *MemStore) WriteHistoric(_ context.Context, snap *Snapshot) error {
	s.historic[snap.Metadata.Version] = snap
	return nil
}

// ListHistoric implements Store.
func (s *MemStore) ListHistoric(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.historic))
	for version := range s.historic {
		names = append(names, "state_file_"+version+".json")
	}
	sort.Strings(names)
	return names, nil
}
