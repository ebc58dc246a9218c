// Package localstore provides the local persistence port for quest state.
//
// The reconciler never touches disk directly; it talks to the Store
// interface, which keeps the merge logic testable against an in-memory fake
// and keeps all file-format concerns in one place.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brendonchen/questsync/internal/quest"
)

// State is everything the client persists locally: the current day's record
// plus the remote-owned day counter, the cached history, and identity.
type State struct {
	Quest      *quest.Record        `json:"quest"`
	TotalDays  int                  `json:"totalDays"`
	History    []quest.HistoryEntry `json:"history,omitempty"`
	PlayerName string               `json:"playerName,omitempty"`
	AppVersion string               `json:"appVersion,omitempty"`
}

// Store is the local persistence port.
//
// Load returns (nil, nil) when nothing has been persisted yet; callers treat
// that as first use. Save replaces the whole state atomically from the
// caller's point of view.
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// FileStore persists state as a single pretty-printed JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the given file path. The parent
// directory is created on the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the state file. A missing file is first use, not an
// error.
func (s *FileStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}

	return &state, nil
}

// Save writes the state file, creating the parent directory if needed. The
// write goes through a temp file and rename so a crash mid-write never
// leaves a torn state file behind.
func (s *FileStore) Save(state *State) error {
	if state == nil {
		return fmt.Errorf("cannot save nil state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file %s: %w", s.path, err)
	}

	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu    sync.Mutex
	state *State
	saves int
}

// NewMemStore creates an empty in-memory store, optionally seeded.
func NewMemStore(seed *State) *MemStore {
	return &MemStore{state: seed}
}

// Load implements Store.
func (s *MemStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	// Copy the record so tests catch accidental in-place mutation.
	cp := *s.state
	cp.Quest = s.state.Quest.Clone()
	return &cp, nil
}

// Save implements Store.
func (s *MemStore) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	cp.Quest = state.Quest.Clone()
	s.state = &cp
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
