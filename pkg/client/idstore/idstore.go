package idstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage keys for discovered identifiers. The stored values are a
// cache, not a source of truth: load them at startup, then revalidate
// by fetching before trusting them.
const (
	KeyGameID        = "splitsecond.gameId"
	KeyLeaderboardID = "splitsecond.leaderboardId"
)

// Store persists discovered identifiers across sessions in a JSON file.
type Store struct {
	lock   sync.Mutex
	path   string
	values map[string]string
}

// Load reads the store at path, starting empty if the file is missing
// or unreadable.
func Load(path string) *Store {
	s := &Store{
		path:   path,
		values: make(map[string]string),
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	// a corrupt cache file is discarded, not fatal
	_ = json.Unmarshal(b, &s.values)
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s
}

// Get returns the stored value for key, if any.
func (s *Store) Get(key string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	v, ok := s.values[key]
	return v, ok && v != ""
}

// Set stores a value and writes the file.
func (s *Store) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return s.save()
}

// Delete removes a stored value and writes the file.
func (s *Store) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values, key)
	return s.save()
}

func (s *Store) save() error {
	b, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal id store: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create id store directory: %v", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write id store: %v", err)
	}
	return nil
}
