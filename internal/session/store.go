package session

import (
	"maps"
	"sync"
)

// Keys of the persisted credential pair.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Store is key-value persistence that survives process restarts.
//
// Put and Delete apply all of their entries atomically.
type Store interface {
	Get(key string) (string, bool, error)
	Put(entries map[string]string) error
	Delete(keys ...string) error
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore creates a [MemoryStore] seeded with entries.
func NewMemoryStore(entries map[string]string) *MemoryStore {
	s := &MemoryStore{entries: make(map[string]string, len(entries))}
	maps.Copy(s.entries, entries)
	return s
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore) Put(entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.entries, entries)
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
