package state

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-gamification-engine/pkg/rule"
)

// MemoryStore is an in-process state store for tests and embedded runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[rule.StateKey]rule.State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[rule.StateKey]rule.State)}
}

func (s *MemoryStore) Get(_ context.Context, key rule.StateKey) (*rule.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	// Copy out so callers never share the stored record.
	cp := st
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, key rule.StateKey, st *rule.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = *st
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key rule.StateKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
