package store

import (
	"context"
	"sync"

	"github.com/BaSui01/decisionflow/decision"
)

// MemoryStore is an in-memory decision.AuditStore for tests and simple
// embedding scenarios.
type MemoryStore struct {
	mu      sync.RWMutex
	records []decision.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveRecord appends a copy of the record.
func (s *MemoryStore) SaveRecord(_ context.Context, rec *decision.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.Votes = rec.Votes.Clone()
	s.records = append(s.records, cp)
	return nil
}

// Records returns a copy of all saved records.
func (s *MemoryStore) Records() []decision.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]decision.Record, len(s.records))
	copy(out, s.records)
	return out
}
