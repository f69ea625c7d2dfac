// Package history records executed searches for later analysis. Recording is
// best effort: the serving path logs failures and moves on.
package history

import (
	"context"
	"sync"
	"time"
)

// SearchRecord is one executed search and its headline outcome.
type SearchRecord struct {
	ID        string
	Role      string
	Location  string
	Platforms []string
	Identity  string
	Total     int
	Suggested int
	At        time.Time
}

// Store persists search records.
type Store interface {
	Record(ctx context.Context, rec SearchRecord) error
	Close()
}

// MemoryStore keeps records in memory. Used when no database is configured
// and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	records []SearchRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends the record.
func (s *MemoryStore) Record(_ context.Context, rec SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (s *MemoryStore) Records() []SearchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SearchRecord(nil), s.records...)
}

// Close is a no-op.
func (s *MemoryStore) Close() {}
