package vectorstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store implementation. Safe for concurrent
// use across analysis runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Upsert inserts or replaces a record by ID.
func (s *MemoryStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// Query performs a brute-force cosine similarity search.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		if !filter.Matches(rec) {
			continue
		}
		matches = append(matches, Match{
			Record:     rec,
			Similarity: CosineSimilarity(vector, rec.Embedding),
		})
	}

	return rankMatches(matches, topK), nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close clears the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	return nil
}
