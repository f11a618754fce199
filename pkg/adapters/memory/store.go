package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// RunStore implements ports.RunStore in memory.
// Safe for concurrent use.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord
}

// NewRunStore creates an empty store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

// Save keeps a copy of the record.
func (s *RunStore) Save(_ context.Context, record *domain.RunRecord) error {
	if record == nil || record.RunID == "" {
		return fmt.Errorf("run record missing ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.RunID] = cloneRecord(record)
	return nil
}

// Load returns a copy so callers cannot mutate the stored record.
func (s *RunStore) Load(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return cloneRecord(rec), nil
}

// Delete removes the record.
func (s *RunStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the stored run ids, sorted.
func (s *RunStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneRecord(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.NodeResults = maps.Clone(r.NodeResults)
	c.NodeStatuses = maps.Clone(r.NodeStatuses)
	c.NodeErrors = maps.Clone(r.NodeErrors)
	return &c
}
