package memory

import (
	"context"
	"sort"
	"sync"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// SweepResultStore is an in-memory implementation of storage.SweepResultStore.
type SweepResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SweepResult // keyed by result ID
}

// NewSweepResultStore creates a new in-memory sweep result store.
func NewSweepResultStore() *SweepResultStore {
	return &SweepResultStore{
		data: make(map[string]*domain.SweepResult),
	}
}

// InsertBulk adds results atomically. Fails entire batch on any duplicate ID.
func (s *SweepResultStore) InsertBulk(_ context.Context, results []*domain.SweepResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.ID == "" || r.SweepID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ID] = struct{}{}
	}

	for _, r := range results {
		s.data[r.ID] = cloneResult(r)
	}
	return nil
}

// GetBySweepID retrieves all results of a sweep run, ordered by ID ASC.
func (s *SweepResultStore) GetBySweepID(_ context.Context, sweepID string) ([]*domain.SweepResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SweepResult, 0)
	for _, r := range s.data {
		if r.SweepID == sweepID {
			result = append(result, cloneResult(r))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// cloneResult copies a result without its trade list, matching persistent stores.
func cloneResult(r *domain.SweepResult) *domain.SweepResult {
	c := *r
	c.Trades = nil
	if r.Params != nil {
		c.Params = make(map[string]float64, len(r.Params))
		for k, v := range r.Params {
			c.Params[k] = v
		}
	}
	return &c
}

var _ storage.SweepResultStore = (*SweepResultStore)(nil)
