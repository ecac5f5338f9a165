package memory

import (
	"context"
	"sort"
	"sync"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// ImpactSampleStore is an in-memory implementation of storage.ImpactSampleStore.
type ImpactSampleStore struct {
	mu   sync.RWMutex
	data map[string]domain.ImpactSample // keyed by signature
}

// NewImpactSampleStore creates a new in-memory impact sample store.
func NewImpactSampleStore() *ImpactSampleStore {
	return &ImpactSampleStore{
		data: make(map[string]domain.ImpactSample),
	}
}

// Insert adds a sample. Returns ErrDuplicateKey if the signature exists.
func (s *ImpactSampleStore) Insert(_ context.Context, sample *domain.ImpactSample) error {
	if sample == nil || sample.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sample.Signature]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[sample.Signature] = *sample
	return nil
}

// GetByTimeRange returns impact percentages within [start, end] (inclusive).
func (s *ImpactSampleStore) GetByTimeRange(_ context.Context, start, end int64) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.ImpactSample, 0)
	for _, sample := range s.data {
		if sample.TimestampMs >= start && sample.TimestampMs <= end {
			matched = append(matched, sample)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].TimestampMs != matched[j].TimestampMs {
			return matched[i].TimestampMs < matched[j].TimestampMs
		}
		return matched[i].Signature < matched[j].Signature
	})

	result := make([]float64, len(matched))
	for i, m := range matched {
		result[i] = m.ImpactPct
	}
	return result, nil
}

var _ storage.ImpactSampleStore = (*ImpactSampleStore)(nil)
