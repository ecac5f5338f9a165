package memory

import (
	"context"
	"sort"
	"sync"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Candle // mint -> timestamp_ms -> candle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]map[int64]domain.Candle),
	}
}

// InsertBulk adds candles for a mint. Fails entire batch on duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, mint string, candles []domain.Candle) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[mint]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[int64]struct{}, len(candles))
	for _, c := range candles {
		if _, exists := existing[c.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[c.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.TimestampMs] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int64]domain.Candle, len(candles))
		s.data[mint] = existing
	}
	for _, c := range candles {
		existing[c.TimestampMs] = c
	}
	return nil
}

// GetByTimeRange retrieves candles for a mint within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(_ context.Context, mint string, start, end int64) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Candle, 0)
	for ts, c := range s.data[mint] {
		if ts >= start && ts <= end {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

// ListMints returns every mint with stored candles.
func (s *CandleStore) ListMints(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mints := make([]string, 0, len(s.data))
	for mint := range s.data {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
