package storage

import (
	"context"

	"solana-signal-lab/internal/domain"
)

// CandleStore provides access to 1-minute candle storage keyed by (mint, timestamp_ms).
type CandleStore interface {
	// InsertBulk adds candles for a mint. Fails entire batch on any duplicate timestamp.
	InsertBulk(ctx context.Context, mint string, candles []domain.Candle) error

	// GetByTimeRange retrieves candles for a mint within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, mint string, start, end int64) ([]domain.Candle, error)

	// ListMints returns every mint with stored candles, sorted ASC.
	ListMints(ctx context.Context) ([]string, error)
}

// ImpactSampleStore provides access to execution-impact samples.
type ImpactSampleStore interface {
	// Insert adds a sample. Returns ErrDuplicateKey if the signature exists.
	Insert(ctx context.Context, s *domain.ImpactSample) error

	// GetByTimeRange returns impact percentages of samples within [start, end]
	// (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]float64, error)
}

// SweepResultStore provides access to sweep results.
// Trade lists are not persisted; only metrics and annotations are.
type SweepResultStore interface {
	// InsertBulk adds results atomically. Fails entire batch on any duplicate ID.
	InsertBulk(ctx context.Context, results []*domain.SweepResult) error

	// GetBySweepID retrieves all results of a sweep run, ordered by ID ASC.
	GetBySweepID(ctx context.Context, sweepID string) ([]*domain.SweepResult, error)
}
