package postgres

import (
	"context"
	"fmt"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// ImpactSampleStore implements storage.ImpactSampleStore using PostgreSQL.
type ImpactSampleStore struct {
	pool *Pool
}

// NewImpactSampleStore creates a new ImpactSampleStore.
func NewImpactSampleStore(pool *Pool) *ImpactSampleStore {
	return &ImpactSampleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ImpactSampleStore = (*ImpactSampleStore)(nil)

// Insert adds a sample. Returns ErrDuplicateKey if the signature exists.
func (s *ImpactSampleStore) Insert(ctx context.Context, sample *domain.ImpactSample) error {
	if sample == nil || sample.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO impact_samples (signature, mint, timestamp_ms, impact_pct)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, sample.Signature, sample.Mint, sample.TimestampMs, sample.ImpactPct)
	if err != nil {
		return writeError("insert impact sample", err)
	}
	return nil
}

// GetByTimeRange returns impact percentages within [start, end] (inclusive).
func (s *ImpactSampleStore) GetByTimeRange(ctx context.Context, start, end int64) ([]float64, error) {
	query := `
		SELECT impact_pct
		FROM impact_samples
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get impact samples by time range: %w", err)
	}
	defer rows.Close()

	result := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan impact sample: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate impact samples: %w", err)
	}
	return result, nil
}
