package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// SweepResultStore implements storage.SweepResultStore using PostgreSQL.
// Params, metrics and annotation are stored as JSONB.
type SweepResultStore struct {
	pool *Pool
}

// NewSweepResultStore creates a new SweepResultStore.
func NewSweepResultStore(pool *Pool) *SweepResultStore {
	return &SweepResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SweepResultStore = (*SweepResultStore)(nil)

// InsertBulk adds results atomically. Fails entire batch on any duplicate ID.
func (s *SweepResultStore) InsertBulk(ctx context.Context, results []*domain.SweepResult) error {
	if len(results) == 0 {
		return nil
	}

	for _, r := range results {
		if r == nil || r.ID == "" || r.SweepID == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO sweep_results (
			id, sweep_id, template, token, timeframe_min, exit_mode,
			params, param_string, metrics, annotation, eligible, rank
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)
	`

	return s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		for _, r := range results {
			params, metrics, annotation, err := encodeResultJSON(r)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, query,
				r.ID, r.SweepID, r.Template, r.Token, r.TimeframeMin, r.ExitMode,
				params, r.ParamString, metrics, annotation, r.Eligible, r.Rank,
			)
			if err != nil {
				return writeError("insert sweep result", err)
			}
		}
		return nil
	})
}

// GetBySweepID retrieves all results of a sweep run, ordered by ID ASC.
func (s *SweepResultStore) GetBySweepID(ctx context.Context, sweepID string) ([]*domain.SweepResult, error) {
	query := `
		SELECT
			id, sweep_id, template, token, timeframe_min, exit_mode,
			params, param_string, metrics, annotation, eligible, rank
		FROM sweep_results
		WHERE sweep_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("get sweep results by sweep id: %w", err)
	}
	defer rows.Close()

	return scanSweepResults(rows)
}

func encodeResultJSON(r *domain.SweepResult) (params, metrics, annotation []byte, err error) {
	if params, err = json.Marshal(r.Params); err != nil {
		return nil, nil, nil, fmt.Errorf("encode params: %w", err)
	}
	if metrics, err = json.Marshal(r.Metrics); err != nil {
		return nil, nil, nil, fmt.Errorf("encode metrics: %w", err)
	}
	if annotation, err = json.Marshal(r.Annotation); err != nil {
		return nil, nil, nil, fmt.Errorf("encode annotation: %w", err)
	}
	return params, metrics, annotation, nil
}

// scanSweepResults scans multiple rows into a slice.
func scanSweepResults(rows pgx.Rows) ([]*domain.SweepResult, error) {
	results := make([]*domain.SweepResult, 0)
	for rows.Next() {
		var r domain.SweepResult
		var params, metrics, annotation []byte
		err := rows.Scan(
			&r.ID, &r.SweepID, &r.Template, &r.Token, &r.TimeframeMin, &r.ExitMode,
			&params, &r.ParamString, &metrics, &annotation, &r.Eligible, &r.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sweep result: %w", err)
		}
		if err := json.Unmarshal(params, &r.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		if err := json.Unmarshal(annotation, &r.Annotation); err != nil {
			return nil, fmt.Errorf("decode annotation: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep results: %w", err)
	}
	return results, nil
}
