package clickhouse

import (
	"context"
	"fmt"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds candles for a mint. Fails entire batch on duplicate (mint, timestamp_ms).
func (s *CandleStore) InsertBulk(ctx context.Context, mint string, candles []domain.Candle) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(candles))
	minTs, maxTs := candles[0].TimestampMs, candles[0].TimestampMs
	for _, c := range candles {
		if c.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[c.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[c.TimestampMs] = struct{}{}
		minTs = min(minTs, c.TimestampMs)
		maxTs = max(maxTs, c.TimestampMs)
	}

	// Check for duplicates against existing rows in one range query
	existing, err := s.timestamps(ctx, mint, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, ts := range existing {
		if _, dup := seen[ts]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			mint, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			mint, uint64(c.TimestampMs),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves candles for a mint within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(ctx context.Context, mint string, start, end int64) ([]domain.Candle, error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return []domain.Candle{}, nil
	}

	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM candles
		WHERE mint = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// ListMints returns every mint with stored candles.
func (s *CandleStore) ListMints(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT mint FROM candles ORDER BY mint ASC`)
	if err != nil {
		return nil, fmt.Errorf("query mints: %w", err)
	}
	defer rows.Close()

	mints := make([]string, 0)
	for rows.Next() {
		var mint string
		if err := rows.Scan(&mint); err != nil {
			return nil, fmt.Errorf("scan mint: %w", err)
		}
		mints = append(mints, mint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mints: %w", err)
	}
	return mints, nil
}

// timestamps returns stored timestamps for a mint within [start, end].
func (s *CandleStore) timestamps(ctx context.Context, mint string, start, end int64) ([]int64, error) {
	query := `
		SELECT timestamp_ms FROM candles
		WHERE mint = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
	`

	rows, err := s.conn.Query(ctx, query, mint, uint64(start), uint64(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var ts uint64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, int64(ts))
	}
	return out, rows.Err()
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]domain.Candle, error) {
	candles := make([]domain.Candle, 0)

	for rows.Next() {
		var c domain.Candle
		var timestampMs uint64

		err := rows.Scan(&timestampMs, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.TimestampMs = int64(timestampMs)
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
