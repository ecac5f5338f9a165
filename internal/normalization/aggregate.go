// Package normalization turns raw candle input into ordered fixed-interval series.
package normalization

import (
	"errors"
	"fmt"
	"sort"

	"solana-signal-lab/internal/domain"
)

// ErrInvalidInterval is returned for non-positive aggregation intervals.
var ErrInvalidInterval = errors.New("invalid aggregation interval")

const msPerMinute = 60_000

// Aggregate merges candles into intervalMinutes buckets aligned to the Unix epoch.
// Candles must be sorted by timestamp ASC.
//
// Per bucket:
//   - open = FIRST(open)
//   - high = MAX(high)
//   - low = MIN(low)
//   - close = LAST(close)
//   - volume = SUM(volume)
func Aggregate(candles []domain.Candle, intervalMinutes int) ([]domain.Candle, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, intervalMinutes)
	}
	if len(candles) == 0 {
		return []domain.Candle{}, nil
	}
	if intervalMinutes == 1 {
		out := make([]domain.Candle, len(candles))
		copy(out, candles)
		return out, nil
	}

	intervalMs := int64(intervalMinutes) * msPerMinute
	result := make([]domain.Candle, 0, len(candles)/intervalMinutes+1)
	var current *domain.Candle

	for _, c := range candles {
		bucket := floorTo(c.TimestampMs, intervalMs)
		if current == nil || current.TimestampMs != bucket {
			// Start new bucket
			if current != nil {
				result = append(result, *current)
			}
			current = &domain.Candle{
				TimestampMs: bucket,
				Open:        c.Open,
				High:        c.High,
				Low:         c.Low,
				Close:       c.Close,
				Volume:      c.Volume,
			}
			continue
		}
		// Merge into current bucket
		current.High = max(current.High, c.High)
		current.Low = min(current.Low, c.Low)
		current.Close = c.Close
		current.Volume += c.Volume
	}

	if current != nil {
		result = append(result, *current)
	}
	return result, nil
}

// floorTo rounds ts down to a multiple of step, also for negative ts.
func floorTo(ts, step int64) int64 {
	r := ts % step
	if r < 0 {
		r += step
	}
	return ts - r
}

// SortCandles orders candles by timestamp ASC and drops later duplicates of a
// timestamp. Returns the number of dropped candles.
func SortCandles(candles []domain.Candle) ([]domain.Candle, int) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].TimestampMs < candles[j].TimestampMs
	})

	out := candles[:0]
	dropped := 0
	for i, c := range candles {
		if i > 0 && c.TimestampMs == candles[i-1].TimestampMs {
			dropped++
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}
