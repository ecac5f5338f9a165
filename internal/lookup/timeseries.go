package lookup

import (
	"errors"
	"sort"

	"solana-signal-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoCandles = errors.New("no candle data available")
)

// IndexAtOrBefore returns the index of the last candle with timestamp <= target.
// Returns -1 if every candle is after target.
// Returns ErrNoCandles if slice is empty.
// Candles must be sorted by timestamp ASC.
func IndexAtOrBefore(target int64, candles []domain.Candle) (int, error) {
	if len(candles) == 0 {
		return -1, ErrNoCandles
	}

	// First index strictly after target, minus one
	i := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs > target
	})
	return i - 1, nil
}

// CloseAtOrBefore returns the close at or before target timestamp.
// If no candle before target, returns first available close.
// Returns ErrNoCandles if slice is empty.
func CloseAtOrBefore(target int64, candles []domain.Candle) (float64, error) {
	i, err := IndexAtOrBefore(target, candles)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return candles[0].Close, nil
	}
	return candles[i].Close, nil
}

// Window returns the sub-slice of candles with from <= timestamp <= to.
// The result shares the backing array.
func Window(candles []domain.Candle, from, to int64) []domain.Candle {
	start := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs >= from
	})
	end := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs > to
	})
	if start >= end {
		return candles[:0:0]
	}
	return candles[start:end]
}
