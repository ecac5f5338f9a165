package normalization

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"solana-signal-lab/internal/domain"
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing csv column")

// columnAliases maps accepted header names to canonical columns.
var columnAliases = map[string]string{
	"timestamp":    "timestamp",
	"timestamp_ms": "timestamp",
	"time":         "timestamp",
	"ts":           "timestamp",
	"open":         "open",
	"high":         "high",
	"low":          "low",
	"close":        "close",
	"volume":       "volume",
	"volume_proxy": "volume",
	"count":        "volume",
}

// ParseCSV reads candles from CSV with a header row. Timestamps may be Unix
// milliseconds or RFC 3339. Volume is optional and defaults to 0.
//
// Malformed rows (bad field count, unparseable or non-finite numbers,
// high < low) and duplicate timestamps are skipped and counted, never fatal.
// The returned candles are sorted by timestamp ASC.
func ParseCSV(r io.Reader) (candles []domain.Candle, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int)
	for i, h := range header {
		if col, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := idx[col]; !dup {
				idx[col] = i
			}
		}
	}
	for _, col := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	candles = make([]domain.Candle, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("read csv: %w", err)
		}

		c, ok := parseRow(record, idx)
		if !ok {
			skipped++
			continue
		}
		candles = append(candles, c)
	}

	candles, dropped := SortCandles(candles)
	return candles, skipped + dropped, nil
}

func parseRow(record []string, idx map[string]int) (domain.Candle, bool) {
	field := func(col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}
	num := func(col string) (float64, bool) {
		s, ok := field(col)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}

	var c domain.Candle
	tsField, ok := field("timestamp")
	if !ok {
		return c, false
	}
	ts, ok := parseTimestamp(tsField)
	if !ok {
		return c, false
	}
	c.TimestampMs = ts

	var ok1, ok2, ok3, ok4 bool
	c.Open, ok1 = num("open")
	c.High, ok2 = num("high")
	c.Low, ok3 = num("low")
	c.Close, ok4 = num("close")
	if !ok1 || !ok2 || !ok3 || !ok4 || c.High < c.Low {
		return c, false
	}

	if _, present := idx["volume"]; present {
		v, ok := num("volume")
		if !ok || v < 0 {
			return c, false
		}
		c.Volume = v
	}
	return c, true
}

func parseTimestamp(s string) (int64, bool) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}
