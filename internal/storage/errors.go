package storage

import "errors"

// Store errors. Every store is append-only: records are keyed by
// (mint, timestamp), signature or result id and never updated.
var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert repeats an existing key.
	// Bulk inserts fail as a whole.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for nil records or records missing their key.
	ErrInvalidInput = errors.New("invalid input")
)
