// Package idhash computes deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeResultID computes a deterministic sweep result id using SHA256.
// Formula: SHA256(sweep_id|template|token|timeframe_min|params|exit_mode)
// params must be the canonical sorted "k=v,k=v" string.
// Returns hex-encoded hash (64 characters).
func ComputeResultID(
	sweepID string,
	template string,
	token string,
	timeframeMin int,
	params string,
	exitMode string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		sweepID,
		template,
		token,
		timeframeMin,
		params,
		exitMode,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
