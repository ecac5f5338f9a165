package regime

import (
	"math"

	"solana-signal-lab/internal/domain"
)

// InitialState is the state of a token before its first refresh.
func InitialState() domain.RegimeState {
	return domain.RegimeState{Confirmed: domain.RegimeSideways}
}

// InBuffer reports whether score sits strictly inside the noise band of either threshold.
func InBuffer(score float64, cfg Config) bool {
	return math.Abs(score-cfg.UptrendScore) < cfg.Buffer ||
		math.Abs(score-cfg.DowntrendScore) < cfg.Buffer
}

// Transition applies one refresh cycle to state and returns the new state.
//
//   - raw equal to the confirmed regime clears any pending transition
//   - a score inside the buffer band cancels any pending transition
//   - otherwise raw becomes (or stays) pending and is confirmed once it has
//     been seen ConfirmCycles times in a row
//
// A confirmed regime is never reset by buffer noise alone.
// LastUpdated is left to the caller.
func Transition(state domain.RegimeState, raw domain.Regime, score float64, cfg Config) domain.RegimeState {
	next := state
	next.LastScore = score
	if next.Confirmed == "" {
		next.Confirmed = domain.RegimeSideways
	}

	switch {
	case raw == next.Confirmed:
		next.Pending, next.PendingCount = "", 0
	case InBuffer(score, cfg):
		next.Pending, next.PendingCount = "", 0
	default:
		if raw == next.Pending {
			next.PendingCount++
		} else {
			next.Pending, next.PendingCount = raw, 1
		}
		if next.PendingCount >= cfg.ConfirmCycles {
			next.Confirmed = raw
			next.Pending, next.PendingCount = "", 0
		}
	}
	return next
}
