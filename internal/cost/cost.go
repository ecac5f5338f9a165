// Package cost derives the round-trip trading cost charged to every backtest trade.
package cost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

// MinEmpiricalSamples is the fewest impact samples an empirical cost accepts.
const MinEmpiricalSamples = 30

// Cost errors
var (
	ErrInsufficientSamples = errors.New("insufficient impact samples for empirical cost")
	ErrInvalidCost         = errors.New("invalid cost")
)

// Fixed returns a constant round-trip cost.
func Fixed(roundTripPct float64) (domain.CostConfig, error) {
	if roundTripPct < 0 || math.IsNaN(roundTripPct) || math.IsInf(roundTripPct, 0) {
		return domain.CostConfig{}, fmt.Errorf("%w: round trip %v", ErrInvalidCost, roundTripPct)
	}
	return domain.CostConfig{Model: domain.CostModelFixed, RoundTripPct: roundTripPct}, nil
}

// EmpiricalFromSamples derives cost from execution-impact samples:
// roundTrip = 2 * (fixedFeePct + median(samples)).
// Non-finite samples are ignored before counting.
func EmpiricalFromSamples(samples []float64, fixedFeePct float64) (domain.CostConfig, error) {
	clean := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			clean = append(clean, s)
		}
	}
	if len(clean) < MinEmpiricalSamples {
		return domain.CostConfig{}, fmt.Errorf("%w: have %d, need %d",
			ErrInsufficientSamples, len(clean), MinEmpiricalSamples)
	}
	if fixedFeePct < 0 {
		return domain.CostConfig{}, fmt.Errorf("%w: fixed fee %v", ErrInvalidCost, fixedFeePct)
	}

	return domain.CostConfig{
		Model:        domain.CostModelEmpirical,
		RoundTripPct: 2 * (fixedFeePct + median(clean)),
		SampleSize:   len(clean),
	}, nil
}

// LoadEmpiricalCost reads impact samples for [fromMs, toMs] and derives an
// empirical cost. Callers decide whether to fall back to Fixed on
// ErrInsufficientSamples.
func LoadEmpiricalCost(ctx context.Context, store storage.ImpactSampleStore, fromMs, toMs int64, fixedFeePct float64) (domain.CostConfig, error) {
	samples, err := store.GetByTimeRange(ctx, fromMs, toMs)
	if err != nil {
		return domain.CostConfig{}, fmt.Errorf("load impact samples: %w", err)
	}
	return EmpiricalFromSamples(samples, fixedFeePct)
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
