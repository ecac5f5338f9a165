package indicators

import (
	"errors"
	"sync"

	"solana-signal-lab/internal/domain"
)

// ErrUnknownKind is returned when a Spec names an unsupported indicator.
var ErrUnknownKind = errors.New("unknown indicator kind")

// Snapshot maps indicator output keys to values at one candle index.
// Unavailable indicators are absent.
type Snapshot map[string]float64

// Get returns a value and whether it is present.
func (s Snapshot) Get(key string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s[key]
	return v, ok
}

// Frame holds a candle series and the indicator series computed over it.
// Each Spec is computed once over the full series and then read by index.
// Frame is safe for concurrent use.
type Frame struct {
	candles []domain.Candle
	highs   []float64
	lows    []float64
	closes  []float64
	volumes []float64

	mu     sync.Mutex
	series map[string]Series // keyed by output key
}

// NewFrame creates a Frame over candles. The slice must not be modified afterwards.
func NewFrame(candles []domain.Candle) *Frame {
	return &Frame{
		candles: candles,
		highs:   domain.Highs(candles),
		lows:    domain.Lows(candles),
		closes:  domain.Closes(candles),
		volumes: domain.Volumes(candles),
		series:  make(map[string]Series),
	}
}

// Len returns the number of candles.
func (f *Frame) Len() int {
	return len(f.candles)
}

// Candles returns the underlying candles.
func (f *Frame) Candles() []domain.Candle {
	return f.candles
}

// Ensure computes every spec not yet cached.
func (f *Frame) Ensure(specs ...Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, spec := range specs {
		outs := spec.Outputs()
		if _, ok := f.series[outs[0]]; ok {
			continue
		}
		computed, err := spec.Compute(f.highs, f.lows, f.closes, f.volumes)
		if err != nil {
			return err
		}
		for i, key := range outs {
			f.series[key] = computed[i]
		}
	}
	return nil
}

// Series returns a computed output series by key.
func (f *Frame) Series(key string) (Series, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.series[key]
	return s, ok
}

// Snapshot collects available values of the given specs at index i.
// Specs must have been computed with Ensure.
func (f *Frame) Snapshot(specs []Spec, i int) Snapshot {
	snap := make(Snapshot)
	if i < 0 || i >= len(f.candles) {
		return snap
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, spec := range specs {
		for _, key := range spec.Outputs() {
			if v, ok := f.series[key].At(i); ok {
				snap[key] = v
			}
		}
	}
	return snap
}
