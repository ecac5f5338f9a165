package live

import (
	"sort"
	"sync"

	"solana-signal-lab/internal/domain"
)

// PositionSource reports whether a mint currently holds an open position.
type PositionSource interface {
	HasPosition(mint string) bool
}

// PositionBook is an in-memory PositionSource driven by live decisions:
// a Buy opens a position and a Sell closes it, one position per mint as in
// backtests. Safe for concurrent use.
type PositionBook struct {
	mu   sync.RWMutex
	open map[string]int64 // mint -> bar time of the entry signal
}

// NewPositionBook creates a PositionBook with the given mints already open.
func NewPositionBook(open ...string) *PositionBook {
	b := &PositionBook{open: make(map[string]int64, len(open))}
	for _, mint := range open {
		b.open[mint] = 0
	}
	return b
}

// HasPosition implements PositionSource.
func (b *PositionBook) HasPosition(mint string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.open[mint]
	return ok
}

// Apply updates the book from a decision and reports whether it changed.
func (b *PositionBook) Apply(dec Decision) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, held := b.open[dec.Mint]
	switch {
	case dec.Signal == domain.SignalBuy && !held:
		b.open[dec.Mint] = dec.BarTime
		return true
	case dec.Signal == domain.SignalSell && held:
		delete(b.open, dec.Mint)
		return true
	}
	return false
}

// Open returns the mints holding a position, sorted.
func (b *PositionBook) Open() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.open))
	for mint := range b.open {
		out = append(out, mint)
	}
	sort.Strings(out)
	return out
}
