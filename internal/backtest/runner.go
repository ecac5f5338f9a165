package backtest

import (
	"context"
	"fmt"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/indicators"
	"solana-signal-lab/internal/normalization"
	"solana-signal-lab/internal/storage"
)

// Runner loads candles from storage and executes backtests over them.
type Runner struct {
	candleStore storage.CandleStore
	engine      *Engine
}

// NewRunner creates a new backtest runner.
func NewRunner(candleStore storage.CandleStore, engine *Engine) *Runner {
	return &Runner{
		candleStore: candleStore,
		engine:      engine,
	}
}

// Run executes a backtest for a mint within [from, to], aggregating the
// stored 1-minute candles to intervalMin.
func (r *Runner) Run(ctx context.Context, mint string, from, to int64, intervalMin int, eval Evaluator) (*Result, error) {
	candles, err := r.Load(ctx, mint, from, to, intervalMin)
	if err != nil {
		return nil, err
	}
	return r.engine.Run(indicators.NewFrame(candles), eval)
}

// Load fetches and aggregates candles for a mint.
func (r *Runner) Load(ctx context.Context, mint string, from, to int64, intervalMin int) ([]domain.Candle, error) {
	raw, err := r.candleStore.GetByTimeRange(ctx, mint, from, to)
	if err != nil {
		return nil, fmt.Errorf("load candles %s: %w", mint, err)
	}
	candles, err := normalization.Aggregate(raw, intervalMin)
	if err != nil {
		return nil, fmt.Errorf("aggregate candles %s: %w", mint, err)
	}
	return candles, nil
}
