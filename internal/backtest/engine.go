// Package backtest replays one candle series bar by bar against a strategy
// template and records the resulting trades.
package backtest

import (
	"errors"
	"fmt"
	"log/slog"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/indicators"
	"solana-signal-lab/internal/metrics"
	"solana-signal-lab/internal/strategy"
)

// Engine errors
var (
	ErrNilFrame      = errors.New("backtest: nil frame")
	ErrNilEvaluator  = errors.New("backtest: nil evaluator")
	ErrInvalidOption = errors.New("backtest: invalid option")
)

// Evaluator is a bound strategy template.
// Implemented by *strategy.Template.
type Evaluator interface {
	// Evaluate returns the signal for one bar.
	Evaluate(ctx strategy.Context) domain.Signal

	// RequiredHistory returns the first candle index the evaluator may see.
	RequiredHistory() int

	// Indicators returns the indicator specs read by Evaluate.
	Indicators() []indicators.Spec
}

// Options configures exits, costs and position limits.
type Options struct {
	Cost            domain.CostConfig
	StopLossPct     float64 // 0 = disabled
	TakeProfitPct   float64 // 0 = disabled
	TrailingStopPct float64 // % below peak close, 0 = disabled
	MaxHoldBars     int     // 0 = disabled
	MaxPositions    int     // concurrent positions, default 1

	// ExitParityMode suppresses strategy sells so that only price bounds exit.
	ExitParityMode bool

	Logger *slog.Logger
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.StopLossPct < 0:
		return fmt.Errorf("%w: stop loss %v", ErrInvalidOption, o.StopLossPct)
	case o.TakeProfitPct < 0:
		return fmt.Errorf("%w: take profit %v", ErrInvalidOption, o.TakeProfitPct)
	case o.TrailingStopPct < 0 || o.TrailingStopPct >= 100:
		return fmt.Errorf("%w: trailing stop %v", ErrInvalidOption, o.TrailingStopPct)
	case o.MaxHoldBars < 0:
		return fmt.Errorf("%w: max hold bars %d", ErrInvalidOption, o.MaxHoldBars)
	case o.MaxPositions < 0:
		return fmt.Errorf("%w: max positions %d", ErrInvalidOption, o.MaxPositions)
	case o.Cost.RoundTripPct < 0:
		return fmt.Errorf("%w: round trip cost %v", ErrInvalidOption, o.Cost.RoundTripPct)
	}
	return nil
}

// Result holds backtest output.
type Result struct {
	Trades        []domain.BacktestTrade // in exit order
	Metrics       domain.BacktestMetrics
	BarsEvaluated int
	BuySignals    int
	SellSignals   int
}

// position is an open simulated position. Owned by the run loop.
type position struct {
	entryIdx   int
	entryTime  int64
	entryPrice float64
	peakPrice  float64
	peakPnL    float64
}

// Engine runs backtests with fixed options.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates a new backtest engine.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxPositions == 0 {
		opts.MaxPositions = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}, nil
}

// Run replays the frame's candles through eval.
// Indicators are computed once on the frame before the loop; the loop only
// reads them by index.
func (e *Engine) Run(frame *indicators.Frame, eval Evaluator) (*Result, error) {
	if frame == nil {
		return nil, ErrNilFrame
	}
	if eval == nil {
		return nil, ErrNilEvaluator
	}
	specs := eval.Indicators()
	if err := frame.Ensure(specs...); err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	candles := frame.Candles()
	n := len(candles)
	res := &Result{Trades: make([]domain.BacktestTrade, 0)}
	start := max(eval.RequiredHistory(), 0)

	var open []*position
	for i := start; i < n; i++ {
		c := candles[i]
		res.BarsEvaluated++

		// price exits
		kept := open[:0]
		for _, p := range open {
			p.observe(c.Close)
			if reason, ok := e.priceExit(p, i, c.Close); ok {
				res.Trades = append(res.Trades, e.close(p, c, i, reason))
				continue
			}
			kept = append(kept, p)
		}
		open = kept

		sig := eval.Evaluate(strategy.ContextAt(frame, specs, i, len(open) > 0))

		switch sig {
		case domain.SignalSell:
			res.SellSignals++
			if e.opts.ExitParityMode {
				break
			}
			for _, p := range open {
				res.Trades = append(res.Trades, e.close(p, c, i, domain.ExitReasonStrategy))
			}
			open = open[:0]
		case domain.SignalBuy:
			res.BuySignals++
			if i == n-1 || len(open) >= e.opts.MaxPositions {
				break
			}
			open = append(open, &position{
				entryIdx:   i,
				entryTime:  c.TimestampMs,
				entryPrice: c.Close,
				peakPrice:  c.Close,
			})
		case domain.SignalHold:
		}
	}

	if len(open) > 0 {
		last := candles[n-1]
		for _, p := range open {
			res.Trades = append(res.Trades, e.close(p, last, n-1, domain.ExitReasonEndOfData))
		}
	}

	var span float64
	if n > 0 {
		span = metrics.SpanDays(candles[0].TimestampMs, candles[n-1].TimestampMs)
	}
	res.Metrics = metrics.Compute(res.Trades, span)

	e.logger.Debug("backtest complete",
		"bars", res.BarsEvaluated,
		"trades", len(res.Trades),
		"pnl_pct", res.Metrics.TotalPnLPct)
	return res, nil
}

// observe updates the peak with a new close.
func (p *position) observe(price float64) {
	if price > p.peakPrice {
		p.peakPrice = price
		p.peakPnL = pctChange(p.entryPrice, price)
	}
}

// priceExit checks stop-loss, take-profit, trailing-stop and max-hold in that order.
func (e *Engine) priceExit(p *position, i int, price float64) (string, bool) {
	pnl := pctChange(p.entryPrice, price)
	switch {
	case e.opts.StopLossPct > 0 && pnl <= -e.opts.StopLossPct:
		return domain.ExitReasonStopLoss, true
	case e.opts.TakeProfitPct > 0 && pnl >= e.opts.TakeProfitPct:
		return domain.ExitReasonTakeProfit, true
	case e.opts.TrailingStopPct > 0 && price <= p.peakPrice*(1-e.opts.TrailingStopPct/100):
		return domain.ExitReasonTrailingStop, true
	case e.opts.MaxHoldBars > 0 && i-p.entryIdx >= e.opts.MaxHoldBars:
		return domain.ExitReasonMaxHold, true
	}
	return "", false
}

// close realizes a position at the candle's close.
func (e *Engine) close(p *position, c domain.Candle, i int, reason string) domain.BacktestTrade {
	gross := pctChange(p.entryPrice, c.Close)
	return domain.BacktestTrade{
		EntryTimeMs: p.entryTime,
		ExitTimeMs:  c.TimestampMs,
		EntryPrice:  p.entryPrice,
		ExitPrice:   c.Close,
		HoldMs:      c.TimestampMs - p.entryTime,
		HoldBars:    i - p.entryIdx,
		GrossPnLPct: gross,
		PnLPct:      gross - e.opts.Cost.RoundTripPct,
		PeakPnLPct:  p.peakPnL,
		ExitReason:  reason,
	}
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

// Run is a convenience wrapper for a one-off backtest.
func Run(frame *indicators.Frame, eval Evaluator, opts Options) (*Result, error) {
	e, err := NewEngine(opts)
	if err != nil {
		return nil, err
	}
	return e.Run(frame, eval)
}
