// Package live makes trading decisions for the latest bar of a token using the
// same template table as backtests.
package live

import (
	"errors"
	"fmt"
	"log/slog"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/indicators"
	"solana-signal-lab/internal/strategy"
)

// Decision reasons
const (
	ReasonSignal              = "signal"
	ReasonNoStrategy          = "no-active-strategy"
	ReasonInsufficientHistory = "insufficient-history"
)

// ErrNilDependency is returned when a Decider is built without its sources.
var ErrNilDependency = errors.New("live: nil dependency")

// StrategyResolver returns the active strategy for (mint, regime), nil when none.
// Implemented by *livemap.Store.
type StrategyResolver interface {
	Resolve(mint string, regime domain.Regime) (*domain.RegimeStrategy, error)
}

// RegimeSource returns the confirmed regime of a mint.
// Implemented by *regime.Tracker.
type RegimeSource interface {
	Regime(mint string) domain.Regime
}

// Decision is the outcome for the latest bar.
type Decision struct {
	Mint     string
	Regime   domain.Regime
	Strategy *domain.RegimeStrategy // nil when no strategy is active
	Signal   domain.Signal
	Reason   string
	BarTime  int64 // timestamp of the evaluated candle
}

// Decider resolves the active strategy and evaluates it on recent candles.
type Decider struct {
	strategies StrategyResolver
	regimes    RegimeSource
	logger     *slog.Logger
}

// NewDecider creates a Decider.
func NewDecider(strategies StrategyResolver, regimes RegimeSource, logger *slog.Logger) (*Decider, error) {
	if strategies == nil || regimes == nil {
		return nil, ErrNilDependency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decider{
		strategies: strategies,
		regimes:    regimes,
		logger:     logger.With("component", "live"),
	}, nil
}

// Decide evaluates the latest candle of mint. candles must be sorted ASC and
// already aggregated to the strategy's timeframe.
func (d *Decider) Decide(mint string, candles []domain.Candle, hasPosition bool) (Decision, error) {
	regime := d.regimes.Regime(mint)
	dec := Decision{Mint: mint, Regime: regime, Signal: domain.SignalHold}

	rs, err := d.strategies.Resolve(mint, regime)
	if err != nil {
		return dec, fmt.Errorf("resolve strategy %s: %w", mint, err)
	}
	if rs == nil {
		dec.Reason = ReasonNoStrategy
		return dec, nil
	}
	dec.Strategy = rs

	tmpl, err := strategy.FromConfig(*rs)
	if err != nil {
		return dec, fmt.Errorf("bind strategy %s/%s: %w", mint, regime, err)
	}

	last := len(candles) - 1
	if last < 0 || last < tmpl.RequiredHistory() {
		dec.Reason = ReasonInsufficientHistory
		return dec, nil
	}

	frame := indicators.NewFrame(candles)
	specs := tmpl.Indicators()
	if err := frame.Ensure(specs...); err != nil {
		return dec, fmt.Errorf("compute indicators %s: %w", mint, err)
	}

	dec.Signal = tmpl.Evaluate(strategy.ContextAt(frame, specs, last, hasPosition))
	dec.Reason = ReasonSignal
	dec.BarTime = candles[last].TimestampMs

	if dec.Signal != domain.SignalHold {
		d.logger.Info("live signal",
			"mint", mint,
			"regime", regime,
			"template", rs.Template,
			"signal", dec.Signal.String(),
			"close", candles[last].Close,
		)
	}
	return dec, nil
}
