package metrics

import (
	"math"
	"testing"

	"solana-signal-lab/internal/domain"
)

func trades(pnls ...float64) []domain.BacktestTrade {
	out := make([]domain.BacktestTrade, len(pnls))
	for i, p := range pnls {
		out[i] = domain.BacktestTrade{PnLPct: p, HoldMs: 10 * 60000}
	}
	return out
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil, 1)
	if m.TradeCount != 0 || m.Sharpe != 0 || m.ProfitFactor != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}

func TestCompute_Basic(t *testing.T) {
	m := Compute(trades(10, -5, 5, -10, 20), 2)

	if m.TradeCount != 5 || m.Wins != 3 || m.Losses != 2 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.WinRate != 60 {
		t.Errorf("expected win rate 60, got %f", m.WinRate)
	}
	if math.Abs(m.TotalPnLPct-20) > 1e-9 {
		t.Errorf("expected total 20, got %f", m.TotalPnLPct)
	}
	if math.Abs(m.AvgPnLPct-4) > 1e-9 {
		t.Errorf("expected avg 4, got %f", m.AvgPnLPct)
	}
	// gross win 35, gross loss 15
	if math.Abs(m.ProfitFactor-35.0/15.0) > 1e-9 {
		t.Errorf("expected profit factor %f, got %f", 35.0/15.0, m.ProfitFactor)
	}
	// avg win 35/3, avg loss 7.5
	if math.Abs(m.AvgWinLossRatio-(35.0/3)/7.5) > 1e-9 {
		t.Errorf("unexpected avg win/loss ratio %f", m.AvgWinLossRatio)
	}
	// cumulative: 10, 5, 10, 0, 20 -> peak 10, trough 0
	if m.MaxDrawdownPct != 10 {
		t.Errorf("expected drawdown 10, got %f", m.MaxDrawdownPct)
	}
	if m.MedianPnLPct != 5 {
		t.Errorf("expected median 5, got %f", m.MedianPnLPct)
	}
	if m.AvgHoldMinutes != 10 {
		t.Errorf("expected avg hold 10, got %f", m.AvgHoldMinutes)
	}
	if m.TradesPerDay != 2.5 {
		t.Errorf("expected 2.5 trades/day, got %f", m.TradesPerDay)
	}
	if m.MaxConsecutiveLosses != 1 {
		t.Errorf("expected max consecutive losses 1, got %d", m.MaxConsecutiveLosses)
	}

	wantSharpe := 4 / computeStddev([]float64{10, -5, 5, -10, 20}, 4)
	if math.Abs(m.Sharpe-wantSharpe) > 1e-9 {
		t.Errorf("expected sharpe %f, got %f", wantSharpe, m.Sharpe)
	}
}

func TestCompute_NoLossesCapsProfitFactor(t *testing.T) {
	m := Compute(trades(1, 2, 3), 0)
	if m.ProfitFactor != ProfitFactorCap {
		t.Errorf("expected capped profit factor, got %f", m.ProfitFactor)
	}
	if m.AvgWinLossRatio != ProfitFactorCap {
		t.Errorf("expected capped avg win/loss ratio, got %f", m.AvgWinLossRatio)
	}
	if m.TradesPerDay != 0 {
		t.Errorf("expected 0 trades/day without span, got %f", m.TradesPerDay)
	}
}

func TestCompute_SingleTradeSharpeZero(t *testing.T) {
	m := Compute(trades(5), 1)
	if m.Sharpe != 0 {
		t.Errorf("expected sharpe 0 for one trade, got %f", m.Sharpe)
	}
}

func TestCompute_ZeroPnLCountsAsLoss(t *testing.T) {
	m := Compute(trades(0, 0), 1)
	if m.Wins != 0 || m.Losses != 2 {
		t.Errorf("expected 0 wins 2 losses, got %d/%d", m.Wins, m.Losses)
	}
	if m.ProfitFactor != 0 {
		t.Errorf("expected profit factor 0, got %f", m.ProfitFactor)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := computePercentile(sorted, 0.10); math.Abs(got-1.9) > 1e-9 {
		t.Errorf("expected p10 1.9, got %f", got)
	}
	if got := computePercentile(sorted, 0.90); math.Abs(got-9.1) > 1e-9 {
		t.Errorf("expected p90 9.1, got %f", got)
	}
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty, got %f", got)
	}
}

func TestComputeMaxConsecutiveLosses(t *testing.T) {
	got := computeMaxConsecutiveLosses([]float64{1, -1, -2, 0, 3, -1})
	if got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestSpanDays(t *testing.T) {
	if got := SpanDays(0, 2*msPerDay); got != 2 {
		t.Errorf("expected 2, got %f", got)
	}
	if got := SpanDays(10, 5); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}
