package metrics

import (
	"math"
	"sort"

	"solana-signal-lab/internal/domain"
)

// ProfitFactorCap is reported as the profit factor when there are wins but no losses.
const ProfitFactorCap = 999.0

const msPerDay = 24 * 60 * 60 * 1000

// Compute calculates metrics for trades in chronological exit order.
// spanDays is the length of the evaluated window; trades/day is 0 when spanDays <= 0.
func Compute(trades []domain.BacktestTrade, spanDays float64) domain.BacktestMetrics {
	n := len(trades)
	if n == 0 {
		return domain.BacktestMetrics{}
	}

	pnls := make([]float64, n)
	var wins, losses int
	var total, grossWin, grossLoss, holdMs float64
	for i, t := range trades {
		pnls[i] = t.PnLPct
		total += t.PnLPct
		holdMs += float64(t.HoldMs)
		if t.IsWin() {
			wins++
			grossWin += t.PnLPct
		} else {
			losses++
			grossLoss += -t.PnLPct
		}
	}

	sorted := make([]float64, n)
	copy(sorted, pnls)
	sort.Float64s(sorted)

	mean := computeMean(pnls)
	stddev := computeStddev(pnls, mean)

	m := domain.BacktestMetrics{
		TradeCount: n,
		Wins:       wins,
		Losses:     losses,
		WinRate:    computeWinRate(wins, n) * 100,

		TotalPnLPct:  total,
		AvgPnLPct:    mean,
		MedianPnLPct: computePercentile(sorted, 0.50),
		P10PnLPct:    computePercentile(sorted, 0.10),
		P90PnLPct:    computePercentile(sorted, 0.90),
		StddevPnLPct: stddev,

		ProfitFactor:    computeProfitFactor(grossWin, grossLoss),
		Sharpe:          computeSharpe(mean, stddev, n),
		MaxDrawdownPct:  computeMaxDrawdown(pnls),
		AvgWinLossRatio: computeAvgWinLossRatio(grossWin, grossLoss, wins, losses),

		AvgHoldMinutes:       holdMs / float64(n) / 60000,
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(pnls),
	}
	if spanDays > 0 {
		m.TradesPerDay = float64(n) / spanDays
	}
	return m
}

// SpanDays returns the window length between two millisecond timestamps in days.
func SpanDays(fromMs, toMs int64) float64 {
	if toMs <= fromMs {
		return 0
	}
	return float64(toMs-fromMs) / msPerDay
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeProfitFactor is gross wins over gross losses, capped when there are no losses.
func computeProfitFactor(grossWin, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossWin > 0 {
			return ProfitFactorCap
		}
		return 0
	}
	return math.Min(grossWin/grossLoss, ProfitFactorCap)
}

// computeSharpe is the per-trade mean over sample stddev, 0 when undefined.
func computeSharpe(mean, stddev float64, n int) float64 {
	if n < 2 || stddev == 0 {
		return 0
	}
	return mean / stddev
}

// computeAvgWinLossRatio is the average win over the absolute average loss.
// With wins and no losses it reports ProfitFactorCap, like the profit factor.
func computeAvgWinLossRatio(grossWin, grossLoss float64, wins, losses int) float64 {
	if wins == 0 {
		return 0
	}
	if losses == 0 || grossLoss == 0 {
		return ProfitFactorCap
	}
	avgWin := grossWin / float64(wins)
	return math.Min(avgWin/(grossLoss/float64(losses)), ProfitFactorCap)
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative PnL.
// Values must be in chronological order.
func computeMaxDrawdown(values []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, v := range values {
		cumulative += v
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of PnL <= 0.
func computeMaxConsecutiveLosses(values []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, v := range values {
		if v <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
