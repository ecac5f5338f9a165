package sweep

import (
	"math"
	"sort"

	"solana-signal-lab/internal/domain"
)

// SharpeTieEpsilon is the Sharpe difference treated as a tie.
const SharpeTieEpsilon = 1e-9

// Rank marks results with at least minTrades trades eligible and assigns
// 1-based ranks among them. Ineligible results keep Rank 0.
// Order: Sharpe desc, profit factor desc, total PnL desc, then input order.
// Returns the eligible results in rank order.
func Rank(results []*domain.SweepResult, minTrades int) []*domain.SweepResult {
	eligible := make([]*domain.SweepResult, 0, len(results))
	for _, r := range results {
		r.Rank = 0
		r.Eligible = r.Metrics.TradeCount >= minTrades
		if r.Eligible {
			eligible = append(eligible, r)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return better(eligible[i].Metrics, eligible[j].Metrics)
	})
	for i, r := range eligible {
		r.Rank = i + 1
	}
	return eligible
}

func better(a, b domain.BacktestMetrics) bool {
	if math.Abs(a.Sharpe-b.Sharpe) > SharpeTieEpsilon {
		return a.Sharpe > b.Sharpe
	}
	if a.ProfitFactor != b.ProfitFactor {
		return a.ProfitFactor > b.ProfitFactor
	}
	return a.TotalPnLPct > b.TotalPnLPct
}
