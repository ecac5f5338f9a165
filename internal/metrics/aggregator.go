package metrics

import (
	"sort"

	"solana-signal-lab/internal/domain"
)

// TemplateSummary aggregates sweep results for one template.
type TemplateSummary struct {
	Template     string
	Results      int
	Eligible     int
	MedianSharpe float64 // over eligible results
	MedianPnLPct float64 // over eligible results
	Best         *domain.SweepResult
}

// SummarizeByTemplate groups sweep results by template, sorted by template name.
// Best is the highest-ranked eligible result.
func SummarizeByTemplate(results []*domain.SweepResult) []TemplateSummary {
	byTemplate := make(map[string][]*domain.SweepResult)
	for _, r := range results {
		byTemplate[r.Template] = append(byTemplate[r.Template], r)
	}

	names := make([]string, 0, len(byTemplate))
	for name := range byTemplate {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TemplateSummary, 0, len(names))
	for _, name := range names {
		group := byTemplate[name]
		s := TemplateSummary{Template: name, Results: len(group)}

		var sharpes, pnls []float64
		for _, r := range group {
			if !r.Eligible {
				continue
			}
			s.Eligible++
			sharpes = append(sharpes, r.Metrics.Sharpe)
			pnls = append(pnls, r.Metrics.TotalPnLPct)
			if s.Best == nil || r.Rank < s.Best.Rank {
				s.Best = r
			}
		}
		sort.Float64s(sharpes)
		sort.Float64s(pnls)
		s.MedianSharpe = computePercentile(sharpes, 0.5)
		s.MedianPnLPct = computePercentile(pnls, 0.5)
		out = append(out, s)
	}
	return out
}
