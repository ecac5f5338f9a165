package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/metrics"
)

// Summary is the Markdown sweep report.
type Summary struct {
	SweepID       string
	GeneratedAt   time.Time
	Results       int
	Eligible      int
	MinTrades     int
	SkippedTokens []string

	Templates []metrics.TemplateSummary // sorted by template name
	Top       []*domain.SweepResult     // best eligible results in rank order
}

// NewSummary builds a summary with the topN best eligible results.
func NewSummary(sweepID string, results []*domain.SweepResult, minTrades, topN int, now time.Time) *Summary {
	eligible := make([]*domain.SweepResult, 0, len(results))
	for _, r := range results {
		if r.Eligible {
			eligible = append(eligible, r)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Rank < eligible[j].Rank
	})
	if topN >= 0 && len(eligible) > topN {
		eligible = eligible[:topN]
	}

	return &Summary{
		SweepID:     sweepID,
		GeneratedAt: now,
		Results:     len(results),
		Eligible:    countEligible(results),
		MinTrades:   minTrades,
		Templates:   metrics.SummarizeByTemplate(results),
		Top:         eligible,
	}
}

func countEligible(results []*domain.SweepResult) int {
	n := 0
	for _, r := range results {
		if r.Eligible {
			n++
		}
	}
	return n
}

// RenderMarkdown renders the summary as Markdown string.
func RenderMarkdown(s *Summary) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sweep Report\n\n")
	sb.WriteString(fmt.Sprintf("Sweep: `%s`\n\n", s.SweepID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", s.GeneratedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Results: %d | Eligible (>= %d trades): %d\n\n", s.Results, s.MinTrades, s.Eligible))

	if len(s.SkippedTokens) > 0 {
		sb.WriteString("Skipped tokens (no candles):\n\n")
		for _, t := range s.SkippedTokens {
			sb.WriteString(fmt.Sprintf("- %s\n", t))
		}
		sb.WriteString("\n")
	}

	// Templates
	sb.WriteString("## Templates\n\n")
	if len(s.Templates) > 0 {
		sb.WriteString("| Template | Results | Eligible | Median Sharpe | Median PnL% | Best Rank |\n")
		sb.WriteString("|----------|---------|----------|---------------|-------------|-----------|\n")
		for _, t := range s.Templates {
			best := "-"
			if t.Best != nil {
				best = fmt.Sprintf("%d", t.Best.Rank)
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f | %.4f | %s |\n",
				t.Template, t.Results, t.Eligible, t.MedianSharpe, t.MedianPnLPct, best))
		}
	} else {
		sb.WriteString("No results.\n")
	}
	sb.WriteString("\n")

	// Top results
	sb.WriteString("## Top Results\n\n")
	if len(s.Top) > 0 {
		sb.WriteString("| Rank | Template | Token | TF | Exit | Params | Trades | WinRate | PnL% | PF | Sharpe | MaxDD | Regime |\n")
		sb.WriteString("|------|----------|-------|----|------|--------|--------|---------|------|----|--------|-------|--------|\n")
		for _, r := range s.Top {
			m := r.Metrics
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %dm | %s | %s | %d | %.2f | %.4f | %.4f | %.4f | %.4f | %s |\n",
				r.Rank, r.Template, shortMint(r.Token), r.TimeframeMin, r.ExitMode, r.ParamString,
				m.TradeCount, m.WinRate, m.TotalPnLPct, m.ProfitFactor, m.Sharpe, m.MaxDrawdownPct,
				r.Annotation.Regime))
		}
	} else {
		sb.WriteString("No eligible results.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// shortMint abbreviates long mint addresses for tables.
func shortMint(mint string) string {
	if len(mint) <= 12 {
		return mint
	}
	return mint[:4] + "..." + mint[len(mint)-4:]
}
