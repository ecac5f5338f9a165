// Package reporting exports sweep results as CSV, Parquet and Markdown.
package reporting

import (
	"solana-signal-lab/internal/domain"
)

// Columns is the export column order shared by CSV and Parquet.
var Columns = []string{
	"template", "token", "timeframe", "exit_mode", "params",
	"trades", "win_rate", "pnl_pct", "profit_factor", "sharpe", "max_drawdown",
	"avg_win_loss_ratio", "avg_hold_minutes", "trades_per_day",
	"eligible", "rank",
	"ret_24h", "ret_48h", "ret_72h", "ret_168h", "trend_score", "regime",
	"rel_strength_24h", "rel_strength_168h", "coverage_hours",
	"hour_of_day", "day_of_week", "atr_percentile", "volume_zscore",
}

// Row is one exported sweep result. Nil pointers are unavailable values.
type Row struct {
	Template  string `parquet:"template"`
	Token     string `parquet:"token"`
	Timeframe int32  `parquet:"timeframe"`
	ExitMode  string `parquet:"exit_mode"`
	Params    string `parquet:"params"`

	Trades          int32   `parquet:"trades"`
	WinRate         float64 `parquet:"win_rate"`
	PnLPct          float64 `parquet:"pnl_pct"`
	ProfitFactor    float64 `parquet:"profit_factor"`
	Sharpe          float64 `parquet:"sharpe"`
	MaxDrawdown     float64 `parquet:"max_drawdown"`
	AvgWinLossRatio float64 `parquet:"avg_win_loss_ratio"`
	AvgHoldMinutes  float64 `parquet:"avg_hold_minutes"`
	TradesPerDay    float64 `parquet:"trades_per_day"`

	Eligible bool  `parquet:"eligible"`
	Rank     int32 `parquet:"rank"`

	Ret24h          *float64 `parquet:"ret_24h"`
	Ret48h          *float64 `parquet:"ret_48h"`
	Ret72h          *float64 `parquet:"ret_72h"`
	Ret168h         *float64 `parquet:"ret_168h"`
	TrendScore      float64  `parquet:"trend_score"`
	Regime          string   `parquet:"regime"`
	RelStrength24h  *float64 `parquet:"rel_strength_24h"`
	RelStrength168h *float64 `parquet:"rel_strength_168h"`
	CoverageHours   float64  `parquet:"coverage_hours"`
	HourOfDay       int32    `parquet:"hour_of_day"`
	DayOfWeek       int32    `parquet:"day_of_week"`
	ATRPercentile   *float64 `parquet:"atr_percentile"`
	VolumeZScore    *float64 `parquet:"volume_zscore"`
}

// Rows converts results to export rows, preserving order.
func Rows(results []*domain.SweepResult) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		m, a := r.Metrics, r.Annotation
		rows = append(rows, Row{
			Template:  r.Template,
			Token:     r.Token,
			Timeframe: int32(r.TimeframeMin),
			ExitMode:  r.ExitMode,
			Params:    r.ParamString,

			Trades:          int32(m.TradeCount),
			WinRate:         m.WinRate,
			PnLPct:          m.TotalPnLPct,
			ProfitFactor:    m.ProfitFactor,
			Sharpe:          m.Sharpe,
			MaxDrawdown:     m.MaxDrawdownPct,
			AvgWinLossRatio: m.AvgWinLossRatio,
			AvgHoldMinutes:  m.AvgHoldMinutes,
			TradesPerDay:    m.TradesPerDay,

			Eligible: r.Eligible,
			Rank:     int32(r.Rank),

			Ret24h:          a.Ret24h,
			Ret48h:          a.Ret48h,
			Ret72h:          a.Ret72h,
			Ret168h:         a.Ret168h,
			TrendScore:      a.TrendScore,
			Regime:          string(a.Regime),
			RelStrength24h:  a.RelStrength24h,
			RelStrength168h: a.RelStrength168h,
			CoverageHours:   a.CoverageHours,
			HourOfDay:       int32(a.HourOfDay),
			DayOfWeek:       int32(a.DayOfWeek),
			ATRPercentile:   a.ATRPercentile,
			VolumeZScore:    a.VolumeZScore,
		})
	}
	return rows
}
