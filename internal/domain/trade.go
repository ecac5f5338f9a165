package domain

// BacktestTrade is one closed simulated position. Immutable once recorded.
type BacktestTrade struct {
	EntryTimeMs int64   // entry candle timestamp (ms)
	ExitTimeMs  int64   // exit candle timestamp (ms)
	EntryPrice  float64 // entry close
	ExitPrice   float64 // exit close
	HoldMs      int64   // exit - entry (ms)
	HoldBars    int     // bars between entry and exit

	GrossPnLPct float64 // (exit-entry)/entry*100
	PnLPct      float64 // gross minus round-trip cost
	PeakPnLPct  float64 // best unrealized PnL while open
	ExitReason  string  // reason code
}

// IsWin reports whether the trade realized a positive net PnL.
func (t BacktestTrade) IsWin() bool {
	return t.PnLPct > 0
}

// Exit reason codes
const (
	ExitReasonStrategy     = "strategy"
	ExitReasonStopLoss     = "stop-loss"
	ExitReasonTakeProfit   = "take-profit"
	ExitReasonTrailingStop = "trailing-stop"
	ExitReasonMaxHold      = "max-hold"
	ExitReasonEndOfData    = "end-of-data"
)

// BacktestMetrics summarizes a trade list.
type BacktestMetrics struct {
	TradeCount int
	Wins       int
	Losses     int
	WinRate    float64 // wins / trades * 100

	TotalPnLPct  float64 // sum of net trade PnL%
	AvgPnLPct    float64
	MedianPnLPct float64
	P10PnLPct    float64
	P90PnLPct    float64
	StddevPnLPct float64 // sample stddev

	ProfitFactor    float64 // gross wins / gross losses
	Sharpe          float64 // mean / stddev of per-trade PnL
	MaxDrawdownPct  float64 // worst peak-to-trough of cumulative PnL%
	AvgWinLossRatio float64 // avg win / |avg loss|

	AvgHoldMinutes       float64
	TradesPerDay         float64
	MaxConsecutiveLosses int
}
