package domain

// SweepResult is the outcome of one (template, params, token, timeframe, exit mode) tuple.
type SweepResult struct {
	ID           string // deterministic hash of the tuple
	SweepID      string // run identifier
	Template     string
	Token        string // mint
	TimeframeMin int
	ExitMode     string
	Params       map[string]float64
	ParamString  string // canonical "k=v,k=v" form

	Trades     []BacktestTrade
	Metrics    BacktestMetrics
	Annotation Annotation

	Eligible bool // trade count reached the ranking threshold
	Rank     int  // 1-based among eligible results, 0 when ineligible
}
