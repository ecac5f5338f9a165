package domain

import "time"

// Regime is the coarse trend classification of a token.
type Regime string

// Regime values.
const (
	RegimeUptrend   Regime = "uptrend"
	RegimeSideways  Regime = "sideways"
	RegimeDowntrend Regime = "downtrend"
)

// AllRegimes lists every regime in canonical order.
var AllRegimes = []Regime{RegimeUptrend, RegimeSideways, RegimeDowntrend}

// String returns the string representation of Regime.
func (r Regime) String() string {
	return string(r)
}

// IsValid checks if the regime is a known value.
func (r Regime) IsValid() bool {
	return r == RegimeUptrend || r == RegimeSideways || r == RegimeDowntrend
}

// RegimeState is the per-token hysteresis state.
// Confirmed only moves after PendingCount reaches the configured confirmation cycles.
type RegimeState struct {
	Confirmed    Regime    // regime callers act on
	Pending      Regime    // candidate regime, empty when none
	PendingCount int       // consecutive cycles Pending has been observed
	LastScore    float64   // trend score of the last refresh
	LastUpdated  time.Time // time of the last refresh
}

// Annotation describes a token's trend context over an evaluation window.
// Pointer fields are nil when the window is too short to compute them.
type Annotation struct {
	Ret24h  *float64 // % return over 24h
	Ret48h  *float64 // % return over 48h
	Ret72h  *float64 // % return over 72h
	Ret168h *float64 // % return over 168h

	TrendScore float64
	Regime     Regime

	RelStrength24h  *float64 // token 24h return minus baseline 24h return
	RelStrength168h *float64 // token 168h return minus baseline 168h return

	CoverageHours float64 // hours between first and last candle
	HourOfDay     int     // UTC hour of the last candle
	DayOfWeek     int     // UTC weekday of the last candle (0 = Sunday)

	ATRPercentile *float64 // percentile of the latest hourly ATR within the window
	VolumeZScore  *float64 // z-score of the latest hourly volume within the window
}
