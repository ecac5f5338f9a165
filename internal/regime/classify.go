package regime

import (
	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/lookup"
)

const msPerHour = 3_600_000

// Horizon is a return lookback with the coverage it needs.
type Horizon struct {
	Hours            int
	MinCoverageHours float64
}

// Horizons are the return lookbacks, shortest first.
var Horizons = []Horizon{
	{Hours: 24, MinCoverageHours: 20},
	{Hours: 48, MinCoverageHours: 40},
	{Hours: 72, MinCoverageHours: 60},
	{Hours: 168, MinCoverageHours: 120},
}

// Returns are % returns per horizon. Nil means unavailable.
type Returns struct {
	R24  *float64
	R48  *float64
	R72  *float64
	R168 *float64
}

func (r *Returns) set(hours int, v *float64) {
	switch hours {
	case 24:
		r.R24 = v
	case 48:
		r.R48 = v
	case 72:
		r.R72 = v
	case 168:
		r.R168 = v
	}
}

// Reading is the outcome of classifying one candle window.
type Reading struct {
	Returns       Returns
	Score         float64
	Raw           domain.Regime
	CoverageHours float64
}

// CoverageHours returns the hours between the first and last candle.
func CoverageHours(candles []domain.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	return float64(candles[len(candles)-1].TimestampMs-candles[0].TimestampMs) / msPerHour
}

// ComputeReturns computes the horizon returns of a candle window sorted by
// timestamp ASC. A horizon is available once coverage reaches its minimum; when
// coverage is shorter than the horizon itself the first candle is the reference.
func ComputeReturns(candles []domain.Candle) Returns {
	var r Returns
	if len(candles) < 2 {
		return r
	}
	coverage := CoverageHours(candles)
	last := candles[len(candles)-1]

	for _, h := range Horizons {
		if coverage < h.MinCoverageHours {
			continue
		}
		ref, err := lookup.CloseAtOrBefore(last.TimestampMs-int64(h.Hours)*msPerHour, candles)
		if err != nil || ref <= 0 {
			continue
		}
		v := (last.Close - ref) / ref * 100
		r.set(h.Hours, &v)
	}
	return r
}

// Score weights the 24h, 48h and 72h returns, renormalizing over the available ones.
// ok is false when none is available.
func Score(r Returns, w Weights) (score float64, ok bool) {
	var sum, wsum float64
	for _, p := range []struct {
		v *float64
		w float64
	}{{r.R24, w.W24}, {r.R48, w.W48}, {r.R72, w.W72}} {
		if p.v == nil || p.w == 0 {
			continue
		}
		sum += *p.v * p.w
		wsum += p.w
	}
	if wsum == 0 {
		return 0, false
	}
	return sum / wsum, true
}

// Classify returns the raw regime for a score.
// Coverage below the configured minimum is always sideways.
func Classify(r Returns, score, coverageHours float64, cfg Config) domain.Regime {
	if coverageHours < cfg.MinCoverageHrs || r.R24 == nil {
		return domain.RegimeSideways
	}
	ret24 := *r.R24
	switch {
	case score >= cfg.UptrendScore && ret24 >= cfg.UptrendRet24:
		return domain.RegimeUptrend
	case score <= cfg.DowntrendScore && ret24 <= cfg.DowntrendRet24:
		return domain.RegimeDowntrend
	default:
		return domain.RegimeSideways
	}
}

// Read classifies one candle window.
func Read(candles []domain.Candle, cfg Config) Reading {
	rets := ComputeReturns(candles)
	score, _ := Score(rets, cfg.Weights)
	coverage := CoverageHours(candles)
	return Reading{
		Returns:       rets,
		Score:         score,
		Raw:           Classify(rets, score, coverage, cfg),
		CoverageHours: coverage,
	}
}
