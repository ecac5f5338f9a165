package regime

import (
	"math"
	"time"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/indicators"
	"solana-signal-lab/internal/normalization"
)

// AnnotationATRPeriod is the hourly ATR period used for ATRPercentile.
const AnnotationATRPeriod = 14

// Annotate describes the trend context of a full evaluation window.
// baseline is the reference asset for relative strength and may be empty.
// The regime is the raw classification; sweeps carry no hysteresis state.
func Annotate(candles, baseline []domain.Candle, cfg Config) domain.Annotation {
	reading := Read(candles, cfg)
	a := domain.Annotation{
		Ret24h:        reading.Returns.R24,
		Ret48h:        reading.Returns.R48,
		Ret72h:        reading.Returns.R72,
		Ret168h:       reading.Returns.R168,
		TrendScore:    reading.Score,
		Regime:        reading.Raw,
		CoverageHours: reading.CoverageHours,
	}
	if len(candles) == 0 {
		return a
	}

	last := time.UnixMilli(candles[len(candles)-1].TimestampMs).UTC()
	a.HourOfDay = last.Hour()
	a.DayOfWeek = int(last.Weekday())

	if len(baseline) > 0 {
		base := ComputeReturns(baseline)
		a.RelStrength24h = diff(reading.Returns.R24, base.R24)
		a.RelStrength168h = diff(reading.Returns.R168, base.R168)
	}

	hourly, err := normalization.Aggregate(candles, 60)
	if err != nil {
		return a
	}
	a.ATRPercentile = latestPercentile(indicators.ATR(
		domain.Highs(hourly), domain.Lows(hourly), domain.Closes(hourly), AnnotationATRPeriod))
	a.VolumeZScore = latestZScore(domain.Volumes(hourly))
	return a
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

// latestPercentile is the % of available values <= the last value.
func latestPercentile(s indicators.Series) *float64 {
	latest, ok := s.Last()
	if !ok {
		return nil
	}
	var n, le int
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		n++
		if v <= latest {
			le++
		}
	}
	p := float64(le) / float64(n) * 100
	return &p
}

// latestZScore is the population z-score of the last value. Nil for fewer
// than two values or zero deviation.
func latestZScore(values []float64) *float64 {
	n := len(values)
	if n < 2 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / float64(n))
	if sd == 0 {
		return nil
	}
	z := (values[n-1] - mean) / sd
	return &z
}
