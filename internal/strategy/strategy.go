// Package strategy is the template evaluator shared by backtests and live
// decisions. Templates are stateless: all temporal context arrives in Context.
package strategy

import (
	"fmt"
	"time"

	"solana-signal-lab/internal/indicators"
)

// TemplateID identifies a signal template. The set is closed; every switch
// over TemplateID in this package is exhaustive.
type TemplateID int

// Templates.
const (
	templateUnknown TemplateID = iota
	RSIReversion
	ConnorsRSIReversion
	MACDCross
	BollingerReversion
	EMACross
	ADXTrend
	VWAPReversion
	ATRBreakout
)

var templateNames = map[TemplateID]string{
	RSIReversion:        "rsi_reversion",
	ConnorsRSIReversion: "connors_rsi",
	MACDCross:           "macd_cross",
	BollingerReversion:  "bollinger_reversion",
	EMACross:            "ema_cross",
	ADXTrend:            "adx_trend",
	VWAPReversion:       "vwap_reversion",
	ATRBreakout:         "atr_breakout",
}

// String returns the template's config name.
func (t TemplateID) String() string {
	if name, ok := templateNames[t]; ok {
		return name
	}
	return fmt.Sprintf("template(%d)", int(t))
}

// AllTemplates lists every template in declaration order.
func AllTemplates() []TemplateID {
	return []TemplateID{
		RSIReversion, ConnorsRSIReversion, MACDCross, BollingerReversion,
		EMACross, ADXTrend, VWAPReversion, ATRBreakout,
	}
}

// ParseTemplateID maps a config name to a TemplateID.
func ParseTemplateID(name string) (TemplateID, error) {
	for id, n := range templateNames {
		if n == name {
			return id, nil
		}
	}
	return templateUnknown, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// Params holds a template's numeric parameters by name.
type Params map[string]float64

// Clone returns a copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Context is everything a template may read for one bar.
type Context struct {
	Indicators     indicators.Snapshot
	PrevIndicators indicators.Snapshot
	Close          float64
	PrevClose      float64
	High           float64
	PrevHigh       float64
	HasPosition    bool
	HourUTC        int
}

// ContextAt builds the context for bar i of frame. Backtests and the live
// decision path both call it so templates see identical inputs.
func ContextAt(frame *indicators.Frame, specs []indicators.Spec, i int, hasPosition bool) Context {
	candles := frame.Candles()
	c := candles[i]
	var prevClose, prevHigh float64
	if i > 0 {
		prevClose, prevHigh = candles[i-1].Close, candles[i-1].High
	}
	return Context{
		Indicators:     frame.Snapshot(specs, i),
		PrevIndicators: frame.Snapshot(specs, i-1),
		Close:          c.Close,
		PrevClose:      prevClose,
		High:           c.High,
		PrevHigh:       prevHigh,
		HasPosition:    hasPosition,
		HourUTC:        time.UnixMilli(c.TimestampMs).UTC().Hour(),
	}
}
