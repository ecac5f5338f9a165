package strategy

import (
	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/indicators"
)

// Evaluate dispatches to the template's rule. A missing indicator yields Hold.
func Evaluate(id TemplateID, p Params, ctx Context) domain.Signal {
	var sig domain.Signal
	switch id {
	case RSIReversion:
		sig = evalRSIReversion(p, ctx)
	case ConnorsRSIReversion:
		sig = evalConnorsRSI(p, ctx)
	case MACDCross:
		sig = evalMACDCross(p, ctx)
	case BollingerReversion:
		sig = evalBollinger(p, ctx)
	case EMACross:
		sig = evalEMACross(p, ctx)
	case ADXTrend:
		sig = evalADXTrend(p, ctx)
	case VWAPReversion:
		sig = evalVWAP(p, ctx)
	case ATRBreakout:
		sig = evalATRBreakout(p, ctx)
	default:
		return domain.SignalHold
	}

	if sig == domain.SignalSell && !ctx.HasPosition {
		return domain.SignalHold
	}
	if sig == domain.SignalBuy && !hourAllowed(p, ctx.HourUTC) {
		return domain.SignalHold
	}
	return sig
}

// decide prefers an exit when a position is open.
func decide(ctx Context, buy, sell bool) domain.Signal {
	if ctx.HasPosition && sell {
		return domain.SignalSell
	}
	if buy {
		return domain.SignalBuy
	}
	return domain.SignalHold
}

func rsiSpec(p Params) indicators.Spec {
	return indicators.Spec{Kind: indicators.KindRSI, Period: intParam(p, "rsi_period")}
}

func evalRSIReversion(p Params, ctx Context) domain.Signal {
	rsi, ok := ctx.Indicators.Get(rsiSpec(p).Key())
	if !ok {
		return domain.SignalHold
	}
	return decide(ctx, rsi <= p["oversold"], rsi >= p["overbought"])
}

func crsiSpec(p Params) indicators.Spec {
	return indicators.Spec{
		Kind:   indicators.KindConnorsRSI,
		Period: intParam(p, "rsi_period"),
		Fast:   intParam(p, "streak_period"),
		Slow:   intParam(p, "rank_period"),
	}
}

func evalConnorsRSI(p Params, ctx Context) domain.Signal {
	crsi, ok := ctx.Indicators.Get(crsiSpec(p).Key())
	if !ok {
		return domain.SignalHold
	}
	return decide(ctx, crsi <= p["entry"], crsi >= p["exit"])
}

func macdSpec(p Params) indicators.Spec {
	return indicators.Spec{
		Kind:   indicators.KindMACD,
		Fast:   intParam(p, "fast"),
		Slow:   intParam(p, "slow"),
		Signal: intParam(p, "signal"),
	}
}

// evalMACDCross trades histogram zero crossings.
func evalMACDCross(p Params, ctx Context) domain.Signal {
	key := macdSpec(p).Output(indicators.OutMACDHist)
	hist, ok1 := ctx.Indicators.Get(key)
	prev, ok2 := ctx.PrevIndicators.Get(key)
	if !ok1 || !ok2 {
		return domain.SignalHold
	}
	return decide(ctx, prev <= 0 && hist > 0, prev >= 0 && hist < 0)
}

func bbSpec(p Params) indicators.Spec {
	return indicators.Spec{Kind: indicators.KindBollinger, Period: intParam(p, "period"), Mult: p["mult"]}
}

// evalBollinger buys below the lower band and exits above the middle band.
func evalBollinger(p Params, ctx Context) domain.Signal {
	spec := bbSpec(p)
	lower, ok1 := ctx.Indicators.Get(spec.Output(indicators.OutBBLower))
	middle, ok2 := ctx.Indicators.Get(spec.Output(indicators.OutBBMiddle))
	if !ok1 || !ok2 {
		return domain.SignalHold
	}
	return decide(ctx, ctx.Close < lower, ctx.Close > middle)
}

func emaCrossSpecs(p Params) (fast, slow indicators.Spec) {
	fast = indicators.Spec{Kind: indicators.KindEMA, Period: intParam(p, "fast")}
	slow = indicators.Spec{Kind: indicators.KindEMA, Period: intParam(p, "slow")}
	return fast, slow
}

func evalEMACross(p Params, ctx Context) domain.Signal {
	fastSpec, slowSpec := emaCrossSpecs(p)
	fast, ok1 := ctx.Indicators.Get(fastSpec.Key())
	slow, ok2 := ctx.Indicators.Get(slowSpec.Key())
	prevFast, ok3 := ctx.PrevIndicators.Get(fastSpec.Key())
	prevSlow, ok4 := ctx.PrevIndicators.Get(slowSpec.Key())
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.SignalHold
	}
	return decide(ctx,
		prevFast <= prevSlow && fast > slow,
		prevFast >= prevSlow && fast < slow)
}

func adxTrendSpecs(p Params) (adx, ema indicators.Spec) {
	adx = indicators.Spec{Kind: indicators.KindADX, Period: intParam(p, "adx_period")}
	ema = indicators.Spec{Kind: indicators.KindEMA, Period: intParam(p, "ema_period")}
	return adx, ema
}

// evalADXTrend buys a close crossing above the EMA while ADX confirms a trend,
// and exits on a close below the EMA.
func evalADXTrend(p Params, ctx Context) domain.Signal {
	adxSpec, emaSpec := adxTrendSpecs(p)
	adx, ok1 := ctx.Indicators.Get(adxSpec.Output(indicators.OutADX))
	ema, ok2 := ctx.Indicators.Get(emaSpec.Key())
	prevEMA, ok3 := ctx.PrevIndicators.Get(emaSpec.Key())
	if !ok1 || !ok2 || !ok3 {
		return domain.SignalHold
	}
	buy := adx >= p["adx_min"] && ctx.PrevClose <= prevEMA && ctx.Close > ema
	return decide(ctx, buy, ctx.Close < ema)
}

func evalVWAP(p Params, ctx Context) domain.Signal {
	vwap, ok := ctx.Indicators.Get(indicators.Spec{Kind: indicators.KindVWAP}.Key())
	if !ok || vwap <= 0 {
		return domain.SignalHold
	}
	return decide(ctx,
		ctx.Close <= vwap*(1-p["discount_pct"]/100),
		ctx.Close >= vwap*(1+p["premium_pct"]/100))
}

func atrSpec(p Params) indicators.Spec {
	return indicators.Spec{Kind: indicators.KindATR, Period: intParam(p, "atr_period")}
}

// evalATRBreakout buys a close above the previous high by mult ATRs and exits
// on a close below the previous close by mult ATRs.
func evalATRBreakout(p Params, ctx Context) domain.Signal {
	atr, ok := ctx.Indicators.Get(atrSpec(p).Key())
	if !ok || ctx.PrevHigh <= 0 || ctx.PrevClose <= 0 {
		return domain.SignalHold
	}
	m := p["mult"]
	return decide(ctx, ctx.Close > ctx.PrevHigh+m*atr, ctx.Close < ctx.PrevClose-m*atr)
}
