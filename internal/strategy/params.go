package strategy

import (
	"fmt"
	"math"
)

// Optional parameters accepted by every template.
const (
	ParamHourStart = "hour_start"
	ParamHourEnd   = "hour_end"
)

// paramSpec describes one template parameter.
type paramSpec struct {
	name    string
	integer bool
	min     float64
	max     float64
}

func period(name string) paramSpec {
	return paramSpec{name: name, integer: true, min: 1, max: 1000}
}

func level(name string) paramSpec {
	return paramSpec{name: name, min: 0, max: 100}
}

func positive(name string) paramSpec {
	return paramSpec{name: name, min: 0, max: math.MaxFloat64}
}

// paramSpecs returns the required parameters of a template.
func paramSpecs(id TemplateID) ([]paramSpec, error) {
	switch id {
	case RSIReversion:
		return []paramSpec{period("rsi_period"), level("oversold"), level("overbought")}, nil
	case ConnorsRSIReversion:
		return []paramSpec{
			period("rsi_period"), period("streak_period"), period("rank_period"),
			level("entry"), level("exit"),
		}, nil
	case MACDCross:
		return []paramSpec{period("fast"), period("slow"), period("signal")}, nil
	case BollingerReversion:
		return []paramSpec{period("period"), positive("mult")}, nil
	case EMACross:
		return []paramSpec{period("fast"), period("slow")}, nil
	case ADXTrend:
		return []paramSpec{period("adx_period"), level("adx_min"), period("ema_period")}, nil
	case VWAPReversion:
		return []paramSpec{positive("discount_pct"), positive("premium_pct")}, nil
	case ATRBreakout:
		return []paramSpec{period("atr_period"), positive("mult")}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
}

// ParamNames returns the required parameter names of a template.
func ParamNames(id TemplateID) ([]string, error) {
	specs, err := paramSpecs(id)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.name
	}
	return names, nil
}

// Validate checks that params satisfy the template's requirements.
func Validate(id TemplateID, params Params) error {
	specs, err := paramSpecs(id)
	if err != nil {
		return err
	}

	known := map[string]bool{ParamHourStart: true, ParamHourEnd: true}
	for _, s := range specs {
		known[s.name] = true
		v, ok := params[s.name]
		if !ok {
			return fmt.Errorf("%w: %s requires %s", ErrMissingParam, id, s.name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s.%s is not finite", ErrInvalidParam, id, s.name)
		}
		if s.integer && v != math.Trunc(v) {
			return fmt.Errorf("%w: %s.%s must be an integer, got %v", ErrInvalidParam, id, s.name, v)
		}
		if v < s.min || v > s.max {
			return fmt.Errorf("%w: %s.%s=%v out of range [%v, %v]", ErrInvalidParam, id, s.name, v, s.min, s.max)
		}
	}

	for name, v := range params {
		if !known[name] {
			return fmt.Errorf("%w: %s does not accept %s", ErrInvalidParam, id, name)
		}
		if name == ParamHourStart || name == ParamHourEnd {
			if v != math.Trunc(v) || v < 0 || v > 23 {
				return fmt.Errorf("%w: %s must be an hour in [0, 23], got %v", ErrInvalidParam, name, v)
			}
		}
	}
	_, hasStart := params[ParamHourStart]
	_, hasEnd := params[ParamHourEnd]
	if hasStart != hasEnd {
		return fmt.Errorf("%w: %s and %s must be set together", ErrInvalidParam, ParamHourStart, ParamHourEnd)
	}

	return validateRelations(id, params)
}

// validateRelations checks cross-parameter constraints.
func validateRelations(id TemplateID, p Params) error {
	switch id {
	case RSIReversion:
		if p["oversold"] >= p["overbought"] {
			return fmt.Errorf("%w: oversold must be below overbought", ErrInvalidParam)
		}
	case ConnorsRSIReversion:
		if p["entry"] >= p["exit"] {
			return fmt.Errorf("%w: entry must be below exit", ErrInvalidParam)
		}
	case MACDCross, EMACross:
		if p["fast"] >= p["slow"] {
			return fmt.Errorf("%w: fast must be below slow", ErrInvalidParam)
		}
	case BollingerReversion, ADXTrend, VWAPReversion, ATRBreakout:
	}
	return nil
}

// hourAllowed reports whether buys are allowed at hour. The window
// [hour_start, hour_end) wraps past midnight when start > end; equal bounds
// allow every hour.
func hourAllowed(p Params, hour int) bool {
	start, ok1 := p[ParamHourStart]
	end, ok2 := p[ParamHourEnd]
	if !ok1 || !ok2 {
		return true
	}
	s, e := int(start), int(end)
	switch {
	case s == e:
		return true
	case s < e:
		return hour >= s && hour < e
	default:
		return hour >= s || hour < e
	}
}

func intParam(p Params, name string) int {
	return int(p[name])
}
