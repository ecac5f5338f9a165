package strategy

import (
	"errors"
	"fmt"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/indicators"
)

// Template errors
var (
	ErrUnknownTemplate = errors.New("unknown strategy template")
	ErrMissingParam    = errors.New("missing template parameter")
	ErrInvalidParam    = errors.New("invalid template parameter")
)

// Template is a validated template bound to its parameters.
type Template struct {
	ID     TemplateID
	Params Params

	specs    []indicators.Spec
	required int
}

// Bind validates params and binds them to the template.
func Bind(id TemplateID, params Params) (*Template, error) {
	if err := Validate(id, params); err != nil {
		return nil, err
	}
	specs := Indicators(id, params)
	return &Template{
		ID:       id,
		Params:   params.Clone(),
		specs:    specs,
		required: requiredHistory(id, specs),
	}, nil
}

// FromConfig binds a live strategy map entry's template and params.
func FromConfig(cfg domain.RegimeStrategy) (*Template, error) {
	id, err := ParseTemplateID(cfg.Template)
	if err != nil {
		return nil, err
	}
	return Bind(id, Params(cfg.Params))
}

// Evaluate returns the template's signal for one bar.
func (t *Template) Evaluate(ctx Context) domain.Signal {
	return Evaluate(t.ID, t.Params, ctx)
}

// Indicators returns the indicator specs the template reads.
func (t *Template) Indicators() []indicators.Spec {
	return t.specs
}

// RequiredHistory returns the first candle index at which the template can
// be evaluated with every indicator it reads available.
func (t *Template) RequiredHistory() int {
	return t.required
}

// Name returns a readable identifier including parameters.
func (t *Template) Name() string {
	return fmt.Sprintf("%s%v", t.ID, map[string]float64(t.Params))
}

// Indicators returns the indicator specs a template reads for params.
// Params are assumed valid.
func Indicators(id TemplateID, p Params) []indicators.Spec {
	switch id {
	case RSIReversion:
		return []indicators.Spec{rsiSpec(p)}
	case ConnorsRSIReversion:
		return []indicators.Spec{crsiSpec(p)}
	case MACDCross:
		return []indicators.Spec{macdSpec(p)}
	case BollingerReversion:
		return []indicators.Spec{bbSpec(p)}
	case EMACross:
		fast, slow := emaCrossSpecs(p)
		return []indicators.Spec{fast, slow}
	case ADXTrend:
		adx, ema := adxTrendSpecs(p)
		return []indicators.Spec{adx, ema}
	case VWAPReversion:
		return []indicators.Spec{{Kind: indicators.KindVWAP}}
	case ATRBreakout:
		return []indicators.Spec{atrSpec(p)}
	default:
		return nil
	}
}

// usesPrevious reports whether a template reads the previous bar.
func usesPrevious(id TemplateID) bool {
	switch id {
	case MACDCross, EMACross, ADXTrend, ATRBreakout:
		return true
	case RSIReversion, ConnorsRSIReversion, BollingerReversion, VWAPReversion:
		return false
	default:
		return false
	}
}

func requiredHistory(id TemplateID, specs []indicators.Spec) int {
	req := 0
	for _, s := range specs {
		req = max(req, s.MinHistory())
	}
	if usesPrevious(id) {
		req++
	}
	return req
}
