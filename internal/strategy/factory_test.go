package strategy

import (
	"errors"
	"testing"

	"solana-signal-lab/internal/domain"
)

func TestParseTemplateID_AllNamesRoundTrip(t *testing.T) {
	for _, id := range AllTemplates() {
		got, err := ParseTemplateID(id.String())
		if err != nil {
			t.Fatalf("ParseTemplateID(%q) failed: %v", id, err)
		}
		if got != id {
			t.Errorf("expected %v, got %v", id, got)
		}
	}
}

func TestParseTemplateID_Unknown(t *testing.T) {
	_, err := ParseTemplateID("moon_shot")
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestEveryTemplateHasParamSpecs(t *testing.T) {
	for _, id := range AllTemplates() {
		names, err := ParamNames(id)
		if err != nil {
			t.Errorf("%s: %v", id, err)
		}
		if len(names) == 0 {
			t.Errorf("%s: no params", id)
		}
	}
	if _, err := ParamNames(templateUnknown); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      TemplateID
		params  Params
		wantErr error
	}{
		{"valid rsi", RSIReversion, Params{"rsi_period": 14, "oversold": 30, "overbought": 70}, nil},
		{"missing", RSIReversion, Params{"rsi_period": 14, "oversold": 30}, ErrMissingParam},
		{"non-integer period", RSIReversion, Params{"rsi_period": 14.5, "oversold": 30, "overbought": 70}, ErrInvalidParam},
		{"zero period", EMACross, Params{"fast": 0, "slow": 20}, ErrInvalidParam},
		{"level out of range", RSIReversion, Params{"rsi_period": 14, "oversold": -1, "overbought": 70}, ErrInvalidParam},
		{"inverted levels", RSIReversion, Params{"rsi_period": 14, "oversold": 70, "overbought": 30}, ErrInvalidParam},
		{"fast not below slow", MACDCross, Params{"fast": 26, "slow": 12, "signal": 9}, ErrInvalidParam},
		{"unknown param", BollingerReversion, Params{"period": 20, "mult": 2, "bogus": 1}, ErrInvalidParam},
		{"hour window", VWAPReversion, Params{"discount_pct": 2, "premium_pct": 2, "hour_start": 22, "hour_end": 4}, nil},
		{"half hour window", VWAPReversion, Params{"discount_pct": 2, "premium_pct": 2, "hour_start": 22}, ErrInvalidParam},
		{"bad hour", VWAPReversion, Params{"discount_pct": 2, "premium_pct": 2, "hour_start": 24, "hour_end": 4}, ErrInvalidParam},
		{"unknown template", templateUnknown, Params{}, ErrUnknownTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id, tt.params)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBind_RequiredHistory(t *testing.T) {
	tests := []struct {
		id     TemplateID
		params Params
		want   int
	}{
		{RSIReversion, Params{"rsi_period": 14, "oversold": 30, "overbought": 70}, 14},
		{ConnorsRSIReversion, Params{"rsi_period": 3, "streak_period": 2, "rank_period": 100, "entry": 10, "exit": 90}, 101},
		{MACDCross, Params{"fast": 12, "slow": 26, "signal": 9}, 34},
		{BollingerReversion, Params{"period": 20, "mult": 2}, 19},
		{EMACross, Params{"fast": 9, "slow": 21}, 21},
		{ADXTrend, Params{"adx_period": 14, "adx_min": 25, "ema_period": 50}, 50},
		{VWAPReversion, Params{"discount_pct": 2, "premium_pct": 2}, 0},
		{ATRBreakout, Params{"atr_period": 14, "mult": 1.5}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			tpl, err := Bind(tt.id, tt.params)
			if err != nil {
				t.Fatalf("Bind failed: %v", err)
			}
			if got := tpl.RequiredHistory(); got != tt.want {
				t.Errorf("expected required history %d, got %d", tt.want, got)
			}
			if len(tpl.Indicators()) == 0 {
				t.Error("expected at least one indicator spec")
			}
		})
	}
}

func TestBind_CopiesParams(t *testing.T) {
	params := Params{"fast": 9, "slow": 21}
	tpl, err := Bind(EMACross, params)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	params["fast"] = 50
	if tpl.Params["fast"] != 9 {
		t.Errorf("expected bound params to be isolated, got %v", tpl.Params["fast"])
	}
}

func TestFromConfig(t *testing.T) {
	tpl, err := FromConfig(domain.RegimeStrategy{
		Enabled:  true,
		Template: "bollinger_reversion",
		Params:   map[string]float64{"period": 20, "mult": 2},
	})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if tpl.ID != BollingerReversion {
		t.Errorf("expected bollinger_reversion, got %v", tpl.ID)
	}

	_, err = FromConfig(domain.RegimeStrategy{Template: "nope"})
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}
