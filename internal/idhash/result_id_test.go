package idhash

import (
	"testing"
)

func TestComputeResultID(t *testing.T) {
	tests := []struct {
		name         string
		sweepID      string
		template     string
		token        string
		timeframeMin int
		params       string
		exitMode     string
	}{
		{
			name:         "rsi reversion",
			sweepID:      "0b7c9d9e-8a51-4d5e-9f39-5f8f2d0b1c11",
			template:     "rsi_reversion",
			token:        "So11111111111111111111111111111111111111112",
			timeframeMin: 15,
			params:       "rsi_buy=30,rsi_period=14,rsi_sell=70",
			exitMode:     "strategy",
		},
		{
			name:         "empty params",
			sweepID:      "run",
			template:     "vwap_reversion",
			token:        "mint",
			timeframeMin: 1,
			params:       "",
			exitMode:     "parity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeResultID(tt.sweepID, tt.template, tt.token, tt.timeframeMin, tt.params, tt.exitMode)

			if len(got) != 64 {
				t.Errorf("ComputeResultID() length = %d, want 64", len(got))
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeResultID(tt.sweepID, tt.template, tt.token, tt.timeframeMin, tt.params, tt.exitMode)
			if got != got2 {
				t.Errorf("ComputeResultID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeResultID_DifferentInputs(t *testing.T) {
	base := ComputeResultID("s", "rsi_reversion", "mint", 15, "rsi_period=14", "strategy")

	variants := []string{
		ComputeResultID("s2", "rsi_reversion", "mint", 15, "rsi_period=14", "strategy"),
		ComputeResultID("s", "macd_cross", "mint", 15, "rsi_period=14", "strategy"),
		ComputeResultID("s", "rsi_reversion", "mint2", 15, "rsi_period=14", "strategy"),
		ComputeResultID("s", "rsi_reversion", "mint", 5, "rsi_period=14", "strategy"),
		ComputeResultID("s", "rsi_reversion", "mint", 15, "rsi_period=7", "strategy"),
		ComputeResultID("s", "rsi_reversion", "mint", 15, "rsi_period=14", "parity"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}
