package solana

import (
	"errors"
	"testing"
)

func TestParsePublicKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"wrapped SOL", "So11111111111111111111111111111111111111112", false},
		{"USDC", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", false},
		{"system program", "11111111111111111111111111111111", false},
		{"empty", "", true},
		{"invalid alphabet", "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl", true},
		{"too short", "abc", true},
		{"too long", "So11111111111111111111111111111111111111112So1111", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, err := ParsePublicKey(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPublicKey) {
					t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pk.String() != tt.input {
				t.Errorf("String() = %s, want %s", pk.String(), tt.input)
			}
		})
	}
}

func TestPublicKey_IsOnCurve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"wrapped SOL mint", "So11111111111111111111111111111111111111112", true},
		{"USDC mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", true},
		// y = 2 has no square root for x
		{"off-curve", "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, err := ParsePublicKey(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := pk.IsOnCurve(); got != tt.want {
				t.Errorf("IsOnCurve() = %v, want %v", got, tt.want)
			}
		})
	}
}
