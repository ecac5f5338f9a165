package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-signal-lab/internal/config"
	"solana-signal-lab/internal/cost"
	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveCost_Fixed(t *testing.T) {
	cc := config.Cost{Model: config.CostModelFixed, RoundTripPct: 1.2}
	got, err := resolveCost(context.Background(), cc, nil, 0, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, domain.CostModelFixed, got.Model)
	assert.Equal(t, 1.2, got.RoundTripPct)
}

func TestResolveCost_EmpiricalFallback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewImpactSampleStore()
	require.NoError(t, store.Insert(ctx, &domain.ImpactSample{Signature: "s1", Mint: "m", TimestampMs: 1000, ImpactPct: 0.4}))

	cc := config.Cost{Model: config.CostModelEmpirical, RoundTripPct: 1.5, FixedFeePct: 0.25, SampleDays: 1}

	_, err := resolveCost(ctx, cc, store, 2000, quietLogger())
	assert.ErrorIs(t, err, cost.ErrInsufficientSamples)

	cc.FallbackToFixed = true
	got, err := resolveCost(ctx, cc, store, 2000, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, domain.CostModelFixed, got.Model)
	assert.Equal(t, 1.5, got.RoundTripPct)

	got, err = resolveCost(ctx, cc, nil, 2000, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, domain.CostModelFixed, got.Model)
}

func TestResolveCost_Empirical(t *testing.T) {
	ctx := context.Background()
	store := memory.NewImpactSampleStore()
	for i := 0; i < cost.MinEmpiricalSamples; i++ {
		require.NoError(t, store.Insert(ctx, &domain.ImpactSample{
			Signature:   fmt.Sprintf("sig-%d", i),
			Mint:        "m",
			TimestampMs: int64(1000 + i),
			ImpactPct:   0.5,
		}))
	}

	cc := config.Cost{Model: config.CostModelEmpirical, FixedFeePct: 0.25, SampleDays: 1}
	got, err := resolveCost(ctx, cc, store, 10_000, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, domain.CostModelEmpirical, got.Model)
	assert.InDelta(t, 1.5, got.RoundTripPct, 1e-9)
	assert.Equal(t, cost.MinEmpiricalSamples, got.SampleSize)
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	csv := "timestamp,open,high,low,close,volume\n" +
		"60000,1,2,0.5,1.5,3\n" +
		"120000,1.5,2.5,1,2,4\n" +
		"bad,row\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mintA.csv"), []byte(csv), 0o644))

	store, err := loadCSVDir(context.Background(), dir, []string{"mintA", "mintB", "mintA"}, quietLogger())
	require.NoError(t, err)

	candles, err := store.GetByTimeRange(context.Background(), "mintA", 0, 1_000_000)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 2.0, candles[1].Close)

	mints, err := store.ListMints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mintA"}, mints)
}

func TestSweepConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sweep.Templates = []config.TemplateGrid{{Template: "ema_cross", Grid: map[string][]float64{"fast": {5}, "slow": {20}}}}
	cfg.Sweep.Tokens = []string{"mintA"}
	cfg.Backtest.StopLossPct = 7

	sc := sweepConfig(cfg, 1, 2, domain.CostConfig{Model: domain.CostModelFixed, RoundTripPct: 1})
	require.Len(t, sc.Templates, 1)
	assert.Equal(t, []float64{5}, sc.Templates[0].Grid["fast"])
	assert.Equal(t, int64(1), sc.FromMs)
	assert.Equal(t, 7.0, sc.Backtest.StopLossPct)
	assert.Equal(t, 1.0, sc.Backtest.Cost.RoundTripPct)
	assert.Equal(t, cfg.Regime, sc.Regime)
}
