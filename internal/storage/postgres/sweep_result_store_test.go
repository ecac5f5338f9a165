package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/storage"
)

func createTestSweepResult(id, sweepID string) *domain.SweepResult {
	ret := 4.5
	return &domain.SweepResult{
		ID:           id,
		SweepID:      sweepID,
		Template:     "rsi_reversion",
		Token:        "MintA",
		TimeframeMin: 5,
		ExitMode:     "strategy",
		Params:       map[string]float64{"rsi_period": 14, "oversold": 30, "overbought": 70},
		ParamString:  "overbought=70,oversold=30,rsi_period=14",
		Metrics: domain.BacktestMetrics{
			TradeCount:   12,
			WinRate:      58.3,
			TotalPnLPct:  21.4,
			ProfitFactor: 1.8,
			Sharpe:       0.42,
		},
		Annotation: domain.Annotation{
			Ret24h:        &ret,
			TrendScore:    3.1,
			Regime:        domain.RegimeSideways,
			CoverageHours: 72,
		},
		Eligible: true,
		Rank:     1,
	}
}

func TestSweepResultStore_InsertBulkAndGetBySweepID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepResultStore(pool)

	results := []*domain.SweepResult{
		createTestSweepResult("r2", "sweep-1"),
		createTestSweepResult("r1", "sweep-1"),
		createTestSweepResult("r3", "sweep-2"),
	}
	require.NoError(t, store.InsertBulk(ctx, results))

	got, err := store.GetBySweepID(ctx, "sweep-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)

	r := got[0]
	assert.Equal(t, "rsi_reversion", r.Template)
	assert.Equal(t, 5, r.TimeframeMin)
	assert.Equal(t, 14.0, r.Params["rsi_period"])
	assert.Equal(t, 12, r.Metrics.TradeCount)
	assert.InDelta(t, 0.42, r.Metrics.Sharpe, 1e-9)
	require.NotNil(t, r.Annotation.Ret24h)
	assert.InDelta(t, 4.5, *r.Annotation.Ret24h, 1e-9)
	assert.Nil(t, r.Annotation.Ret168h)
	assert.Equal(t, domain.RegimeSideways, r.Annotation.Regime)
	assert.True(t, r.Eligible)
	assert.Equal(t, 1, r.Rank)
}

func TestSweepResultStore_DuplicateFailsBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSweepResultStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SweepResult{createTestSweepResult("r1", "sweep-1")}))

	err := store.InsertBulk(ctx, []*domain.SweepResult{
		createTestSweepResult("r2", "sweep-1"),
		createTestSweepResult("r1", "sweep-1"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetBySweepID(ctx, "sweep-1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "batch must roll back")
}
