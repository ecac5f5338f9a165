package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/live"
	"solana-signal-lab/internal/livemap"
	"solana-signal-lab/internal/regime"
	"solana-signal-lab/internal/storage/memory"
)

const testMint = "So11111111111111111111111111111111111111112"

const strategyMap = testMint + `:
  template: rsi_reversion
  params: {rsi_period: 5, oversold: 30, overbought: 70}
`

func minuteCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		c := 100 + 10*math.Sin(float64(i)/5)
		out[i] = domain.Candle{TimestampMs: int64(i) * 60_000, Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return out
}

func newTestDaemon(t *testing.T, candles []domain.Candle) *daemon {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewCandleStore()
	require.NoError(t, store.InsertBulk(context.Background(), testMint, candles))

	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strategyMap), 0o644))
	strategies := livemap.NewStore(path, livemap.StoreOptions{Logger: logger})

	tracker, err := regime.NewTracker(regime.TrackerOptions{Config: regime.DefaultConfig(), Logger: logger})
	require.NoError(t, err)
	decider, err := live.NewDecider(strategies, tracker, logger)
	require.NoError(t, err)

	last := candles[len(candles)-1].TimestampMs
	return &daemon{
		tracker:      tracker,
		decider:      decider,
		positions:    live.NewPositionBook(),
		candles:      store,
		timeframeMin: 1,
		lookback:     24 * time.Hour,
		logger:       logger,
		now:          func() time.Time { return time.UnixMilli(last) },
	}
}

func TestDaemon_Decide(t *testing.T) {
	candles := minuteCandles(120)
	d := newTestDaemon(t, candles)

	dec, err := d.decide(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, live.ReasonSignal, dec.Reason)
	assert.Equal(t, domain.RegimeSideways, dec.Regime)
	assert.Equal(t, candles[len(candles)-1].TimestampMs, dec.BarTime)
	require.NotNil(t, dec.Strategy)
	assert.Equal(t, "rsi_reversion", dec.Strategy.Template)
}

// risingTail appends n bars that each close step higher than the last.
func risingTail(candles []domain.Candle, n int, step float64) []domain.Candle {
	out := append([]domain.Candle(nil), candles...)
	last := out[len(out)-1]
	for i := 1; i <= n; i++ {
		c := last.Close + step*float64(i)
		out = append(out, domain.Candle{
			TimestampMs: last.TimestampMs + int64(i)*60_000,
			Open:        c, High: c, Low: c, Close: c, Volume: 1,
		})
	}
	return out
}

func TestDaemon_DecideExitsOpenPosition(t *testing.T) {
	candles := risingTail(minuteCandles(120), 10, 3)

	flat := newTestDaemon(t, candles)
	dec, err := flat.decide(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalHold, dec.Signal, "overbought without a position")

	d := newTestDaemon(t, candles)
	d.positions = live.NewPositionBook(testMint)
	dec, err = d.decide(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, live.ReasonSignal, dec.Reason)
	assert.Equal(t, domain.SignalSell, dec.Signal)
	assert.False(t, d.positions.HasPosition(testMint))
}

func TestDaemon_DecideAll(t *testing.T) {
	d := newTestDaemon(t, minuteCandles(120))

	decisions := d.decideAll(context.Background(), []string{testMint, "unknown"})
	require.Len(t, decisions, 2)
	assert.Equal(t, live.ReasonSignal, decisions[0].Reason)
	assert.Equal(t, live.ReasonNoStrategy, decisions[1].Reason)
}

func TestDaemon_Routes(t *testing.T) {
	candles := minuteCandles(120)
	d := newTestDaemon(t, candles)
	d.tracker.Update(testMint, candles)

	srv := httptest.NewServer(d.routes(prometheus.NewRegistry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/regimes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []regimeView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, testMint, views[0].Mint)
	assert.Equal(t, "sideways", views[0].Confirmed)
	assert.False(t, views[0].Position)
}
