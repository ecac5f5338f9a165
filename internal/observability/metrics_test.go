package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordSweepTuple("rsi_reversion", nil)
	m.RecordSweepTuple("rsi_reversion", nil)
	m.RecordSweepTuple("macd_cross", errors.New("boom"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepTuplesTotal.WithLabelValues("rsi_reversion", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepTuplesTotal.WithLabelValues("macd_cross", "error")))

	m.RecordBacktest(3, 100)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BacktestsRun))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TradesSimulated))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.BarsEvaluated))

	m.RecordRegimeRefresh("mintA", 9.5, nil)
	m.RecordRegimeRefresh("mintA", 0, errors.New("load failed"))
	assert.Equal(t, 9.5, testutil.ToFloat64(m.RegimeScore.WithLabelValues("mintA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegimeRefreshes.WithLabelValues("error")))

	m.RecordRegimeTransition("sideways", "uptrend")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegimeTransitions.WithLabelValues("sideways", "uptrend")))

	m.RecordLiveMapReload(4, nil)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LiveMapEntries))

	m.RecordSweep(2*time.Second, 5, 2)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.SweepResults.WithLabelValues("true")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordSweepTuple("x", nil)
	m.RecordSweep(time.Second, 1, 1)
	m.RecordBacktest(1, 1)
	m.RecordRegimeRefresh("mint", 1, nil)
	m.RecordRegimeTransition("a", "b")
	m.ObserveRegimeLoad(time.Millisecond)
	m.RecordLiveMapReload(1, nil)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.RecordBacktest(1, 10)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_backtest_runs_total 1"))
}
