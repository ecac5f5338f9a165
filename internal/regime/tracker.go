package regime

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/observability"
)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	Config  Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Now     func() time.Time // defaults to time.Now
}

// Tracker owns per-mint regime state.
// Reads are lock-free; updates for one mint are serialized.
type Tracker struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time

	states sync.Map // mint -> *atomic.Pointer[domain.RegimeState]
	locks  sync.Map // mint -> *sync.Mutex
}

// NewTracker creates a Tracker. Returns an error if the config is invalid.
func NewTracker(opts TrackerOptions) (*Tracker, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		cfg:     opts.Config,
		logger:  logger.With("component", "regime"),
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// Config returns the tracker's classification config.
func (t *Tracker) Config() Config {
	return t.cfg
}

// State returns the last stored state for mint.
// ok is false when the mint was never refreshed.
func (t *Tracker) State(mint string) (domain.RegimeState, bool) {
	v, found := t.states.Load(mint)
	if !found {
		return InitialState(), false
	}
	st := v.(*atomic.Pointer[domain.RegimeState]).Load()
	if st == nil {
		return InitialState(), false
	}
	return *st, true
}

// Regime returns the confirmed regime for mint, sideways when unknown.
func (t *Tracker) Regime(mint string) domain.Regime {
	st, _ := t.State(mint)
	return st.Confirmed
}

// Snapshot returns the states of every tracked mint.
func (t *Tracker) Snapshot() map[string]domain.RegimeState {
	out := make(map[string]domain.RegimeState)
	t.states.Range(func(k, v any) bool {
		if st := v.(*atomic.Pointer[domain.RegimeState]).Load(); st != nil {
			out[k.(string)] = *st
		}
		return true
	})
	return out
}

// Update classifies candles for mint and applies one hysteresis cycle.
// Returns the reading and the new state.
func (t *Tracker) Update(mint string, candles []domain.Candle) (Reading, domain.RegimeState) {
	reading := Read(candles, t.cfg)

	mu, _ := t.locks.LoadOrStore(mint, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	ptr := t.pointer(mint)
	prev := InitialState()
	if st := ptr.Load(); st != nil {
		prev = *st
	}

	next := Transition(prev, reading.Raw, reading.Score, t.cfg)
	next.LastUpdated = t.now()
	ptr.Store(&next)

	t.metrics.RecordRegimeRefresh(mint, reading.Score, nil)
	if next.Confirmed != prev.Confirmed {
		t.metrics.RecordRegimeTransition(string(prev.Confirmed), string(next.Confirmed))
		t.logger.Info("regime transition",
			"mint", mint,
			"from", prev.Confirmed,
			"to", next.Confirmed,
			"score", reading.Score,
			"ret_24h", fmtReturn(reading.Returns.R24),
			"ret_48h", fmtReturn(reading.Returns.R48),
			"ret_72h", fmtReturn(reading.Returns.R72),
			"ret_168h", fmtReturn(reading.Returns.R168),
			"coverage_hours", reading.CoverageHours,
		)
	} else if next.Pending != "" && next.Pending != prev.Pending {
		t.logger.Debug("regime transition pending",
			"mint", mint,
			"confirmed", next.Confirmed,
			"pending", next.Pending,
			"score", reading.Score,
		)
	}
	return reading, next
}

func (t *Tracker) pointer(mint string) *atomic.Pointer[domain.RegimeState] {
	v, _ := t.states.LoadOrStore(mint, new(atomic.Pointer[domain.RegimeState]))
	return v.(*atomic.Pointer[domain.RegimeState])
}

func fmtReturn(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
