// Command regimed keeps every live token's confirmed trend regime current,
// resolves the active strategy from the live strategy map and logs the signal
// of the latest bar. Order execution is left to an external service.
//
// Endpoints: /health, /metrics (Prometheus), /regimes (JSON snapshot).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"solana-signal-lab/internal/config"
	"solana-signal-lab/internal/live"
	"solana-signal-lab/internal/livemap"
	"solana-signal-lab/internal/logging"
	"solana-signal-lab/internal/normalization"
	"solana-signal-lab/internal/observability"
	"solana-signal-lab/internal/regime"
	"solana-signal-lab/internal/storage"
	chstore "solana-signal-lab/internal/storage/clickhouse"
	"solana-signal-lab/internal/storage/memory"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "YAML config file")
	strategyMap := flag.String("strategy-map", "", "Live strategy map file (overrides live.strategy_map_path)")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for /health, /metrics and /regimes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *strategyMap != "" {
		cfg.Live.StrategyMapPath = *strategyMap
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := cfg.ValidateLive(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("regimed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := observability.NewMetrics(cfg.Metrics.Namespace, reg)

	candles, cleanup, err := openCandleStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	strategies := livemap.NewStore(cfg.Live.StrategyMapPath, livemap.StoreOptions{Logger: logger, Metrics: m})
	mints := cfg.Live.Mints
	if len(mints) == 0 {
		lm, err := strategies.Map()
		if err != nil {
			return fmt.Errorf("load strategy map: %w", err)
		}
		mints = lm.Mints()
	}
	if len(mints) == 0 {
		return errors.New("no mints to track")
	}

	tracker, err := regime.NewTracker(regime.TrackerOptions{Config: cfg.Regime, Logger: logger, Metrics: m})
	if err != nil {
		return err
	}
	scheduler, err := regime.NewScheduler(tracker, candles, regime.SchedulerOptions{
		Mints:          mints,
		Interval:       cfg.Live.RefreshInterval,
		Stagger:        cfg.Live.Stagger,
		Lookback:       cfg.Live.Lookback,
		LoadsPerSecond: cfg.Live.LoadsPerSecond,
		Logger:         logger,
		Metrics:        m,
	})
	if err != nil {
		return err
	}
	decider, err := live.NewDecider(strategies, tracker, logger)
	if err != nil {
		return err
	}

	d := &daemon{
		tracker:      tracker,
		decider:      decider,
		positions:    live.NewPositionBook(cfg.Live.OpenPositions...),
		candles:      candles,
		timeframeMin: cfg.Live.DecisionTimeframeMin,
		lookback:     cfg.Live.Lookback,
		logger:       logger.With("component", "regimed"),
		now:          time.Now,
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           d.routes(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		d.decisionLoop(gctx, mints, cfg.Live.RefreshInterval)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// daemon evaluates the live strategy of each tracked mint.
type daemon struct {
	tracker      *regime.Tracker
	decider      *live.Decider
	positions    *live.PositionBook
	candles      storage.CandleStore
	timeframeMin int
	lookback     time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// decide loads the mint's recent candles at the decision timeframe,
// evaluates its active strategy on the latest bar with the mint's position
// state and records entries and exits in the position book.
func (d *daemon) decide(ctx context.Context, mint string) (live.Decision, error) {
	now := d.now()
	raw, err := d.candles.GetByTimeRange(ctx, mint, now.Add(-d.lookback).UnixMilli(), now.UnixMilli())
	if err != nil {
		return live.Decision{Mint: mint}, fmt.Errorf("load candles %s: %w", mint, err)
	}
	bars, err := normalization.Aggregate(raw, d.timeframeMin)
	if err != nil {
		return live.Decision{Mint: mint}, err
	}
	dec, err := d.decider.Decide(mint, bars, d.positions.HasPosition(mint))
	if err != nil {
		return dec, err
	}
	if d.positions.Apply(dec) {
		d.logger.Info("position updated",
			"mint", mint,
			"signal", dec.Signal.String(),
			"open", d.positions.HasPosition(mint),
		)
	}
	return dec, nil
}

// decideAll evaluates every mint; a failing mint is logged and skipped.
func (d *daemon) decideAll(ctx context.Context, mints []string) []live.Decision {
	out := make([]live.Decision, 0, len(mints))
	for _, mint := range mints {
		if ctx.Err() != nil {
			break
		}
		dec, err := d.decide(ctx, mint)
		if err != nil {
			d.logger.Warn("decision failed", "mint", mint, "error", err)
			continue
		}
		d.logger.Debug("decision",
			"mint", mint,
			"regime", dec.Regime,
			"signal", dec.Signal.String(),
			"reason", dec.Reason,
		)
		out = append(out, dec)
	}
	return out
}

func (d *daemon) decisionLoop(ctx context.Context, mints []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.decideAll(ctx, mints)
		}
	}
}

// regimeView is the JSON shape of one mint's regime state.
type regimeView struct {
	Mint         string    `json:"mint"`
	Confirmed    string    `json:"confirmed"`
	Pending      string    `json:"pending,omitempty"`
	PendingCount int       `json:"pending_count"`
	Position     bool      `json:"position"`
	Score        float64   `json:"score"`
	Updated      time.Time `json:"updated"`
}

func (d *daemon) routes(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", observability.Handler(g))
	mux.HandleFunc("/regimes", d.handleRegimes)
	return mux
}

func (d *daemon) handleRegimes(w http.ResponseWriter, _ *http.Request) {
	snapshot := d.tracker.Snapshot()
	views := make([]regimeView, 0, len(snapshot))
	for mint, st := range snapshot {
		views = append(views, regimeView{
			Mint:         mint,
			Confirmed:    st.Confirmed.String(),
			Pending:      st.Pending.String(),
			PendingCount: st.PendingCount,
			Position:     d.positions.HasPosition(mint),
			Score:        st.LastScore,
			Updated:      st.LastUpdated,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Mint < views[j].Mint })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		d.logger.Warn("encode regimes", "error", err)
	}
}

// openCandleStore returns ClickHouse, or the CSV files of the candles
// directory loaded into memory.
func openCandleStore(ctx context.Context, sc config.Storage, logger *slog.Logger) (storage.CandleStore, func(), error) {
	if sc.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, sc.ClickhouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return chstore.NewCandleStore(conn), func() { _ = conn.Close() }, nil
	}

	store := memory.NewCandleStore()
	paths, err := filepath.Glob(filepath.Join(sc.CandlesDir, "*.csv"))
	if err != nil {
		return nil, nil, err
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		candles, skipped, err := normalization.ParseCSV(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		mint := filepath.Base(path)
		mint = mint[:len(mint)-len(".csv")]
		if err := store.InsertBulk(ctx, mint, candles); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		logger.Info("loaded candles", "mint", mint, "candles", len(candles), "skipped", skipped)
	}
	return store, func() {}, nil
}
