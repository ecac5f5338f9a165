// Command sweep runs strategy templates over parameter grids, tokens,
// timeframes and exit modes, then writes ranked CSV, Parquet and Markdown
// exports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"solana-signal-lab/internal/backtest"
	"solana-signal-lab/internal/config"
	"solana-signal-lab/internal/cost"
	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/logging"
	"solana-signal-lab/internal/normalization"
	"solana-signal-lab/internal/observability"
	"solana-signal-lab/internal/reporting"
	"solana-signal-lab/internal/storage"
	chstore "solana-signal-lab/internal/storage/clickhouse"
	"solana-signal-lab/internal/storage/memory"
	"solana-signal-lab/internal/storage/migrations"
	pgstore "solana-signal-lab/internal/storage/postgres"
	"solana-signal-lab/internal/sweep"
)

func main() {
	// .env values never override variables already set
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "YAML config file")
	candlesDir := flag.String("candles-dir", "", "Directory of <mint>.csv 1-minute candles (overrides storage.candles_dir)")
	outputDir := flag.String("output-dir", "", "Export directory (overrides sweep.output_dir)")
	concurrency := flag.Int("concurrency", 0, "Concurrent backtests (overrides sweep.concurrency)")
	noPersist := flag.Bool("no-persist", false, "Do not store results in PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *candlesDir != "" {
		cfg.Storage.CandlesDir = *candlesDir
	}
	if *outputDir != "" {
		cfg.Sweep.OutputDir = *outputDir
	}
	if *concurrency > 0 {
		cfg.Sweep.Concurrency = *concurrency
	}
	if err := cfg.ValidateSweep(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, !*noPersist, logger); err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, persist bool, logger *slog.Logger) error {
	fromMs, toMs, err := cfg.Sweep.Window()
	if err != nil {
		return err
	}

	var pool *pgstore.Pool
	if cfg.Storage.PostgresDSN != "" {
		pool, err = pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			logger.Info("applied postgres migrations", "versions", applied)
		}
	}

	candles, closeCandles, err := openCandleStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCandles()

	var impacts storage.ImpactSampleStore
	if pool != nil {
		impacts = pgstore.NewImpactSampleStore(pool)
	}
	costCfg, err := resolveCost(ctx, cfg.Cost, impacts, toMs, logger)
	if err != nil {
		return err
	}
	logger.Info("round-trip cost", "model", costCfg.Model, "pct", costCfg.RoundTripPct, "samples", costCfg.SampleSize)

	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(cfg.Metrics.Namespace, reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: observability.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
		defer srv.Close()
	}

	opts := sweep.Options{Candles: candles, Logger: logger, Metrics: m}
	if pool != nil && persist {
		opts.Results = pgstore.NewSweepResultStore(pool)
	}

	orch, err := sweep.NewOrchestrator(sweepConfig(cfg, fromMs, toMs, costCfg), opts)
	if err != nil {
		return err
	}
	report, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	return writeExports(cfg.Sweep, report, logger)
}

// sweepConfig maps the file config onto the orchestrator config.
func sweepConfig(cfg *config.Config, fromMs, toMs int64, costCfg domain.CostConfig) sweep.Config {
	templates := make([]sweep.TemplateGrid, 0, len(cfg.Sweep.Templates))
	for _, tg := range cfg.Sweep.Templates {
		templates = append(templates, sweep.TemplateGrid{Template: tg.Template, Grid: sweep.Grid(tg.Grid)})
	}
	return sweep.Config{
		Templates:     templates,
		Tokens:        cfg.Sweep.Tokens,
		TimeframesMin: cfg.Sweep.TimeframesMin,
		ExitModes:     cfg.Sweep.ExitModes,
		FromMs:        fromMs,
		ToMs:          toMs,
		BaselineMint:  cfg.Sweep.BaselineMint,
		MinTrades:     cfg.Sweep.MinTrades,
		Concurrency:   cfg.Sweep.Concurrency,
		Backtest: backtest.Options{
			Cost:            costCfg,
			StopLossPct:     cfg.Backtest.StopLossPct,
			TakeProfitPct:   cfg.Backtest.TakeProfitPct,
			TrailingStopPct: cfg.Backtest.TrailingStopPct,
			MaxHoldBars:     cfg.Backtest.MaxHoldBars,
			MaxPositions:    cfg.Backtest.MaxPositions,
		},
		Regime: cfg.Regime,
	}
}

// openCandleStore returns the candle source: CSV files loaded into memory when
// a candles directory is set, ClickHouse otherwise.
func openCandleStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.CandleStore, func(), error) {
	if dir := cfg.Storage.CandlesDir; dir != "" {
		mints := cfg.Sweep.Tokens
		if cfg.Sweep.BaselineMint != "" {
			mints = append(append([]string(nil), mints...), cfg.Sweep.BaselineMint)
		}
		store, err := loadCSVDir(ctx, dir, mints, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	return chstore.NewCandleStore(conn), func() { _ = conn.Close() }, nil
}

// loadCSVDir reads <dir>/<mint>.csv for every mint. Missing files are logged
// and left empty so the orchestrator reports the token as skipped.
func loadCSVDir(ctx context.Context, dir string, mints []string, logger *slog.Logger) (*memory.CandleStore, error) {
	store := memory.NewCandleStore()
	seen := make(map[string]bool, len(mints))
	for _, mint := range mints {
		if seen[mint] {
			continue
		}
		seen[mint] = true

		path := filepath.Join(dir, mint+".csv")
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("no candle file", "mint", mint, "path", path)
			continue
		}
		if err != nil {
			return nil, err
		}
		candles, skipped, err := normalization.ParseCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if skipped > 0 {
			logger.Warn("skipped malformed candle rows", "mint", mint, "skipped", skipped)
		}
		if err := store.InsertBulk(ctx, mint, candles); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		logger.Debug("loaded candles", "mint", mint, "candles", len(candles))
	}
	return store, nil
}

// resolveCost builds the round-trip cost. An empirical cost without enough
// impact samples falls back to the fixed cost only when configured to.
func resolveCost(ctx context.Context, cc config.Cost, impacts storage.ImpactSampleStore, toMs int64, logger *slog.Logger) (domain.CostConfig, error) {
	if cc.Model == config.CostModelFixed {
		return cost.Fixed(cc.RoundTripPct)
	}

	var (
		costCfg domain.CostConfig
		err     error
	)
	if impacts == nil {
		err = fmt.Errorf("%w: no impact sample store", cost.ErrInsufficientSamples)
	} else {
		fromMs := toMs - int64(cc.SampleDays)*24*time.Hour.Milliseconds()
		costCfg, err = cost.LoadEmpiricalCost(ctx, impacts, fromMs, toMs, cc.FixedFeePct)
	}
	if err == nil {
		return costCfg, nil
	}
	if cc.FallbackToFixed && errors.Is(err, cost.ErrInsufficientSamples) {
		logger.Warn("empirical cost unavailable, using fixed cost", "error", err, "round_trip_pct", cc.RoundTripPct)
		return cost.Fixed(cc.RoundTripPct)
	}
	return domain.CostConfig{}, err
}

// writeExports writes sweep_<id>.csv, .parquet and .md under the output directory.
func writeExports(sc config.Sweep, report *sweep.Report, logger *slog.Logger) error {
	if err := os.MkdirAll(sc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Join(sc.OutputDir, "sweep_"+report.SweepID)

	f, err := os.Create(base + ".csv")
	if err != nil {
		return err
	}
	if err := reporting.WriteCSV(f, report.Results); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := reporting.WriteParquetFile(base+".parquet", report.Results); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}

	summary := reporting.NewSummary(report.SweepID, report.Results, sc.MinTrades, sc.TopN, time.Now().UTC())
	summary.SkippedTokens = report.SkippedTokens
	if err := os.WriteFile(base+".md", []byte(reporting.RenderMarkdown(summary)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	logger.Info("wrote sweep exports", "dir", sc.OutputDir, "sweep_id", report.SweepID, "results", len(report.Results))
	return nil
}
