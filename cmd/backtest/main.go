// Command backtest runs one strategy template with fixed parameters over one
// token and timeframe, then prints the trades and metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-signal-lab/internal/backtest"
	"solana-signal-lab/internal/config"
	"solana-signal-lab/internal/cost"
	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/logging"
	"solana-signal-lab/internal/normalization"
	"solana-signal-lab/internal/storage"
	chstore "solana-signal-lab/internal/storage/clickhouse"
	"solana-signal-lab/internal/storage/memory"
	"solana-signal-lab/internal/strategy"
	"solana-signal-lab/internal/sweep"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "YAML config file (optional)")
	mint := flag.String("mint", "", "Token mint to backtest (required)")
	templateName := flag.String("template", "", "Strategy template, e.g. rsi_reversion (required)")
	paramStr := flag.String("params", "", "Template parameters as k=v,k=v")
	timeframe := flag.Int("timeframe", 5, "Candle timeframe in minutes")
	from := flag.String("from", "", "Range start (RFC3339), default epoch")
	to := flag.String("to", "", "Range end (RFC3339), default now")
	exitMode := flag.String("exit-mode", sweep.ExitModeStrategy, "Exit mode: strategy or parity")

	// Price exits default to the config file values
	stopLoss := flag.Float64("stop-loss", -1, "Stop loss % (overrides config)")
	takeProfit := flag.Float64("take-profit", -1, "Take profit % (overrides config)")
	trailingStop := flag.Float64("trailing-stop", -1, "Trailing stop % below peak close (overrides config)")
	maxHold := flag.Int("max-hold-bars", -1, "Max bars held (overrides config)")
	roundTrip := flag.Float64("round-trip-pct", -1, "Fixed round-trip cost % (overrides config)")

	// Storage
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config)")
	candlesFile := flag.String("candles-file", "", "1-minute candle CSV used instead of ClickHouse")

	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Validate required flags
	if *mint == "" {
		fatal(logger, "--mint is required")
	}
	if *templateName == "" {
		fatal(logger, "--template is required")
	}

	id, err := strategy.ParseTemplateID(*templateName)
	if err != nil {
		fatal(logger, "invalid template", "error", err)
	}
	params, err := sweep.ParseParamString(*paramStr)
	if err != nil {
		fatal(logger, "invalid params", "error", err)
	}
	tmpl, err := strategy.Bind(id, params)
	if err != nil {
		fatal(logger, "invalid params", "error", err)
	}

	cfg.Sweep.From, cfg.Sweep.To = *from, *to
	fromMs, toMs, err := cfg.Sweep.Window()
	if err != nil {
		fatal(logger, "invalid range", "error", err)
	}

	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	overrideFloat(&cfg.Backtest.StopLossPct, *stopLoss)
	overrideFloat(&cfg.Backtest.TakeProfitPct, *takeProfit)
	overrideFloat(&cfg.Backtest.TrailingStopPct, *trailingStop)
	overrideFloat(&cfg.Cost.RoundTripPct, *roundTrip)
	if *maxHold >= 0 {
		cfg.Backtest.MaxHoldBars = *maxHold
	}

	costCfg, err := cost.Fixed(cfg.Cost.RoundTripPct)
	if err != nil {
		fatal(logger, "invalid cost", "error", err)
	}
	opts := backtest.Options{
		Cost:            costCfg,
		StopLossPct:     cfg.Backtest.StopLossPct,
		TakeProfitPct:   cfg.Backtest.TakeProfitPct,
		TrailingStopPct: cfg.Backtest.TrailingStopPct,
		MaxHoldBars:     cfg.Backtest.MaxHoldBars,
		MaxPositions:    cfg.Backtest.MaxPositions,
		Logger:          logger,
	}
	switch *exitMode {
	case sweep.ExitModeStrategy:
	case sweep.ExitModeParity:
		opts.ExitParityMode = true
	default:
		fatal(logger, "invalid exit mode", "exit_mode", *exitMode)
	}
	engine, err := backtest.NewEngine(opts)
	if err != nil {
		fatal(logger, "invalid backtest options", "error", err)
	}

	// Create context with cancellation
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	candleStore, cleanup, err := openCandles(ctx, *mint, *candlesFile, cfg.Storage.ClickhouseDSN)
	if err != nil {
		fatal(logger, "open candles", "error", err)
	}
	defer cleanup()

	logger.Info("running backtest",
		"mint", *mint,
		"template", tmpl.Name(),
		"params", sweep.ParamString(tmpl.Params),
		"timeframe_min", *timeframe,
		"exit_mode", *exitMode,
	)

	runner := backtest.NewRunner(candleStore, engine)
	res, err := runner.Run(ctx, *mint, fromMs, toMs, *timeframe, tmpl)
	if err != nil {
		fatal(logger, "backtest failed", "error", err)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fatal(logger, "encode result", "error", err)
		}
		return
	}
	printResult(os.Stdout, res)
}

func fatal(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

func overrideFloat(dst *float64, v float64) {
	if v >= 0 {
		*dst = v
	}
}

// openCandles returns a store holding the mint's candles from a CSV file, or
// a ClickHouse store.
func openCandles(ctx context.Context, mint, csvPath, clickhouseDSN string) (storage.CandleStore, func(), error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		candles, _, err := normalization.ParseCSV(f)
		if err != nil {
			return nil, nil, err
		}
		store := memory.NewCandleStore()
		if err := store.InsertBulk(ctx, mint, candles); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
	if clickhouseDSN == "" {
		return nil, nil, errors.New("--clickhouse-dsn or --candles-file is required")
	}
	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	return chstore.NewCandleStore(conn), func() { _ = conn.Close() }, nil
}

// printResult outputs a human-readable trade list and metrics.
func printResult(w io.Writer, res *backtest.Result) {
	m := res.Metrics
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Backtest Result ===")
	fmt.Fprintf(w, "Bars Evaluated:     %d\n", res.BarsEvaluated)
	fmt.Fprintf(w, "Signals:            %d buy / %d sell\n", res.BuySignals, res.SellSignals)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Trades:")
	for i, t := range res.Trades {
		printTrade(w, i+1, t)
	}
	if len(res.Trades) == 0 {
		fmt.Fprintln(w, "  none")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Metrics:")
	fmt.Fprintf(w, "  Trades:           %d (%d wins, %d losses)\n", m.TradeCount, m.Wins, m.Losses)
	fmt.Fprintf(w, "  Win Rate:         %.2f%%\n", m.WinRate)
	fmt.Fprintf(w, "  Total PnL:        %.2f%%\n", m.TotalPnLPct)
	fmt.Fprintf(w, "  Avg / Median PnL: %.2f%% / %.2f%%\n", m.AvgPnLPct, m.MedianPnLPct)
	fmt.Fprintf(w, "  Profit Factor:    %.3f\n", m.ProfitFactor)
	fmt.Fprintf(w, "  Sharpe:           %.3f\n", m.Sharpe)
	fmt.Fprintf(w, "  Max Drawdown:     %.2f%%\n", m.MaxDrawdownPct)
	fmt.Fprintf(w, "  Avg Win/Loss:     %.3f\n", m.AvgWinLossRatio)
	fmt.Fprintf(w, "  Avg Hold:         %.1f min\n", m.AvgHoldMinutes)
	fmt.Fprintf(w, "  Trades/Day:       %.2f\n", m.TradesPerDay)
	fmt.Fprintf(w, "  Max Loss Streak:  %d\n", m.MaxConsecutiveLosses)
}

func printTrade(w io.Writer, n int, t domain.BacktestTrade) {
	fmt.Fprintf(w, "  #%-3d %s -> %s  %.8f -> %.8f  %+.2f%% (peak %+.2f%%)  %s\n",
		n,
		time.UnixMilli(t.EntryTimeMs).UTC().Format(time.RFC3339),
		time.UnixMilli(t.ExitTimeMs).UTC().Format(time.RFC3339),
		t.EntryPrice, t.ExitPrice,
		t.PnLPct, t.PeakPnLPct,
		t.ExitReason,
	)
}
