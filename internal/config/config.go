// Package config loads the YAML configuration shared by the command-line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"solana-signal-lab/internal/logging"
	"solana-signal-lab/internal/regime"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Cost models accepted by Cost.Model.
const (
	CostModelFixed     = "fixed"
	CostModelEmpirical = "empirical"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration.
type Config struct {
	Storage  Storage       `yaml:"storage"`
	Logging  Logging       `yaml:"logging"`
	Metrics  Metrics       `yaml:"metrics"`
	Sweep    Sweep         `yaml:"sweep"`
	Backtest Backtest      `yaml:"backtest"`
	Cost     Cost          `yaml:"cost"`
	Regime   regime.Config `yaml:"regime"`
	Live     Live          `yaml:"live"`
}

// Storage holds database DSNs and the offline candle directory.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	CandlesDir    string `yaml:"candles_dir"` // <mint>.csv files, used instead of ClickHouse
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the Prometheus listener.
type Metrics struct {
	Addr      string `yaml:"addr"` // empty = disabled
	Namespace string `yaml:"namespace"`
}

// TemplateGrid is one template and its parameter grid.
type TemplateGrid struct {
	Template string               `yaml:"template"`
	Grid     map[string][]float64 `yaml:"grid"`
}

// Sweep describes a parameter sweep.
type Sweep struct {
	Templates     []TemplateGrid `yaml:"templates"`
	Tokens        []string       `yaml:"tokens"`
	TimeframesMin []int          `yaml:"timeframes_min"`
	ExitModes     []string       `yaml:"exit_modes"`
	From          string         `yaml:"from"` // RFC3339
	To            string         `yaml:"to"`   // RFC3339
	BaselineMint  string         `yaml:"baseline_mint"`
	MinTrades     int            `yaml:"min_trades"`
	Concurrency   int            `yaml:"concurrency"`
	OutputDir     string         `yaml:"output_dir"`
	TopN          int            `yaml:"top_n"`
}

// Backtest holds price exits and position limits.
type Backtest struct {
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	TrailingStopPct float64 `yaml:"trailing_stop_pct"`
	MaxHoldBars     int     `yaml:"max_hold_bars"`
	MaxPositions    int     `yaml:"max_positions"`
}

// Cost selects the round-trip cost model.
type Cost struct {
	Model           string  `yaml:"model"`          // fixed | empirical
	RoundTripPct    float64 `yaml:"round_trip_pct"` // fixed model and fallback
	FixedFeePct     float64 `yaml:"fixed_fee_pct"`  // empirical: per-side fee added to median impact
	SampleDays      int     `yaml:"sample_days"`    // empirical: impact sample window
	FallbackToFixed bool    `yaml:"fallback_to_fixed"`
}

// Live configures the regime daemon.
type Live struct {
	StrategyMapPath      string        `yaml:"strategy_map_path"`
	Mints                []string      `yaml:"mints"` // empty = every mint in the strategy map
	RefreshInterval      time.Duration `yaml:"refresh_interval"`
	Stagger              time.Duration `yaml:"stagger"`
	Lookback             time.Duration `yaml:"lookback"`
	LoadsPerSecond       float64       `yaml:"loads_per_second"`
	DecisionTimeframeMin int           `yaml:"decision_timeframe_min"`
	OpenPositions        []string      `yaml:"open_positions"` // mints already holding a position at startup
}

// Default returns the configuration used when a field is not set in the file.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info", Format: logging.FormatJSON},
		Metrics: Metrics{Namespace: "solana_signal_lab"},
		Sweep: Sweep{
			TimeframesMin: []int{5},
			ExitModes:     []string{"strategy"},
			MinTrades:     10,
			OutputDir:     "output",
			TopN:          20,
		},
		Backtest: Backtest{MaxPositions: 1},
		Cost: Cost{
			Model:        CostModelFixed,
			RoundTripPct: 1.0,
			FixedFeePct:  0.25,
			SampleDays:   14,
		},
		Regime: regime.DefaultConfig(),
		Live: Live{
			StrategyMapPath:      "strategies.yaml",
			RefreshInterval:      5 * time.Minute,
			Stagger:              2 * time.Second,
			Lookback:             7 * 24 * time.Hour,
			LoadsPerSecond:       2,
			DecisionTimeframeMin: 5,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at path over Default, then applies
// environment variable overrides. An empty path yields the defaults with
// overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("CANDLES_DIR"); v != "" {
		cfg.Storage.CandlesDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	if v := os.Getenv("STRATEGY_MAP_PATH"); v != "" {
		cfg.Live.StrategyMapPath = v
	}
	if v := os.Getenv("REGIME_MINTS"); v != "" {
		cfg.Live.Mints = splitList(v)
	}

	if v := os.Getenv("SWEEP_TOKENS"); v != "" {
		cfg.Sweep.Tokens = splitList(v)
	}
	if v := os.Getenv("SWEEP_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SWEEP_CONCURRENCY %q", ErrInvalidConfig, v)
		}
		cfg.Sweep.Concurrency = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the sections every tool reads. Sweep and Live sections are
// checked by ValidateSweep and ValidateLive.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "", logging.FormatJSON, logging.FormatText:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	b := c.Backtest
	switch {
	case b.StopLossPct < 0, b.TakeProfitPct < 0:
		return fmt.Errorf("%w: backtest price exits must be >= 0", ErrInvalidConfig)
	case b.TrailingStopPct < 0 || b.TrailingStopPct >= 100:
		return fmt.Errorf("%w: trailing_stop_pct %v", ErrInvalidConfig, b.TrailingStopPct)
	case b.MaxHoldBars < 0, b.MaxPositions < 0:
		return fmt.Errorf("%w: backtest limits must be >= 0", ErrInvalidConfig)
	}

	switch c.Cost.Model {
	case CostModelFixed:
	case CostModelEmpirical:
		if c.Cost.SampleDays <= 0 {
			return fmt.Errorf("%w: cost sample_days must be > 0", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cost model %q", ErrInvalidConfig, c.Cost.Model)
	}
	if c.Cost.RoundTripPct < 0 || c.Cost.FixedFeePct < 0 {
		return fmt.Errorf("%w: cost percentages must be >= 0", ErrInvalidConfig)
	}

	if err := c.Regime.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateSweep checks the sweep section and its candle source.
func (c *Config) ValidateSweep() error {
	if err := c.Validate(); err != nil {
		return err
	}
	s := c.Sweep
	if len(s.Templates) == 0 {
		return fmt.Errorf("%w: sweep.templates is empty", ErrInvalidConfig)
	}
	if len(s.Tokens) == 0 {
		return fmt.Errorf("%w: sweep.tokens is empty", ErrInvalidConfig)
	}
	if c.Storage.CandlesDir == "" && c.Storage.ClickhouseDSN == "" {
		return fmt.Errorf("%w: storage.candles_dir or storage.clickhouse_dsn is required", ErrInvalidConfig)
	}
	if c.Cost.Model == CostModelEmpirical && c.Storage.PostgresDSN == "" && !c.Cost.FallbackToFixed {
		return fmt.Errorf("%w: empirical cost needs storage.postgres_dsn", ErrInvalidConfig)
	}
	from, to, err := s.Window()
	if err != nil {
		return err
	}
	if to < from {
		return fmt.Errorf("%w: sweep.to before sweep.from", ErrInvalidConfig)
	}
	if s.TopN < 0 {
		return fmt.Errorf("%w: sweep.top_n must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ValidateLive checks the live section.
func (c *Config) ValidateLive() error {
	if err := c.Validate(); err != nil {
		return err
	}
	l := c.Live
	switch {
	case l.StrategyMapPath == "":
		return fmt.Errorf("%w: live.strategy_map_path is required", ErrInvalidConfig)
	case l.RefreshInterval <= 0:
		return fmt.Errorf("%w: live.refresh_interval must be > 0", ErrInvalidConfig)
	case l.Stagger < 0, l.Lookback < 0, l.LoadsPerSecond < 0:
		return fmt.Errorf("%w: live durations and rates must be >= 0", ErrInvalidConfig)
	case l.DecisionTimeframeMin <= 0:
		return fmt.Errorf("%w: live.decision_timeframe_min must be > 0", ErrInvalidConfig)
	case c.Storage.ClickhouseDSN == "" && c.Storage.CandlesDir == "":
		return fmt.Errorf("%w: storage.clickhouse_dsn or storage.candles_dir is required", ErrInvalidConfig)
	}
	return nil
}

// Window returns the sweep range in Unix ms. An empty From is the epoch and
// an empty To is now.
func (s Sweep) Window() (fromMs, toMs int64, err error) {
	toMs = time.Now().UnixMilli()
	if s.From != "" {
		t, err := time.Parse(time.RFC3339, s.From)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: sweep.from: %w", ErrInvalidConfig, err)
		}
		fromMs = t.UnixMilli()
	}
	if s.To != "" {
		t, err := time.Parse(time.RFC3339, s.To)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: sweep.to: %w", ErrInvalidConfig, err)
		}
		toMs = t.UnixMilli()
	}
	return fromMs, toMs, nil
}
