package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"solana-signal-lab/internal/backtest"
	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/idhash"
	"solana-signal-lab/internal/indicators"
	"solana-signal-lab/internal/normalization"
	"solana-signal-lab/internal/observability"
	"solana-signal-lab/internal/regime"
	"solana-signal-lab/internal/storage"
	"solana-signal-lab/internal/strategy"
)

// Exit modes
const (
	ExitModeStrategy = "strategy" // strategy sells close positions
	ExitModeParity   = "parity"   // only price bounds close positions
)

// Errors
var (
	ErrInvalidConfig = errors.New("invalid sweep config")
	ErrNoCandles     = errors.New("no candles for any token")
)

// TemplateGrid is one template and its parameter grid.
type TemplateGrid struct {
	Template string
	Grid     Grid
}

// Config describes one sweep.
type Config struct {
	Templates     []TemplateGrid
	Tokens        []string
	TimeframesMin []int
	ExitModes     []string // defaults to strategy only

	FromMs int64
	ToMs   int64

	BaselineMint string // relative strength reference, optional
	MinTrades    int    // eligibility threshold for ranking
	Concurrency  int    // 0 = GOMAXPROCS

	// Backtest carries cost and price exits. ExitParityMode is set per exit mode.
	Backtest backtest.Options
	Regime   regime.Config
}

// Options holds the orchestrator's collaborators.
type Options struct {
	Candles storage.CandleStore
	Results storage.SweepResultStore // optional
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Report is the outcome of a sweep.
type Report struct {
	SweepID       string
	Results       []*domain.SweepResult // tuple order
	Ranked        []*domain.SweepResult // eligible, rank order
	SkippedTokens []string              // tokens without candles
	Duration      time.Duration
}

// Orchestrator runs sweeps.
type Orchestrator struct {
	cfg     Config
	opts    Options
	logger  *slog.Logger
	plans   []plan
	engines map[string]*backtest.Engine
}

// plan is a validated template with its expanded combinations.
type plan struct {
	id     strategy.TemplateID
	combos []*strategy.Template
}

// NewOrchestrator validates cfg up front: every template id, grid and
// parameter combination must be valid before any backtest runs.
func NewOrchestrator(cfg Config, opts Options) (*Orchestrator, error) {
	if opts.Candles == nil {
		return nil, fmt.Errorf("%w: candle store is required", ErrInvalidConfig)
	}
	if len(cfg.Templates) == 0 {
		return nil, fmt.Errorf("%w: no templates", ErrInvalidConfig)
	}
	if len(cfg.Tokens) == 0 {
		return nil, fmt.Errorf("%w: no tokens", ErrInvalidConfig)
	}
	if len(cfg.TimeframesMin) == 0 {
		return nil, fmt.Errorf("%w: no timeframes", ErrInvalidConfig)
	}
	for _, tf := range cfg.TimeframesMin {
		if tf <= 0 {
			return nil, fmt.Errorf("%w: timeframe %d", ErrInvalidConfig, tf)
		}
	}
	if cfg.ToMs < cfg.FromMs {
		return nil, fmt.Errorf("%w: to before from", ErrInvalidConfig)
	}
	if cfg.MinTrades < 0 {
		return nil, fmt.Errorf("%w: min trades %d", ErrInvalidConfig, cfg.MinTrades)
	}
	if err := cfg.Regime.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.ExitModes) == 0 {
		cfg.ExitModes = []string{ExitModeStrategy}
	}
	if d, ok := duplicate(cfg.Tokens); ok {
		return nil, fmt.Errorf("%w: duplicate token %s", ErrInvalidConfig, d)
	}
	if d, ok := duplicate(cfg.TimeframesMin); ok {
		return nil, fmt.Errorf("%w: duplicate timeframe %d", ErrInvalidConfig, d)
	}
	if d, ok := duplicate(cfg.ExitModes); ok {
		return nil, fmt.Errorf("%w: duplicate exit mode %s", ErrInvalidConfig, d)
	}

	engines := make(map[string]*backtest.Engine, len(cfg.ExitModes))
	for _, mode := range cfg.ExitModes {
		bo := cfg.Backtest
		switch mode {
		case ExitModeStrategy:
			bo.ExitParityMode = false
		case ExitModeParity:
			bo.ExitParityMode = true
		default:
			return nil, fmt.Errorf("%w: exit mode %q", ErrInvalidConfig, mode)
		}
		bo.Logger = opts.Logger
		eng, err := backtest.NewEngine(bo)
		if err != nil {
			return nil, err
		}
		engines[mode] = eng
	}

	plans := make([]plan, 0, len(cfg.Templates))
	seen := make(map[string]struct{})
	for _, tg := range cfg.Templates {
		id, err := strategy.ParseTemplateID(tg.Template)
		if err != nil {
			return nil, err
		}
		combos, err := Expand(tg.Grid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tg.Template, err)
		}
		p := plan{id: id, combos: make([]*strategy.Template, 0, len(combos))}
		for _, params := range combos {
			key := id.String() + "|" + ParamString(params)
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("%w: duplicate combination %s", ErrInvalidConfig, key)
			}
			seen[key] = struct{}{}
			tmpl, err := strategy.Bind(id, params)
			if err != nil {
				return nil, fmt.Errorf("%s {%s}: %w", tg.Template, ParamString(params), err)
			}
			p.combos = append(p.combos, tmpl)
		}
		plans = append(plans, p)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:     cfg,
		opts:    opts,
		logger:  logger.With("component", "sweep"),
		plans:   plans,
		engines: engines,
	}, nil
}

// TupleCount returns the number of backtests a run performs when every token has candles.
func (o *Orchestrator) TupleCount() int {
	combos := 0
	for _, p := range o.plans {
		combos += len(p.combos)
	}
	return combos * len(o.cfg.Tokens) * len(o.cfg.TimeframesMin) * len(o.cfg.ExitModes)
}

// series is the shared, read-only input of one (token, timeframe).
type series struct {
	token     string
	timeframe int
	frame     *indicators.Frame
}

// tuple is one backtest to run.
type tuple struct {
	tmpl     *strategy.Template
	series   *series
	exitMode string
}

// Run executes the sweep.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	sweepID := uuid.NewString()
	o.logger.Info("starting sweep",
		"sweep_id", sweepID,
		"templates", len(o.plans),
		"tokens", len(o.cfg.Tokens),
		"timeframes", o.cfg.TimeframesMin,
		"exit_modes", o.cfg.ExitModes,
		"max_tuples", o.TupleCount(),
	)

	seriesByToken, annotations, skipped, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	var tuples []tuple
	for _, p := range o.plans {
		for _, tmpl := range p.combos {
			for _, token := range o.cfg.Tokens {
				for _, s := range seriesByToken[token] {
					for _, mode := range o.cfg.ExitModes {
						tuples = append(tuples, tuple{tmpl: tmpl, series: s, exitMode: mode})
					}
				}
			}
		}
	}

	results := make([]*domain.SweepResult, len(tuples))
	g, gctx := errgroup.WithContext(ctx)
	limit := o.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, t := range tuples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			template := t.tmpl.ID.String()
			res, err := o.engines[t.exitMode].Run(t.series.frame, t.tmpl)
			o.opts.Metrics.RecordSweepTuple(template, err)
			if err != nil {
				return fmt.Errorf("%s %s %dm: %w", t.tmpl.Name(), t.series.token, t.series.timeframe, err)
			}
			o.opts.Metrics.RecordBacktest(len(res.Trades), res.BarsEvaluated)

			paramStr := ParamString(t.tmpl.Params)
			results[i] = &domain.SweepResult{
				ID:           idhash.ComputeResultID(sweepID, template, t.series.token, t.series.timeframe, paramStr, t.exitMode),
				SweepID:      sweepID,
				Template:     template,
				Token:        t.series.token,
				TimeframeMin: t.series.timeframe,
				ExitMode:     t.exitMode,
				Params:       t.tmpl.Params.Clone(),
				ParamString:  paramStr,
				Trades:       res.Trades,
				Metrics:      res.Metrics,
				Annotation:   annotations[t.series.token],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := Rank(results, o.cfg.MinTrades)

	if o.opts.Results != nil && len(results) > 0 {
		if err := o.opts.Results.InsertBulk(ctx, results); err != nil {
			return nil, fmt.Errorf("persist sweep results: %w", err)
		}
	}

	report := &Report{
		SweepID:       sweepID,
		Results:       results,
		Ranked:        ranked,
		SkippedTokens: skipped,
		Duration:      time.Since(start),
	}
	o.opts.Metrics.RecordSweep(report.Duration, len(ranked), len(results)-len(ranked))
	o.logger.Info("sweep complete",
		"sweep_id", sweepID,
		"results", len(results),
		"eligible", len(ranked),
		"skipped_tokens", len(skipped),
		"duration", report.Duration,
	)
	return report, nil
}

// prepare loads candles, builds one frame per (token, timeframe) and one
// annotation per token.
func (o *Orchestrator) prepare(ctx context.Context) (map[string][]*series, map[string]domain.Annotation, []string, error) {
	var baseline []domain.Candle
	if o.cfg.BaselineMint != "" {
		var err error
		baseline, err = o.opts.Candles.GetByTimeRange(ctx, o.cfg.BaselineMint, o.cfg.FromMs, o.cfg.ToMs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load baseline %s: %w", o.cfg.BaselineMint, err)
		}
		if len(baseline) == 0 {
			o.logger.Warn("baseline has no candles, relative strength disabled", "mint", o.cfg.BaselineMint)
		}
	}

	seriesByToken := make(map[string][]*series, len(o.cfg.Tokens))
	annotations := make(map[string]domain.Annotation, len(o.cfg.Tokens))
	var skipped []string

	for _, token := range o.cfg.Tokens {
		raw, err := o.opts.Candles.GetByTimeRange(ctx, token, o.cfg.FromMs, o.cfg.ToMs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load candles %s: %w", token, err)
		}
		if len(raw) == 0 {
			o.logger.Warn("token has no candles, skipping", "mint", token)
			skipped = append(skipped, token)
			continue
		}
		annotations[token] = regime.Annotate(raw, baseline, o.cfg.Regime)

		for _, tf := range o.cfg.TimeframesMin {
			candles, err := normalization.Aggregate(raw, tf)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("aggregate %s %dm: %w", token, tf, err)
			}
			seriesByToken[token] = append(seriesByToken[token], &series{
				token:     token,
				timeframe: tf,
				frame:     indicators.NewFrame(candles),
			})
		}
	}

	if len(seriesByToken) == 0 {
		return nil, nil, nil, ErrNoCandles
	}
	return seriesByToken, annotations, skipped, nil
}

func duplicate[T comparable](values []T) (T, bool) {
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	var zero T
	return zero, false
}
