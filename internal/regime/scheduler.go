package regime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"solana-signal-lab/internal/observability"
	"solana-signal-lab/internal/storage"
)

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Mints    []string
	Interval time.Duration // refresh period per mint
	Stagger  time.Duration // start offset between consecutive mints
	Lookback time.Duration // history loaded per refresh

	// LoadsPerSecond throttles historical loads across all mints. 0 = unlimited.
	LoadsPerSecond float64

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Scheduler refreshes every mint's regime in the background.
type Scheduler struct {
	tracker *Tracker
	store   storage.CandleStore
	opts    SchedulerOptions
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(tracker *Tracker, store storage.CandleStore, opts SchedulerOptions) (*Scheduler, error) {
	if tracker == nil || store == nil {
		return nil, fmt.Errorf("%w: tracker and store are required", ErrInvalidConfig)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be > 0", ErrInvalidConfig)
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 7 * 24 * time.Hour
	}
	limit := rate.Inf
	if opts.LoadsPerSecond > 0 {
		limit = rate.Limit(opts.LoadsPerSecond)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		tracker: tracker,
		store:   store,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With("component", "regime-scheduler"),
	}, nil
}

// Run refreshes every mint until ctx is cancelled.
// Mint i starts after Stagger*i; a failing mint never stops the others.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting regime scheduler",
		"mints", len(s.opts.Mints),
		"interval", s.opts.Interval,
		"stagger", s.opts.Stagger,
	)

	g, ctx := errgroup.WithContext(ctx)
	for i, mint := range s.opts.Mints {
		delay := s.opts.Stagger * time.Duration(i)
		g.Go(func() error {
			s.loop(ctx, mint, delay)
			return nil
		})
	}
	err := g.Wait()
	s.logger.Info("regime scheduler stopped")
	return err
}

func (s *Scheduler) loop(ctx context.Context, mint string, delay time.Duration) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if err := s.RefreshOnce(ctx, mint); err != nil && ctx.Err() == nil {
			s.logger.Warn("regime refresh failed", "mint", mint, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshOnce loads history for mint and applies one tracker update.
func (s *Scheduler) RefreshOnce(ctx context.Context, mint string) (err error) {
	defer func() {
		if err != nil {
			s.opts.Metrics.RecordRegimeRefresh(mint, 0, err)
		}
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	now := s.tracker.now()
	start := time.Now()
	candles, err := s.store.GetByTimeRange(ctx, mint, now.Add(-s.opts.Lookback).UnixMilli(), now.UnixMilli())
	s.opts.Metrics.ObserveRegimeLoad(time.Since(start))
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	reading, state := s.tracker.Update(mint, candles)
	s.logger.Debug("regime refreshed",
		"mint", mint,
		"candles", len(candles),
		"score", reading.Score,
		"raw", reading.Raw,
		"confirmed", state.Confirmed,
	)
	return nil
}
