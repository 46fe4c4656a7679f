package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/openswarm/swarmer/config"
	"github.com/openswarm/swarmer/internal/core"
	"github.com/openswarm/swarmer/internal/observability/metrics"
	"github.com/openswarm/swarmer/internal/observability/statsd"
)

// DeadTaskSweeperOptions groups dependencies for DeadTaskSweeper.
type DeadTaskSweeperOptions struct {
	Scheduler *Scheduler             // Required: task scheduler
	Config    config.SchedulerConfig // Required: scheduler configuration
	Logger    *slog.Logger           // Optional: structured logger
	Metrics   statsd.Sink            // Optional: metrics sink (StatsD-compatible)
}

// DeadTaskSweeper periodically requeues running tasks whose result callback
// never arrived within the configured maximum age.
type DeadTaskSweeper struct {
	scheduler *Scheduler
	config    config.SchedulerConfig
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewDeadTaskSweeper constructs a new DeadTaskSweeper.
func NewDeadTaskSweeper(opts DeadTaskSweeperOptions) (*DeadTaskSweeper, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("Scheduler is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "dead_task_sweeper")
		logger.Debug("DeadTaskSweeper initialized",
			"interval", opts.Config.DeadScanInterval,
			"max_age", opts.Config.DeadTaskAge,
		)
	}

	return &DeadTaskSweeper{
		scheduler: opts.Scheduler,
		config:    opts.Config,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *DeadTaskSweeper) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting dead task sweeper", "interval", s.config.DeadScanInterval)
	}

	// Jitter prevents thundering herd if multiple instances start together
	waitWithJitter(ctx, s.config.DeadScanInterval, s.logger)

	ticker := time.NewTicker(s.config.DeadScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "dead task sweeper stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *DeadTaskSweeper) sweep(ctx context.Context) {
	start := time.Now()
	requeued := s.scheduler.SweepDeadTasks(ctx, s.config.DeadTaskAge)

	if s.metrics != nil {
		tags := map[string]string{
			"result": metrics.ResultFor(nil, int64(requeued)),
		}
		s.metrics.Count("sweeper.dead_pass", 1, tags)
		s.metrics.Timing("sweeper.dead_pass_duration", time.Since(start), metrics.CloneTags(tags))
	}
}

// CompletionSweeperOptions groups dependencies for CompletionSweeper.
type CompletionSweeperOptions struct {
	Scheduler *Scheduler             // Required: task scheduler
	Poster    core.ResultPoster      // Required: callback delivery
	Config    config.SchedulerConfig // Required: scheduler configuration
	Logger    *slog.Logger           // Optional: structured logger
	Metrics   statsd.Sink            // Optional: metrics sink (StatsD-compatible)
}

// CompletionSweeper periodically collects jobs whose tasks have all finished,
// clears their records from the store, and delivers each aggregated record to
// the job's callback URL.
type CompletionSweeper struct {
	scheduler *Scheduler
	poster    core.ResultPoster
	config    config.SchedulerConfig
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewCompletionSweeper constructs a new CompletionSweeper.
func NewCompletionSweeper(opts CompletionSweeperOptions) (*CompletionSweeper, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("Scheduler is required")
	}
	if opts.Poster == nil {
		return nil, errors.New("ResultPoster is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "completion_sweeper")
		logger.Debug("CompletionSweeper initialized",
			"interval", opts.Config.CompletedScanInterval,
		)
	}

	return &CompletionSweeper{
		scheduler: opts.Scheduler,
		poster:    opts.Poster,
		config:    opts.Config,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *CompletionSweeper) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting completion sweeper", "interval", s.config.CompletedScanInterval)
	}

	waitWithJitter(ctx, s.config.CompletedScanInterval, s.logger)

	ticker := time.NewTicker(s.config.CompletedScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "completion sweeper stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass: drain completed jobs and deliver their records.
// Delivery failures are logged and not retried; the job record is already
// cleared from the store by the time delivery starts.
func (s *CompletionSweeper) Sweep(ctx context.Context) int {
	start := time.Now()
	records := s.scheduler.SweepCompletedJobs(ctx)

	delivered := 0
	for _, record := range records {
		if err := s.poster.PostJobResult(ctx, record); err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "job result delivery failed",
					"job_id", record.ID, "callback", record.Callback, "error", err)
			}
			s.emitDelivery(metrics.ResultError, err)
			continue
		}
		delivered++
		if s.logger != nil {
			s.logger.InfoContext(ctx, "job result delivered",
				"job_id", record.ID, "tasks", len(record.Tasks))
		}
		s.emitDelivery(metrics.ResultSuccess, nil)
	}

	if s.metrics != nil {
		tags := map[string]string{
			"result": metrics.ResultFor(nil, int64(len(records))),
		}
		s.metrics.Count("sweeper.completion_pass", 1, tags)
		s.metrics.Timing("sweeper.completion_pass_duration", time.Since(start), metrics.CloneTags(tags))
	}

	return delivered
}

func (s *CompletionSweeper) emitDelivery(result string, err error) {
	if s.metrics == nil {
		return
	}

	tags := map[string]string{"result": result}
	if err != nil {
		if class := metrics.ErrorClass(err); class != "" {
			tags["error_class"] = class
		}
	}
	s.metrics.Count("sweeper.callback_delivery", 1, tags)
}

// waitWithJitter sleeps a random delay up to 10% of the interval.
func waitWithJitter(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	maxJitter := int64(interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if logger != nil {
			logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}
