package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/core"
	obserrors "github.com/target/mmk-product-admin/internal/observability/errors"
	"github.com/target/mmk-product-admin/internal/observability/metrics"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
)

// ReaperTarget is one in-process store the reaper sweeps.
type ReaperTarget struct {
	Name  string // metric tag, e.g. view_state or sessions
	Store core.Sweeper
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Targets []ReaperTarget      // Required: at least one store
	Config  config.ReaperConfig // Required: reaper configuration
	Logger  *slog.Logger        // Optional: structured logger
	Metrics statsd.Sink         // Optional: metrics sink (StatsD-compatible)
}

// ReaperService periodically drops expired entries from in-memory stores.
// Redis-backed stores expire keys on their own and are never registered here.
type ReaperService struct {
	targets []ReaperTarget
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if len(opts.Targets) == 0 {
		return nil, errors.New("at least one reaper target is required")
	}
	for _, t := range opts.Targets {
		if t.Store == nil {
			return nil, fmt.Errorf("reaper target %q has no store", t.Name)
		}
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"targets", len(opts.Targets),
		)
	}

	return &ReaperService{
		targets: append([]ReaperTarget(nil), opts.Targets...),
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Jitter keeps replicas started together from sweeping in lockstep.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter waits a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

// RunOnce sweeps every target once.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	start := s.now()
	var (
		errs    []error
		total   int64
		perName = make(map[string]int64, len(s.targets))
	)

	for _, t := range s.targets {
		count, err := sweep(ctx, t.Store)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", t.Name, err))
			continue
		}
		perName[t.Name] = count
		total += count
		if count > 0 && s.logger != nil {
			s.logger.InfoContext(ctx, "swept expired entries", "store", t.Name, "count", count)
		}
	}

	var err error
	if len(errs) > 0 {
		err = errors.Join(errs...)
		if isContextCancellation(err) {
			err = context.Canceled
		}
	}
	s.emitCleanupMetrics(cleanupMetrics{
		Swept:   perName,
		Total:   total,
		Err:     suppressContextCancellation(err),
		Elapsed: s.now().Sub(start),
	})
	return err
}

func sweep(ctx context.Context, store core.Sweeper) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(store.Sweep()), nil
}

type cleanupMetrics struct {
	Swept   map[string]int64
	Total   int64
	Err     error
	Elapsed time.Duration
}

func (s *ReaperService) emitCleanupMetrics(m cleanupMetrics) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case m.Err != nil:
		result = metrics.ResultError
	case m.Total == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if m.Err != nil {
		if class := obserrors.Classify(m.Err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count(metrics.MetricReaperCleanup, 1, tags)
	if m.Elapsed > 0 {
		s.metrics.Timing(metrics.MetricReaperCleanupDuration, m.Elapsed, metrics.CloneTags(tags))
	}
	for name, count := range m.Swept {
		if count > 0 {
			s.metrics.Count(metrics.MetricReaperSwept, count, map[string]string{"store": name})
		}
	}
	if m.Err == nil {
		s.metrics.Gauge(metrics.MetricReaperLastSuccess, float64(s.now().Unix()), nil)
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
