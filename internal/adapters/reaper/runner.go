// Package reaper runs the sweeper for in-process view state and session stores.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
	"github.com/target/mmk-product-admin/internal/service"
)

// ErrNothingToReap is returned when every store expires entries on its own.
var ErrNothingToReap = errors.New("no in-memory stores to reap")

// Runner provides a simple adapter to run the reaper loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
// Nil stores are skipped, which is how Redis-backed stores stay out of the loop.
type RunnerOptions struct {
	ViewStates core.Sweeper
	Sessions   core.Sweeper
	Config     config.ReaperConfig
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var targets []service.ReaperTarget
	if opts.ViewStates != nil {
		targets = append(targets, service.ReaperTarget{Name: "view_state", Store: opts.ViewStates})
	}
	if opts.Sessions != nil {
		targets = append(targets, service.ReaperTarget{Name: "sessions", Store: opts.Sessions})
	}
	if len(targets) == 0 {
		return nil, ErrNothingToReap
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Targets: targets,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: opts.Logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}
