package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goroutine"
)

// DefaultSweepInterval applies when modules.recovery.sweep_interval_seconds is unset.
const DefaultSweepInterval = 60 * time.Second

type sweeper interface {
	Sweep(ctx context.Context) error
}

// RegisterSweepJob deletes stale codes and attempts on a fixed interval until ctx ends.
func RegisterSweepJob(ctx context.Context, cfg config.Config, routine *goroutine.Manager, uc sweeper) bool {
	interval := cfg.GetSecond("modules.recovery.sweep_interval_seconds")
	if interval == 0 {
		interval = DefaultSweepInterval
	}

	slog.InfoContext(ctx, "Running job for sweeping one-time codes", "interval", interval.String())

	return routine.Every(ctx, "recovery.sweep", interval, uc.Sweep)
}
