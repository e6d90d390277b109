package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// TickFunc runs one scheduled pass. The time is the tick that triggered it.
type TickFunc func(ctx context.Context, now time.Time)

// Scheduler invokes a TickFunc at a fixed interval. A tick that fires while
// the previous run is still going is dropped rather than queued, so a slow
// run never stacks up concurrent sweeps.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc
	running  atomic.Bool
}

func New(interval time.Duration, tick TickFunc) *Scheduler {
	return &Scheduler{
		interval: interval,
		tick:     tick,
	}
}

// Run blocks until the context is canceled. The first tick fires after one
// full interval, not immediately.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "scheduler started",
		slog.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "scheduler stopped")
			return
		case now := <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				slog.WarnContext(ctx, "previous tick still running, skipping",
					slog.Time("tick_at", now),
				)
				continue
			}
			go func() {
				defer s.running.Store(false)
				s.tick(ctx, now)
			}()
		}
	}
}
