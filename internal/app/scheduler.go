package app

import (
	"context"
	"time"
)

// Scheduler runs a task at a fixed cadence.
type Scheduler struct {
	Interval time.Duration
}

// Run executes task immediately and then once per Interval until ctx is
// cancelled. Runs are sequential; a tick that arrives while the task is still
// running is coalesced by the ticker, so runs never overlap or pile up.
func (s Scheduler) Run(ctx context.Context, task func(ctx context.Context)) error {
	if s.Interval <= 0 {
		return errInvalidInterval
	}
	if ctx.Err() != nil {
		return nil
	}
	task(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			task(ctx)
		}
	}
}
