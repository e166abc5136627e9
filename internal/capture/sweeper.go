package capture

import (
	"context"
	"time"
)

// RunSweeper periodically calls a.Sweep with the current wall-clock time
// (as float64 seconds), sealing bursts whose flow has gone quiet, per
// spec.md §4.1's second sealing trigger: "a periodic sweep emitting all
// bursts past their window." It returns when ctx is cancelled.
func (a *Assembler) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			now := float64(a.clock.Now().UnixNano()) / 1e9
			a.Sweep(now)
		}
	}
}
