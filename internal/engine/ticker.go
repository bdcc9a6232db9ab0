package engine

import (
	"context"
	"time"
)

// DefaultTickInterval matches the browser loop the game was tuned for.
const DefaultTickInterval = 20 * time.Millisecond

// Run ticks the engine every interval until ctx is cancelled. Call in a
// goroutine.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	e.logger.Info("Engine ticker started.")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine ticker stopped by context.")
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}
