package http

import (
	"context"
	"sync/atomic"
	"time"
)

// inFlightTracker counts requests currently being served. Graceful shutdown
// waits on it so an estimation mid-flight is never cut off.
type inFlightTracker struct {
	count atomic.Int64
}

func (t *inFlightTracker) add(delta int64) { t.count.Add(delta) }

func (t *inFlightTracker) waitForZero(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if t.count.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

var globalInFlight inFlightTracker

// InFlightCount returns the number of requests currently being served.
func InFlightCount() int64 {
	return globalInFlight.count.Load()
}

// WaitForInFlight blocks until in-flight requests reach zero or ctx is
// done. Called during graceful shutdown after the listener stops accepting.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return globalInFlight.waitForZero(ctx, checkInterval)
}
