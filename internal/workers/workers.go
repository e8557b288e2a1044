package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner drops entries idle for longer than maxIdle and reports how many
// it removed.
type Cleaner interface {
	Cleanup(maxIdle time.Duration) int
}

// StartCleanupWorker runs c.Cleanup every interval until ctx is done. The
// returned channel closes once the worker has exited.
func StartCleanupWorker(ctx context.Context, c Cleaner, interval, maxIdle time.Duration, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.Cleanup(maxIdle); removed > 0 {
					log.Debug("cleaned up idle visitors", zap.Int("removed", removed))
				}
			}
		}
	}()

	return done
}
