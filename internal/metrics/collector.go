package metrics

import (
	"context"
	"log/slog"
	"time"
)

// QueueLengther reports the current webhook queue depth
type QueueLengther interface {
	GetQueueLength() (int, error)
}

// StartQueueDepthCollector periodically samples the webhook queue depth
// until the context is cancelled
func StartQueueDepthCollector(ctx context.Context, db QueueLengther, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			length, err := db.GetQueueLength()
			if err != nil {
				slog.Error("failed to collect queue depth", "error", err)
				continue
			}
			QueueDepth.Set(float64(length))
		}
	}
}
