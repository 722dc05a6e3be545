// Package worker drains the webhook queue. Processing happens here rather
// than in the webhook handler so Strava always gets its fast 200.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/metrics"
	"rundapp-engine/internal/strava"
)

const (
	maxAttempts = 5
	retryDelay  = 30 * time.Second
)

// Queue is the consume side of the webhook queue
type Queue interface {
	ClaimWebhook() (*database.WebhookQueueItem, error)
	DeleteWebhook(id int64) error
	ReleaseWebhook(id int64, retryAfter time.Duration) error
}

// EventValidator evaluates an activity event against open challenges
type EventValidator interface {
	Validate(ctx context.Context, event strava.WebhookEvent) error
}

// GrantRevoker clears an athlete's access grant on deauthorization
type GrantRevoker interface {
	RevokeAccessGrant(athleteID int64) error
}

// Worker processes webhook events from the queue
type Worker struct {
	queue        Queue
	validator    EventValidator
	revoker      GrantRevoker
	logger       *slog.Logger
	pollInterval time.Duration
}

// NewWorker creates a new webhook worker
func NewWorker(queue Queue, validator EventValidator, revoker GrantRevoker) *Worker {
	return &Worker{
		queue:        queue,
		validator:    validator,
		revoker:      revoker,
		logger:       slog.Default(),
		pollInterval: 500 * time.Millisecond,
	}
}

// Start processes webhooks until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting webhook worker")
	metrics.WorkerActive.Set(1)
	defer metrics.WorkerActive.Set(0)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping webhook worker")
			return ctx.Err()
		default:
			item, err := w.queue.ClaimWebhook()
			if err != nil {
				w.logger.Error("Failed to claim webhook", "error", err)
				w.sleep(ctx)
				continue
			}

			if item == nil {
				metrics.WorkerPollCyclesTotal.WithLabelValues(metrics.OutcomeIdle).Inc()
				w.sleep(ctx)
				continue
			}

			metrics.WorkerPollCyclesTotal.WithLabelValues(metrics.OutcomeWebhookFound).Inc()
			w.process(ctx, item)
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

// process handles one queued event. Malformed or repeatedly failing events
// are dropped so they cannot wedge the queue.
func (w *Worker) process(ctx context.Context, item *database.WebhookQueueItem) {
	start := time.Now()

	var event strava.WebhookEvent
	if err := json.Unmarshal(item.Data, &event); err != nil {
		w.logger.Error("Dropping malformed webhook", "queue_id", item.ID, "error", err)
		w.finish(item, metrics.ResultDropped, start)
		return
	}

	var err error
	switch {
	case event.IsActivityCreation():
		err = w.validator.Validate(ctx, event)
	case event.IsDeauthorization():
		w.logger.Info("Athlete deauthorized, revoking access grant", "athlete_id", event.OwnerID)
		err = w.revoker.RevokeAccessGrant(event.OwnerID)
	default:
		w.logger.Debug("Ignoring webhook event",
			"aspect_type", event.AspectType,
			"object_type", event.ObjectType,
		)
	}

	if err != nil {
		w.logger.Error("Failed to process webhook",
			"queue_id", item.ID,
			"athlete_id", event.OwnerID,
			"attempts", item.Attempts,
			"error", err,
		)

		if item.Attempts+1 >= maxAttempts {
			w.logger.Error("Dropping webhook after max attempts", "queue_id", item.ID)
			w.finish(item, metrics.ResultDropped, start)
			return
		}

		if releaseErr := w.queue.ReleaseWebhook(item.ID, retryDelay); releaseErr != nil {
			w.logger.Error("Failed to release webhook", "queue_id", item.ID, "error", releaseErr)
		}
		metrics.QueueDequeueTotal.WithLabelValues(metrics.ResultRetry).Inc()
		metrics.QueueProcessingDuration.WithLabelValues(metrics.ResultRetry).Observe(time.Since(start).Seconds())
		return
	}

	w.finish(item, metrics.ResultSuccess, start)
}

func (w *Worker) finish(item *database.WebhookQueueItem, result string, start time.Time) {
	if err := w.queue.DeleteWebhook(item.ID); err != nil {
		w.logger.Error("Failed to delete webhook", "queue_id", item.ID, "error", err)
	}
	metrics.QueueDequeueTotal.WithLabelValues(result).Inc()
	metrics.QueueProcessingDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
