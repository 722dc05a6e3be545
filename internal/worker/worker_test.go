package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/strava"
)

type fakeQueue struct {
	items    []*database.WebhookQueueItem
	deleted  []int64
	released []int64
}

func (q *fakeQueue) ClaimWebhook() (*database.WebhookQueueItem, error) {
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

func (q *fakeQueue) DeleteWebhook(id int64) error {
	q.deleted = append(q.deleted, id)
	return nil
}

func (q *fakeQueue) ReleaseWebhook(id int64, retryAfter time.Duration) error {
	q.released = append(q.released, id)
	return nil
}

type fakeValidator struct {
	events []strava.WebhookEvent
	err    error
}

func (v *fakeValidator) Validate(ctx context.Context, event strava.WebhookEvent) error {
	v.events = append(v.events, event)
	return v.err
}

type fakeRevoker struct {
	revoked []int64
}

func (r *fakeRevoker) RevokeAccessGrant(athleteID int64) error {
	r.revoked = append(r.revoked, athleteID)
	return nil
}

func queueItem(id int64, attempts int, data string) *database.WebhookQueueItem {
	return &database.WebhookQueueItem{ID: id, Data: json.RawMessage(data), Attempts: attempts}
}

func TestProcessActivityCreation(t *testing.T) {
	queue := &fakeQueue{}
	validator := &fakeValidator{}
	revoker := &fakeRevoker{}
	w := NewWorker(queue, validator, revoker)

	item := queueItem(1, 0, `{"object_type":"activity","object_id":12345,"aspect_type":"create","owner_id":134815}`)
	w.process(context.Background(), item)

	if len(validator.events) != 1 {
		t.Fatalf("Expected 1 validation, got %d", len(validator.events))
	}
	if validator.events[0].ObjectID != 12345 || validator.events[0].OwnerID != 134815 {
		t.Errorf("Unexpected event: %+v", validator.events[0])
	}
	if len(queue.deleted) != 1 || queue.deleted[0] != 1 {
		t.Errorf("Expected item deleted, got %v", queue.deleted)
	}
	if len(revoker.revoked) != 0 {
		t.Error("Expected no revocations")
	}
}

func TestProcessDeauthorization(t *testing.T) {
	queue := &fakeQueue{}
	validator := &fakeValidator{}
	revoker := &fakeRevoker{}
	w := NewWorker(queue, validator, revoker)

	item := queueItem(1, 0, `{"object_type":"athlete","object_id":134815,"aspect_type":"update","owner_id":134815,"updates":{"authorized":"false"}}`)
	w.process(context.Background(), item)

	if len(revoker.revoked) != 1 || revoker.revoked[0] != 134815 {
		t.Errorf("Expected athlete 134815 revoked, got %v", revoker.revoked)
	}
	if len(validator.events) != 0 {
		t.Error("Expected no validations")
	}
	if len(queue.deleted) != 1 {
		t.Error("Expected item deleted")
	}
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	queue := &fakeQueue{}
	validator := &fakeValidator{}
	revoker := &fakeRevoker{}
	w := NewWorker(queue, validator, revoker)

	// Activity title edits and deletions are not our concern
	item := queueItem(1, 0, `{"object_type":"activity","object_id":12345,"aspect_type":"update","owner_id":134815,"updates":{"title":"Evening Run"}}`)
	w.process(context.Background(), item)

	if len(validator.events) != 0 || len(revoker.revoked) != 0 {
		t.Error("Expected event to be ignored")
	}
	if len(queue.deleted) != 1 {
		t.Error("Expected item deleted")
	}
}

func TestProcessDropsMalformedEvent(t *testing.T) {
	queue := &fakeQueue{}
	w := NewWorker(queue, &fakeValidator{}, &fakeRevoker{})

	item := queueItem(1, 0, `not json`)
	w.process(context.Background(), item)

	if len(queue.deleted) != 1 {
		t.Error("Expected malformed item dropped")
	}
	if len(queue.released) != 0 {
		t.Error("Expected no retry for malformed item")
	}
}

func TestProcessRetriesOnFailure(t *testing.T) {
	queue := &fakeQueue{}
	validator := &fakeValidator{err: fmt.Errorf("strava unavailable")}
	w := NewWorker(queue, validator, &fakeRevoker{})

	item := queueItem(1, 0, `{"object_type":"activity","object_id":12345,"aspect_type":"create","owner_id":134815}`)
	w.process(context.Background(), item)

	if len(queue.released) != 1 || queue.released[0] != 1 {
		t.Errorf("Expected item released for retry, got %v", queue.released)
	}
	if len(queue.deleted) != 0 {
		t.Error("Expected item not deleted")
	}
}

func TestProcessDropsAfterMaxAttempts(t *testing.T) {
	queue := &fakeQueue{}
	validator := &fakeValidator{err: fmt.Errorf("strava unavailable")}
	w := NewWorker(queue, validator, &fakeRevoker{})

	item := queueItem(1, maxAttempts-1, `{"object_type":"activity","object_id":12345,"aspect_type":"create","owner_id":134815}`)
	w.process(context.Background(), item)

	if len(queue.deleted) != 1 {
		t.Error("Expected item dropped after max attempts")
	}
	if len(queue.released) != 0 {
		t.Error("Expected no further retries")
	}
}

func TestStartDrainsQueueAndStops(t *testing.T) {
	queue := &fakeQueue{items: []*database.WebhookQueueItem{
		queueItem(1, 0, `{"object_type":"activity","object_id":1,"aspect_type":"create","owner_id":134815}`),
		queueItem(2, 0, `{"object_type":"activity","object_id":2,"aspect_type":"create","owner_id":134815}`),
	}}
	validator := &fakeValidator{}
	w := NewWorker(queue, validator, &fakeRevoker{})
	w.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}

	if len(validator.events) != 2 {
		t.Errorf("Expected 2 events processed, got %d", len(validator.events))
	}
	if len(queue.deleted) != 2 {
		t.Errorf("Expected 2 items deleted, got %d", len(queue.deleted))
	}
}
