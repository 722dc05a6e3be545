package strava

import "encoding/json"

// Webhook aspect and object types Strava delivers
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"

	ObjectActivity = "activity"
	ObjectAthlete  = "athlete"
)

// WebhookEvent is the event object Strava POSTs to the webhook callback.
// OwnerID is the athlete the event belongs to.
type WebhookEvent struct {
	ObjectType     string          `json:"object_type"`
	ObjectID       int64           `json:"object_id"`
	AspectType     string          `json:"aspect_type"`
	OwnerID        int64           `json:"owner_id"`
	SubscriptionID int64           `json:"subscription_id"`
	EventTime      int64           `json:"event_time"`
	Updates        json.RawMessage `json:"updates,omitempty"`
}

// IsActivityCreation reports whether the event announces a new activity
func (e *WebhookEvent) IsActivityCreation() bool {
	return e.AspectType == AspectCreate && e.ObjectType == ObjectActivity
}

// IsDeauthorization reports whether the event revokes this app's access.
// Strava sends updates.authorized as the string "false" on athlete updates.
func (e *WebhookEvent) IsDeauthorization() bool {
	if e.AspectType != AspectUpdate || len(e.Updates) == 0 {
		return false
	}

	var updates struct {
		Authorized json.RawMessage `json:"authorized"`
	}
	if err := json.Unmarshal(e.Updates, &updates); err != nil {
		return false
	}

	switch string(updates.Authorized) {
	case `false`, `"false"`:
		return true
	}
	return false
}
