package strava

import (
	"encoding/json"
	"testing"
)

func TestIsActivityCreation(t *testing.T) {
	tests := []struct {
		name  string
		event WebhookEvent
		want  bool
	}{
		{"activity create", WebhookEvent{ObjectType: ObjectActivity, AspectType: AspectCreate}, true},
		{"activity update", WebhookEvent{ObjectType: ObjectActivity, AspectType: AspectUpdate}, false},
		{"activity delete", WebhookEvent{ObjectType: ObjectActivity, AspectType: AspectDelete}, false},
		{"athlete create", WebhookEvent{ObjectType: ObjectAthlete, AspectType: AspectCreate}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.IsActivityCreation(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIsDeauthorization(t *testing.T) {
	tests := []struct {
		name    string
		updates string
		aspect  string
		want    bool
	}{
		{"authorized false string", `{"authorized":"false"}`, AspectUpdate, true},
		{"authorized false bool", `{"authorized":false}`, AspectUpdate, true},
		{"authorized true", `{"authorized":"true"}`, AspectUpdate, false},
		{"unrelated update", `{"title":"Morning Run"}`, AspectUpdate, false},
		{"create aspect", `{"authorized":"false"}`, AspectCreate, false},
		{"no updates", "", AspectUpdate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := WebhookEvent{ObjectType: ObjectAthlete, AspectType: tt.aspect}
			if tt.updates != "" {
				e.Updates = json.RawMessage(tt.updates)
			}
			if got := e.IsDeauthorization(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWebhookEventUnmarshal(t *testing.T) {
	raw := `{
		"object_type": "activity",
		"object_id": 12345,
		"aspect_type": "create",
		"owner_id": 134815,
		"subscription_id": 120475,
		"event_time": 1516126040
	}`

	var event WebhookEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}

	if event.ObjectID != 12345 {
		t.Errorf("Expected object id 12345, got %d", event.ObjectID)
	}
	if event.OwnerID != 134815 {
		t.Errorf("Expected owner id 134815, got %d", event.OwnerID)
	}
	if !event.IsActivityCreation() {
		t.Error("Expected activity creation event")
	}
}
