package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"rundapp-engine/internal/config"
	"rundapp-engine/internal/metrics"
	"rundapp-engine/internal/strava"
)

// WebhookQueue is the enqueue side of the webhook processing queue
type WebhookQueue interface {
	EnqueueWebhook(data json.RawMessage) (int64, error)
}

// WebhookHandler handles Strava webhook callbacks
type WebhookHandler struct {
	queue  WebhookQueue
	config *config.Config
	logger *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(queue WebhookQueue, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		queue:  queue,
		config: cfg,
		logger: slog.Default(),
	}
}

// HandleVerification handles GET requests for subscription verification
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hubMode := r.URL.Query().Get("hub.mode")
	hubChallenge := r.URL.Query().Get("hub.challenge")
	hubVerifyToken := r.URL.Query().Get("hub.verify_token")

	h.logger.Info("Webhook verification request", "hub.mode", hubMode)

	if hubMode != "subscribe" || hubVerifyToken != h.config.StravaVerifyToken {
		h.logger.Warn("Invalid verify token")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Echo the challenge back to confirm the subscription
	response := map[string]string{
		"hub.challenge": hubChallenge,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode challenge response", "error", err)
	}

	h.logger.Info("Webhook verification successful")
}

// HandleEvent handles POST requests for webhook events. Strava expects a
// fast 200 regardless of internal outcome, so events are enqueued and
// processed by the worker.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Validate the payload shape before accepting it
	var event strava.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("Invalid JSON in webhook body", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	h.logger.Info("Received webhook event",
		"object_type", event.ObjectType,
		"object_id", event.ObjectID,
		"aspect_type", event.AspectType,
		"owner_id", event.OwnerID,
	)

	if _, err := h.queue.EnqueueWebhook(body); err != nil {
		h.logger.Error("Failed to enqueue webhook", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	metrics.QueueEnqueueTotal.Inc()

	w.WriteHeader(http.StatusOK)
}
