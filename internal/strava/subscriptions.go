package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"rundapp-engine/internal/metrics"
)

// Subscription represents a Strava webhook subscription
type Subscription struct {
	ID            int    `json:"id"`
	ApplicationID int    `json:"application_id"`
	CallbackURL   string `json:"callback_url"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// CreateSubscription creates a new webhook subscription
// Note: This does not require athlete authentication, only app credentials
func (c *Client) CreateSubscription(ctx context.Context, callbackURL, verifyToken string) (*Subscription, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"callback_url":  {callbackURL},
		"verify_token":  {verifyToken},
	}

	resp, err := c.httpClient.PostForm(c.baseURL+"/push_subscriptions", data)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpCreateSubscription, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var subscription Subscription
	if err := json.Unmarshal(body, &subscription); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	return &subscription, nil
}

// ListSubscriptions lists all webhook subscriptions for this application
func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	params := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	body, err := c.doRequest(ctx, "GET", "/push_subscriptions?"+params.Encode(), "")
	if err != nil {
		metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpListSubscriptions, metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpListSubscriptions, metrics.ResultSuccess).Inc()

	var subscriptions []Subscription
	if err := json.Unmarshal(body, &subscriptions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscriptions: %w", err)
	}

	return subscriptions, nil
}

// DeleteSubscription deletes a webhook subscription by ID
func (c *Client) DeleteSubscription(ctx context.Context, subscriptionID int) error {
	params := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	path := fmt.Sprintf("/push_subscriptions/%d?%s", subscriptionID, params.Encode())
	if _, err := c.doRequest(ctx, "DELETE", path, ""); err != nil {
		metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpDeleteSubscription, metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpDeleteSubscription, metrics.ResultSuccess).Inc()

	return nil
}
