package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rundapp-engine/internal/metrics"
)

// Activity is the subset of Strava's detailed activity payload the
// validation engine evaluates. Distance is in meters, AverageSpeed in
// meters/second, as reported by Strava.
type Activity struct {
	ID           int64       `json:"id"`
	Distance     float64     `json:"distance"`
	AverageSpeed float64     `json:"average_speed"`
	Type         string      `json:"type"`
	Manual       bool        `json:"manual"`
	StartDate    time.Time   `json:"start_date"`
	Map          ActivityMap `json:"map"`
}

// ActivityMap holds the recorded route, empty for activities without GPS data
type ActivityMap struct {
	Polyline        string `json:"polyline"`
	SummaryPolyline string `json:"summary_polyline"`
}

// HasRoute reports whether the activity carries a recorded route
func (a *Activity) HasRoute() bool {
	return a.Map.Polyline != "" || a.Map.SummaryPolyline != ""
}

// GetActivity fetches detailed activity data for a specific activity
func (c *Client) GetActivity(ctx context.Context, accessToken string, activityID int64) (*Activity, error) {
	path := fmt.Sprintf("/activities/%d", activityID)

	respBody, err := c.doRequest(ctx, "GET", path, accessToken)
	if err != nil {
		metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpGetActivity, metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to get activity %d: %w", activityID, err)
	}
	metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpGetActivity, metrics.ResultSuccess).Inc()

	var activity Activity
	if err := json.Unmarshal(respBody, &activity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity: %w", err)
	}

	return &activity, nil
}
