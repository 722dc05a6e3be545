// Package access keeps Strava access grants fresh. Every activity fetch
// goes through EnsureFreshAccess so callers never see an expired token.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/metrics"
	"rundapp-engine/internal/strava"
)

// ErrGrantNotFound is returned when an athlete has never authorized the
// application. Expected for challengees who have not yet connected Strava.
var ErrGrantNotFound = errors.New("no access grant for athlete")

// ErrGrantRevoked is returned when the athlete revoked this application's
// access; activity fetches must not be attempted.
var ErrGrantRevoked = errors.New("access grant revoked")

// Store is the grant persistence this manager needs
type Store interface {
	GetAccessGrant(athleteID int64) (*database.AccessGrant, error)
	UpsertAccessGrant(g *database.AccessGrant) error
}

// TokenRefresher exchanges a refresh token for a new token pair
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenResponse, error)
}

// Manager hands out valid access grants, refreshing stale ones on demand
type Manager struct {
	store     Store
	refresher TokenRefresher
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a new access grant manager
func NewManager(store Store, refresher TokenRefresher) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// EnsureFreshAccess returns the athlete's grant, refreshing and persisting
// it first if the stored token has expired. A refresh happens at most once
// per expiry, never on every call.
func (m *Manager) EnsureFreshAccess(ctx context.Context, athleteID int64) (*database.AccessGrant, error) {
	grant, err := m.store.GetAccessGrant(athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load access grant: %w", err)
	}
	if grant == nil {
		return nil, fmt.Errorf("athlete %d: %w", athleteID, ErrGrantNotFound)
	}
	if grant.Scope == "" {
		return nil, fmt.Errorf("athlete %d: %w", athleteID, ErrGrantRevoked)
	}

	if grant.ExpiresAt >= m.now().Unix() {
		return grant, nil
	}

	m.logger.Info("refreshing access token", "athlete_id", athleteID)

	tokenResp, err := m.refresher.RefreshToken(ctx, grant.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	metrics.TokenRefreshesTotal.Inc()

	grant.AccessToken = tokenResp.AccessToken
	grant.RefreshToken = tokenResp.RefreshToken
	grant.ExpiresAt = tokenResp.ExpiresAt

	if err := m.store.UpsertAccessGrant(grant); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed grant: %w", err)
	}

	return grant, nil
}
