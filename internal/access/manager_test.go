package access

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/strava"
)

type fakeStore struct {
	grants  map[int64]*database.AccessGrant
	upserts int
}

func (s *fakeStore) GetAccessGrant(athleteID int64) (*database.AccessGrant, error) {
	return s.grants[athleteID], nil
}

func (s *fakeStore) UpsertAccessGrant(g *database.AccessGrant) error {
	s.upserts++
	s.grants[g.AthleteID] = g
	return nil
}

type fakeRefresher struct {
	calls int
	err   error
}

func (r *fakeRefresher) RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenResponse, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &strava.TokenResponse{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC).Unix(),
	}, nil
}

func newTestManager(store *fakeStore, refresher *fakeRefresher) *Manager {
	m := NewManager(store, refresher)
	m.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestEnsureFreshAccessGrantNotFound(t *testing.T) {
	m := newTestManager(&fakeStore{grants: map[int64]*database.AccessGrant{}}, &fakeRefresher{})

	_, err := m.EnsureFreshAccess(context.Background(), 134815)
	if !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("Expected ErrGrantNotFound, got %v", err)
	}
}

func TestEnsureFreshAccessGrantRevoked(t *testing.T) {
	store := &fakeStore{grants: map[int64]*database.AccessGrant{
		134815: {AthleteID: 134815, Scope: ""},
	}}
	m := newTestManager(store, &fakeRefresher{})

	_, err := m.EnsureFreshAccess(context.Background(), 134815)
	if !errors.Is(err, ErrGrantRevoked) {
		t.Errorf("Expected ErrGrantRevoked, got %v", err)
	}
}

func TestEnsureFreshAccessValidGrantUntouched(t *testing.T) {
	store := &fakeStore{grants: map[int64]*database.AccessGrant{
		134815: {
			AthleteID:   134815,
			AccessToken: "current",
			ExpiresAt:   time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC).Unix(),
			Scope:       "activity:read",
		},
	}}
	refresher := &fakeRefresher{}
	m := newTestManager(store, refresher)

	grant, err := m.EnsureFreshAccess(context.Background(), 134815)
	if err != nil {
		t.Fatalf("Failed to ensure fresh access: %v", err)
	}
	if grant.AccessToken != "current" {
		t.Errorf("Expected current token, got %s", grant.AccessToken)
	}
	if refresher.calls != 0 {
		t.Errorf("Expected no refresh, got %d", refresher.calls)
	}
	if store.upserts != 0 {
		t.Errorf("Expected no upserts, got %d", store.upserts)
	}
}

func TestEnsureFreshAccessRefreshesExpiredGrant(t *testing.T) {
	store := &fakeStore{grants: map[int64]*database.AccessGrant{
		134815: {
			AthleteID:    134815,
			AccessToken:  "stale",
			RefreshToken: "old-refresh",
			ExpiresAt:    time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC).Unix(),
			Scope:        "activity:read",
		},
	}}
	refresher := &fakeRefresher{}
	m := newTestManager(store, refresher)

	grant, err := m.EnsureFreshAccess(context.Background(), 134815)
	if err != nil {
		t.Fatalf("Failed to ensure fresh access: %v", err)
	}
	if grant.AccessToken != "new-access" {
		t.Errorf("Expected new-access, got %s", grant.AccessToken)
	}
	if grant.RefreshToken != "new-refresh" {
		t.Errorf("Expected new-refresh, got %s", grant.RefreshToken)
	}
	if refresher.calls != 1 {
		t.Errorf("Expected 1 refresh, got %d", refresher.calls)
	}
	if store.upserts != 1 {
		t.Errorf("Expected refreshed grant persisted, got %d upserts", store.upserts)
	}

	// The refreshed grant is now fresh; a second call must not refresh again
	if _, err := m.EnsureFreshAccess(context.Background(), 134815); err != nil {
		t.Fatalf("Failed on second call: %v", err)
	}
	if refresher.calls != 1 {
		t.Errorf("Expected refresh exactly once, got %d", refresher.calls)
	}
}

func TestEnsureFreshAccessRefreshFailure(t *testing.T) {
	store := &fakeStore{grants: map[int64]*database.AccessGrant{
		134815: {
			AthleteID:    134815,
			RefreshToken: "old-refresh",
			ExpiresAt:    0,
			Scope:        "activity:read",
		},
	}}
	refresher := &fakeRefresher{err: fmt.Errorf("strava unavailable")}
	m := newTestManager(store, refresher)

	if _, err := m.EnsureFreshAccess(context.Background(), 134815); err == nil {
		t.Error("Expected error when refresh fails")
	}
	if store.upserts != 0 {
		t.Error("Expected no upsert after failed refresh")
	}
}
