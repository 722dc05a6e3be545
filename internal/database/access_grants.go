package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AccessGrant represents a Strava token pair for one athlete. Scope is the
// comma-joined set of granted scopes; empty means access was revoked.
type AccessGrant struct {
	AthleteID    int64
	UserID       int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	Scope        string
	CreatedAt    int64
	UpdatedAt    int64
}

// Scopes returns the granted scopes as a slice, empty when revoked
func (g *AccessGrant) Scopes() []string {
	if g.Scope == "" {
		return nil
	}
	return strings.Split(g.Scope, ",")
}

// UpsertAccessGrant inserts or replaces the grant for an athlete. Keyed by
// athlete_id so concurrent refreshes never produce duplicate rows.
func (db *DB) UpsertAccessGrant(g *AccessGrant) error {
	now := time.Now().Unix()
	g.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO access_grants (athlete_id, user_id, access_token, refresh_token, expires_at, scope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id) DO UPDATE SET
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			updated_at = excluded.updated_at
	`, g.AthleteID, g.UserID, g.AccessToken, g.RefreshToken, g.ExpiresAt, g.Scope, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert access grant: %w", err)
	}
	return nil
}

// GetAccessGrant retrieves the grant for an athlete
func (db *DB) GetAccessGrant(athleteID int64) (*AccessGrant, error) {
	return db.getAccessGrant("athlete_id = ?", athleteID)
}

// GetAccessGrantByUser retrieves the grant for a local user
func (db *DB) GetAccessGrantByUser(userID int64) (*AccessGrant, error) {
	return db.getAccessGrant("user_id = ?", userID)
}

func (db *DB) getAccessGrant(where string, arg any) (*AccessGrant, error) {
	var g AccessGrant
	err := db.conn.QueryRow(`
		SELECT athlete_id, user_id, access_token, refresh_token, expires_at, scope, created_at, updated_at
		FROM access_grants WHERE `+where,
		arg,
	).Scan(&g.AthleteID, &g.UserID, &g.AccessToken, &g.RefreshToken, &g.ExpiresAt, &g.Scope, &g.CreatedAt, &g.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access grant: %w", err)
	}
	return &g, nil
}

// UpdateAccessGrantTokens persists a refreshed token pair
func (db *DB) UpdateAccessGrantTokens(athleteID int64, accessToken, refreshToken string, expiresAt int64) error {
	result, err := db.conn.Exec(`
		UPDATE access_grants
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE athlete_id = ?
	`, accessToken, refreshToken, expiresAt, time.Now().Unix(), athleteID)

	if err != nil {
		return fmt.Errorf("failed to update access grant tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("access grant not found")
	}

	return nil
}

// RevokeAccessGrant clears an athlete's granted scopes. Tokens are cleared
// too; the athlete must reauthorize before any further activity fetch.
// Revoking an athlete with no grant is a no-op.
func (db *DB) RevokeAccessGrant(athleteID int64) error {
	_, err := db.conn.Exec(`
		UPDATE access_grants
		SET scope = '', access_token = '', refresh_token = '', updated_at = ?
		WHERE athlete_id = ?
	`, time.Now().Unix(), athleteID)

	if err != nil {
		return fmt.Errorf("failed to revoke access grant: %w", err)
	}

	return nil
}
