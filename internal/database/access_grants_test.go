package database

import (
	"reflect"
	"testing"
	"time"
)

func TestUpsertAndGetAccessGrant(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "athlete@example.com", "")

	grant := &AccessGrant{
		AthleteID:    134815,
		UserID:       user.ID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
		Scope:        "read,activity:read",
	}
	if err := db.UpsertAccessGrant(grant); err != nil {
		t.Fatalf("Failed to upsert access grant: %v", err)
	}

	retrieved, err := db.GetAccessGrant(134815)
	if err != nil {
		t.Fatalf("Failed to get access grant: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected grant, got nil")
	}
	if retrieved.AccessToken != "access-1" {
		t.Errorf("Expected access-1, got %s", retrieved.AccessToken)
	}
	if !reflect.DeepEqual(retrieved.Scopes(), []string{"read", "activity:read"}) {
		t.Errorf("Unexpected scopes: %v", retrieved.Scopes())
	}

	byUser, err := db.GetAccessGrantByUser(user.ID)
	if err != nil {
		t.Fatalf("Failed to get access grant by user: %v", err)
	}
	if byUser == nil || byUser.AthleteID != 134815 {
		t.Errorf("Unexpected grant by user: %+v", byUser)
	}
}

func TestUpsertAccessGrantReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "athlete@example.com", "")

	first := &AccessGrant{AthleteID: 134815, UserID: user.ID, AccessToken: "access-1", RefreshToken: "refresh-1", Scope: "read"}
	if err := db.UpsertAccessGrant(first); err != nil {
		t.Fatalf("Failed to upsert first grant: %v", err)
	}

	second := &AccessGrant{AthleteID: 134815, UserID: user.ID, AccessToken: "access-2", RefreshToken: "refresh-2", Scope: "read,activity:read"}
	if err := db.UpsertAccessGrant(second); err != nil {
		t.Fatalf("Failed to upsert second grant: %v", err)
	}

	retrieved, err := db.GetAccessGrant(134815)
	if err != nil {
		t.Fatalf("Failed to get access grant: %v", err)
	}
	if retrieved.AccessToken != "access-2" {
		t.Errorf("Expected access-2, got %s", retrieved.AccessToken)
	}
	if retrieved.RefreshToken != "refresh-2" {
		t.Errorf("Expected refresh-2, got %s", retrieved.RefreshToken)
	}
}

func TestGetAccessGrantMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	grant, err := db.GetAccessGrant(999)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if grant != nil {
		t.Error("Expected nil grant")
	}
}

func TestUpdateAccessGrantTokens(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "athlete@example.com", "")

	grant := &AccessGrant{AthleteID: 134815, UserID: user.ID, AccessToken: "old", RefreshToken: "old-refresh", Scope: "read"}
	if err := db.UpsertAccessGrant(grant); err != nil {
		t.Fatalf("Failed to upsert grant: %v", err)
	}

	expires := time.Now().Add(6 * time.Hour).Unix()
	if err := db.UpdateAccessGrantTokens(134815, "new", "new-refresh", expires); err != nil {
		t.Fatalf("Failed to update tokens: %v", err)
	}

	retrieved, err := db.GetAccessGrant(134815)
	if err != nil {
		t.Fatalf("Failed to get access grant: %v", err)
	}
	if retrieved.AccessToken != "new" || retrieved.RefreshToken != "new-refresh" {
		t.Errorf("Unexpected tokens: %s / %s", retrieved.AccessToken, retrieved.RefreshToken)
	}
	if retrieved.ExpiresAt != expires {
		t.Errorf("Expected expires_at %d, got %d", expires, retrieved.ExpiresAt)
	}

	if err := db.UpdateAccessGrantTokens(999, "a", "b", 0); err == nil {
		t.Error("Expected error updating tokens for missing grant")
	}
}

func TestRevokeAccessGrant(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "athlete@example.com", "")

	grant := &AccessGrant{AthleteID: 134815, UserID: user.ID, AccessToken: "access", RefreshToken: "refresh", Scope: "read,activity:read"}
	if err := db.UpsertAccessGrant(grant); err != nil {
		t.Fatalf("Failed to upsert grant: %v", err)
	}

	if err := db.RevokeAccessGrant(134815); err != nil {
		t.Fatalf("Failed to revoke grant: %v", err)
	}

	retrieved, err := db.GetAccessGrant(134815)
	if err != nil {
		t.Fatalf("Failed to get access grant: %v", err)
	}
	if retrieved.Scope != "" {
		t.Errorf("Expected empty scope after revocation, got %q", retrieved.Scope)
	}
	if retrieved.AccessToken != "" || retrieved.RefreshToken != "" {
		t.Error("Expected tokens cleared after revocation")
	}

	// Revoking an unknown athlete is not an error
	if err := db.RevokeAccessGrant(999); err != nil {
		t.Errorf("Expected no error revoking missing grant, got %v", err)
	}
}
