package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/strava"
)

// TokenExchanger exchanges an authorization code for a token pair
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*strava.TokenResponse, error)
}

// GrantStore persists access grants
type GrantStore interface {
	UpsertAccessGrant(g *database.AccessGrant) error
}

// AuthorizeHandler receives the redirect after a user authorizes the app
// on Strava and persists the initial access grant
type AuthorizeHandler struct {
	exchanger TokenExchanger
	grants    GrantStore
	logger    *slog.Logger
}

// NewAuthorizeHandler creates a new authorization-code handler
func NewAuthorizeHandler(exchanger TokenExchanger, grants GrantStore) *AuthorizeHandler {
	return &AuthorizeHandler{
		exchanger: exchanger,
		grants:    grants,
		logger:    slog.Default(),
	}
}

// HandleAuthorize handles GET ?user_id=&code=&scope= from Strava's redirect
func (h *AuthorizeHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	scope := query.Get("scope")
	userID, err := strconv.ParseInt(query.Get("user_id"), 10, 64)
	if err != nil || code == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	tokenResp, err := h.exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("Failed to exchange authorization code", "error", err, "user_id", userID)
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return
	}

	var athlete struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(tokenResp.Athlete, &athlete); err != nil || athlete.ID == 0 {
		h.logger.Error("Token response carried no athlete", "error", err, "user_id", userID)
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return
	}

	grant := &database.AccessGrant{
		AthleteID:    athlete.ID,
		UserID:       userID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    tokenResp.ExpiresAt,
		Scope:        strings.TrimSpace(scope),
	}

	if err := h.grants.UpsertAccessGrant(grant); err != nil {
		h.logger.Error("Failed to store access grant", "error", err, "athlete_id", athlete.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Access grant stored", "athlete_id", athlete.ID, "user_id", userID, "scope", scope)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Strava access granted. You can close this window."))
}
