package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"rundapp-engine/internal/challenges"
	"rundapp-engine/internal/database"
)

const addressLength = 42 // 0x-prefixed 20-byte hex address

// UserStore resolves claiming addresses to known users
type UserStore interface {
	GetUserByAddress(address string) (*database.User, error)
}

// ChallengesHandler exposes challenge issuance, bounty claims, and payment
// recording
type ChallengesHandler struct {
	issuer *challenges.Issuer
	claims *challenges.Claims
	users  UserStore
	logger *slog.Logger
}

// NewChallengesHandler creates a new challenges handler
func NewChallengesHandler(issuer *challenges.Issuer, claims *challenges.Claims, users UserStore) *ChallengesHandler {
	return &ChallengesHandler{
		issuer: issuer,
		claims: claims,
		users:  users,
		logger: slog.Default(),
	}
}

// HandleIssue handles POST /challenges/actions/create
func (h *ChallengesHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req challenges.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.ChallengeID == "" || req.ChallengerEmail == "" || req.ChallengeeEmail == "" {
		http.Error(w, "challenge_id, challenger_email and challengee_email are required", http.StatusBadRequest)
		return
	}

	if err := h.issuer.Issue(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, challenges.ErrDuplicateChallenge):
			http.Error(w, "Challenge already exists", http.StatusConflict)
		case errors.Is(err, challenges.ErrChallengeNotFound):
			http.Error(w, "The supplied challenge ID has no on-chain record", http.StatusNotFound)
		default:
			h.logger.Error("Challenge issuance failed", "challenge_id", req.ChallengeID, "error", err)
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// claimBountyResponse is the body returned for bounty claims
type claimBountyResponse struct {
	VerifiedBounties []challenges.BountyVerification `json:"verified_bounties"`
}

// HandleClaim handles GET /challenges/actions/claim?address=
func (h *ChallengesHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	address := r.URL.Query().Get("address")
	if len(address) != addressLength {
		http.Error(w, "The supplied address is invalid.", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByAddress(address)
	if err != nil {
		h.logger.Error("Failed to look up claiming address", "error", err)
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	if user == nil {
		http.Error(w, "The supplied address is invalid.", http.StatusNotFound)
		return
	}

	verifications, err := h.claims.ClaimBounty(r.Context(), address)
	if err != nil {
		h.logger.Error("Bounty claim failed", "address", address, "error", err)
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(claimBountyResponse{VerifiedBounties: verifications}); err != nil {
		h.logger.Error("Failed to encode claim response", "error", err)
	}
}

// HandleRecordPayment handles PATCH /challenges/{challenge_id}
func (h *ChallengesHandler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	challengeID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/challenges/"), "/")
	if challengeID == "" || strings.Contains(challengeID, "/") {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.claims.RecordBountyPayment(r.Context(), challengeID); err != nil {
		switch {
		case errors.Is(err, challenges.ErrChallengeNotFound):
			http.Error(w, "The supplied challenge ID is invalid", http.StatusNotFound)
		case errors.Is(err, challenges.ErrChallengeUnauthorizedAction):
			http.Error(w, "Challenge is not complete on-chain", http.StatusForbidden)
		default:
			h.logger.Error("Recording bounty payment failed", "challenge_id", challengeID, "error", err)
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
