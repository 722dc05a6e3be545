package challenges

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/metrics"
)

// IssueRequest carries a client's issuance request. Addresses are never
// taken from the client; the oracle's record is the only source of truth
// for participant addresses and challenge terms.
type IssueRequest struct {
	ChallengeID     string `json:"challenge_id"`
	ChallengerEmail string `json:"challenger_email"`
	ChallengeeEmail string `json:"challengee_email"`
}

// Issuer materializes local challenge rows from validated on-chain records
type Issuer struct {
	store    Store
	oracle   Oracle
	notifier Notifier
	logger   *slog.Logger

	// Single bounded delay before the oracle read, absorbing typical
	// block-confirmation latency. Callers retry if the record still is
	// not mined; there is no polling loop here.
	confirmationDelay time.Duration
}

// NewIssuer creates a challenge issuer
func NewIssuer(store Store, oracle Oracle, notifier Notifier, confirmationDelay time.Duration) *Issuer {
	return &Issuer{
		store:             store,
		oracle:            oracle,
		notifier:          notifier,
		logger:            slog.Default(),
		confirmationDelay: confirmationDelay,
	}
}

// Issue validates a challenge against the on-chain oracle and persists it.
// A local row exists if and only if this validation has passed.
func (i *Issuer) Issue(ctx context.Context, req IssueRequest) error {
	existing, err := i.store.GetChallenge(req.ChallengeID)
	if err != nil {
		return fmt.Errorf("failed to check for existing challenge: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("challenge %s: %w", req.ChallengeID, ErrDuplicateChallenge)
	}

	// The issuing transaction may not be mined yet when the client calls us
	if i.confirmationDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(i.confirmationDelay):
		}
	}

	onChain, err := i.oracle.GetChallenge(ctx, req.ChallengeID)
	if err != nil {
		return fmt.Errorf("failed to read challenge from oracle: %w", err)
	}
	if !onChain.Exists() {
		return fmt.Errorf("challenge %s has no on-chain record: %w", req.ChallengeID, ErrChallengeNotFound)
	}

	challenger, err := i.resolveUser(req.ChallengerEmail, onChain.Challenger)
	if err != nil {
		return fmt.Errorf("failed to resolve challenger: %w", err)
	}
	challengee, err := i.resolveUser(req.ChallengeeEmail, onChain.Challengee)
	if err != nil {
		return fmt.Errorf("failed to resolve challengee: %w", err)
	}

	challenge := &database.Challenge{
		ID:           req.ChallengeID,
		ChallengerID: challenger.ID,
		ChallengeeID: challengee.ID,
		Bounty:       onChain.Bounty,
		Distance:     onChain.Distance,
	}
	if onChain.Pace > 0 {
		pace := onChain.Pace
		challenge.Pace = &pace
	}

	if err := i.store.CreateChallenge(challenge); err != nil {
		return fmt.Errorf("failed to persist challenge: %w", err)
	}

	metrics.ChallengesIssuedTotal.Inc()
	i.logger.Info("challenge issued",
		"challenge_id", challenge.ID,
		"challenger", challenger.ID,
		"challengee", challengee.ID,
		"bounty", challenge.Bounty,
		"distance", challenge.Distance,
	)

	if err := i.notifier.ChallengeIssued(ctx, participantsOf(challenger, challengee), displayTerms(challenge)); err != nil {
		// Notification failure must not fail issuance
		i.logger.Error("failed to send issuance notification", "challenge_id", challenge.ID, "error", err)
	}

	return nil
}

// resolveUser retrieves or lazily creates the user for an email, attaching
// the address the oracle reported
func (i *Issuer) resolveUser(email, address string) (*database.User, error) {
	user, err := i.store.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return i.store.CreateUser(&database.User{Email: email, Address: &address})
	}

	// Backfill addresses from on-chain truth for users created before one
	// was known
	if user.Address == nil || *user.Address == "" {
		if err := i.store.UpdateUserAddress(user.ID, address); err != nil {
			return nil, err
		}
		user.Address = &address
	}

	return user, nil
}
