package challenges

import (
	"context"
	"fmt"
	"log/slog"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/metrics"
)

// BountyVerification authorizes one bounty claim: the attestation the
// contract verifies plus the challenger's address for response enrichment
type BountyVerification struct {
	ChallengeID       string `json:"challenge_id"`
	HashedMessage     string `json:"hashed_message"`
	Signature         string `json:"signature"`
	ChallengerAddress string `json:"challenger_address,omitempty"`
}

// Claims coordinates bounty claims and payment recording
type Claims struct {
	store  Store
	oracle Oracle
	signer Signer
	logger *slog.Logger
}

// NewClaims creates a bounty claim coordinator
func NewClaims(store Store, oracle Oracle, signer Signer) *Claims {
	return &Claims{
		store:  store,
		oracle: oracle,
		signer: signer,
		logger: slog.Default(),
	}
}

// ClaimBounty returns signed attestations for every completed, unpaid
// challenge whose challengee holds the supplied address. An empty result is
// not an error.
func (c *Claims) ClaimBounty(ctx context.Context, address string) ([]BountyVerification, error) {
	complete := true
	unpaid := false
	completedChallenges, err := c.store.ListChallenges(database.ChallengeFilter{
		ChallengeeAddress: address,
		Complete:          &complete,
		PaymentComplete:   &unpaid,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list completed challenges: %w", err)
	}

	verifications := make([]BountyVerification, 0, len(completedChallenges))
	for _, challenge := range completedChallenges {
		attestation, err := c.signer.Sign(challenge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to sign attestation for %s: %w", challenge.ID, err)
		}

		verification := BountyVerification{
			ChallengeID:   challenge.ID,
			HashedMessage: attestation.MessageHash,
			Signature:     attestation.Signature,
		}

		challenger, err := c.store.GetUser(challenge.ChallengerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load challenger: %w", err)
		}
		if challenger != nil && challenger.Address != nil {
			verification.ChallengerAddress = *challenger.Address
		}

		verifications = append(verifications, verification)
	}

	c.logger.Info("bounty claim processed", "address", address, "verifications", len(verifications))

	return verifications, nil
}

// RecordBountyPayment marks a challenge's bounty as paid out. The contract
// is re-read first: local completion is webhook-observed, but settlement
// must only ever follow on-chain truth.
func (c *Claims) RecordBountyPayment(ctx context.Context, challengeID string) error {
	local, err := c.store.GetChallenge(challengeID)
	if err != nil {
		return fmt.Errorf("failed to load challenge: %w", err)
	}
	if local == nil {
		return fmt.Errorf("challenge %s: %w", challengeID, ErrChallengeNotFound)
	}

	onChain, err := c.oracle.GetChallenge(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to read challenge from oracle: %w", err)
	}
	if !onChain.Exists() || !onChain.Complete {
		return fmt.Errorf("challenge %s is not complete on-chain: %w", challengeID, ErrChallengeUnauthorizedAction)
	}

	if err := c.store.CompletePayment(challengeID); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	metrics.PaymentsRecordedTotal.Inc()
	c.logger.Info("bounty payment recorded", "challenge_id", challengeID)

	return nil
}
