// Package challenges implements the challenge lifecycle engine: issuance
// against on-chain truth, webhook-driven completion validation, and bounty
// claim attestation. The engine holds no state between invocations; every
// operation re-reads current rows so concurrent and duplicate webhook
// deliveries stay correct.
package challenges

import (
	"context"
	"errors"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/ethereum"
	"rundapp-engine/internal/notify"
	"rundapp-engine/internal/strava"
	"rundapp-engine/internal/units"
)

var (
	// ErrDuplicateChallenge rejects a replayed issuance request; the
	// existing row is left untouched
	ErrDuplicateChallenge = errors.New("challenge already exists")

	// ErrChallengeNotFound means the oracle (or local store) has no record
	// for the identifier, e.g. the issuing transaction is not mined yet
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeUnauthorizedAction rejects recording a bounty payment
	// before the contract reports the challenge complete
	ErrChallengeUnauthorizedAction = errors.New("challenge action not authorized")
)

// Store is the persistence the engine needs. Implemented by *database.DB.
type Store interface {
	GetChallenge(id string) (*database.Challenge, error)
	CreateChallenge(c *database.Challenge) error
	ListChallenges(filter database.ChallengeFilter) ([]*database.Challenge, error)
	CompleteChallenge(id string) (bool, error)
	CompletePayment(challengeID string) error

	GetUser(id int64) (*database.User, error)
	GetUserByEmail(email string) (*database.User, error)
	CreateUser(u *database.User) (*database.User, error)
	UpdateUserAddress(id int64, address string) error
}

// Oracle reads authoritative challenge terms from the contract
type Oracle interface {
	GetChallenge(ctx context.Context, challengeID string) (*ethereum.OnChainChallenge, error)
}

// ActivityClient fetches athlete activity data
type ActivityClient interface {
	GetActivity(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error)
}

// AccessManager hands out fresh access grants
type AccessManager interface {
	EnsureFreshAccess(ctx context.Context, athleteID int64) (*database.AccessGrant, error)
}

// Signer produces bounty-claim attestations
type Signer interface {
	Sign(challengeID string) (*ethereum.SignedAttestation, error)
}

// Notifier dispatches participant emails. Fire-and-forget from the engine's
// perspective: failures are logged by callers, never propagated.
type Notifier interface {
	ChallengeIssued(ctx context.Context, participants notify.Participants, terms notify.ChallengeTerms) error
	ChallengeCompleted(ctx context.Context, participants notify.Participants, terms notify.ChallengeTerms, completed notify.CompletedMetrics) error
}

// displayTerms converts a stored challenge's raw on-chain units to the
// display units notifications use
func displayTerms(c *database.Challenge) notify.ChallengeTerms {
	var pace int64
	if c.Pace != nil {
		pace = *c.Pace
	}
	return notify.ChallengeTerms{
		ID:            c.ID,
		BountyWei:     c.Bounty,
		DistanceMiles: units.CmToMiles(c.Distance),
		Pace:          units.CmPerSecToMinutesPerMile(pace),
	}
}

func participantsOf(challenger, challengee *database.User) notify.Participants {
	return notify.Participants{Challenger: challenger, Challengee: challengee}
}

// participants loads both users referenced by a challenge
func participants(store Store, c *database.Challenge) (notify.Participants, error) {
	challenger, err := store.GetUser(c.ChallengerID)
	if err != nil {
		return notify.Participants{}, err
	}
	challengee, err := store.GetUser(c.ChallengeeID)
	if err != nil {
		return notify.Participants{}, err
	}
	return notify.Participants{Challenger: challenger, Challengee: challengee}, nil
}
