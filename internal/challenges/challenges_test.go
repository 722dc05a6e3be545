package challenges

import (
	"context"
	"fmt"
	"testing"

	"rundapp-engine/internal/access"
	"rundapp-engine/internal/database"
	"rundapp-engine/internal/ethereum"
	"rundapp-engine/internal/notify"
	"rundapp-engine/internal/strava"
)

const (
	challengerAddress = "0x63958fDFA9DAF21bb9bE4312c3f53cb080DA80D8"
	challengeeAddress = "0xcF107AdC80c7F7b5eE430B52744F96e2D76681a2"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeOracle serves canned on-chain records; unknown identifiers come back
// as zero-address records, like the contract
type fakeOracle struct {
	challenges map[string]*ethereum.OnChainChallenge
	err        error
}

func (o *fakeOracle) GetChallenge(ctx context.Context, challengeID string) (*ethereum.OnChainChallenge, error) {
	if o.err != nil {
		return nil, o.err
	}
	if c, ok := o.challenges[challengeID]; ok {
		return c, nil
	}
	return &ethereum.OnChainChallenge{
		Challenger: ethereum.ZeroAddress,
		Challengee: ethereum.ZeroAddress,
	}, nil
}

type fakeNotifier struct {
	issued    []string
	completed []string
}

func (n *fakeNotifier) ChallengeIssued(ctx context.Context, p notify.Participants, terms notify.ChallengeTerms) error {
	n.issued = append(n.issued, terms.ID)
	return nil
}

func (n *fakeNotifier) ChallengeCompleted(ctx context.Context, p notify.Participants, terms notify.ChallengeTerms, completed notify.CompletedMetrics) error {
	n.completed = append(n.completed, terms.ID)
	return nil
}

type fakeAccess struct {
	grants map[int64]*database.AccessGrant
	err    error
}

func (a *fakeAccess) EnsureFreshAccess(ctx context.Context, athleteID int64) (*database.AccessGrant, error) {
	if a.err != nil {
		return nil, a.err
	}
	grant, ok := a.grants[athleteID]
	if !ok {
		return nil, fmt.Errorf("athlete %d: %w", athleteID, access.ErrGrantNotFound)
	}
	return grant, nil
}

type fakeActivities struct {
	activities map[int64]*strava.Activity
}

func (c *fakeActivities) GetActivity(ctx context.Context, accessToken string, activityID int64) (*strava.Activity, error) {
	a, ok := c.activities[activityID]
	if !ok {
		return nil, &strava.HTTPError{StatusCode: 404, Body: "Record Not Found"}
	}
	return a, nil
}

// onChainRecord is the standard test challenge: 0.0144 ETH bounty, 10 km
// distance, 3 m/s minimum pace
func onChainRecord(id string) *ethereum.OnChainChallenge {
	return &ethereum.OnChainChallenge{
		ID:         id,
		Challenger: challengerAddress,
		Challengee: challengeeAddress,
		Bounty:     14_400_000_000_000_000,
		Distance:   1_000_000,
		Pace:       300,
		IssuedAt:   1700000000,
	}
}

// issueTestChallenge runs a challenge through the real issuance path
func issueTestChallenge(t *testing.T, db *database.DB, id string) {
	t.Helper()

	oracle := &fakeOracle{challenges: map[string]*ethereum.OnChainChallenge{id: onChainRecord(id)}}
	issuer := NewIssuer(db, oracle, &fakeNotifier{}, 0)

	err := issuer.Issue(context.Background(), IssueRequest{
		ChallengeID:     id,
		ChallengerEmail: "challenger@example.com",
		ChallengeeEmail: "challengee@example.com",
	})
	if err != nil {
		t.Fatalf("Failed to issue challenge: %v", err)
	}
}
