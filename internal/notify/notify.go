// Package notify sends challenge lifecycle emails. Delivery is best-effort:
// callers log failures and continue, a lost email never fails issuance or
// validation.
package notify

import (
	"rundapp-engine/internal/database"
	"rundapp-engine/internal/units"
)

// Participants are the two users bound by a challenge
type Participants struct {
	Challenger *database.User
	Challengee *database.User
}

// ChallengeTerms are a challenge's terms converted to display units
type ChallengeTerms struct {
	ID            string
	BountyWei     int64
	DistanceMiles float64
	Pace          units.Pace
}

// CompletedMetrics are the actual metrics of the activity that completed a
// challenge, converted to display units
type CompletedMetrics struct {
	DistanceMiles float64
	Pace          units.Pace
}

// displayName prefers a user's name over their email
func displayName(u *database.User) string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
