package challenges

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rundapp-engine/internal/access"
	"rundapp-engine/internal/database"
	"rundapp-engine/internal/metrics"
	"rundapp-engine/internal/notify"
	"rundapp-engine/internal/strava"
	"rundapp-engine/internal/units"
)

// Validator evaluates activity webhooks against a challengee's open
// challenges and commits completions
type Validator struct {
	store      Store
	access     AccessManager
	activities ActivityClient
	notifier   Notifier
	logger     *slog.Logger
}

// NewValidator creates a challenge validator
func NewValidator(store Store, accessManager AccessManager, activities ActivityClient, notifier Notifier) *Validator {
	return &Validator{
		store:      store,
		access:     accessManager,
		activities: activities,
		notifier:   notifier,
		logger:     slog.Default(),
	}
}

// Validate handles one "activity created" webhook event. Athletes without a
// usable access grant are skipped silently; that is the normal state for
// users who never authorized the app. Failures for one challenge never
// abort evaluation of its siblings.
func (v *Validator) Validate(ctx context.Context, event strava.WebhookEvent) error {
	grant, err := v.access.EnsureFreshAccess(ctx, event.OwnerID)
	if errors.Is(err, access.ErrGrantNotFound) || errors.Is(err, access.ErrGrantRevoked) {
		v.logger.Info("skipping validation, no usable access grant", "athlete_id", event.OwnerID)
		metrics.ValidationsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil
	}
	if err != nil {
		metrics.ValidationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to obtain access grant: %w", err)
	}

	activity, err := v.activities.GetActivity(ctx, grant.AccessToken, event.ObjectID)
	if err != nil {
		metrics.ValidationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to fetch activity %d: %w", event.ObjectID, err)
	}

	open := false
	openChallenges, err := v.store.ListChallenges(database.ChallengeFilter{
		ChallengeeUserID: grant.UserID,
		Complete:         &open,
	})
	if err != nil {
		metrics.ValidationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to list open challenges: %w", err)
	}

	// Each open challenge is evaluated independently against the same
	// activity; a single run may complete several
	for _, challenge := range openChallenges {
		if !satisfies(activity, challenge) {
			continue
		}

		completed, err := v.store.CompleteChallenge(challenge.ID)
		if err != nil {
			v.logger.Error("failed to mark challenge complete", "challenge_id", challenge.ID, "error", err)
			continue
		}
		if !completed {
			// A concurrent delivery won the transition
			continue
		}

		metrics.ChallengesCompletedTotal.Inc()
		v.logger.Info("challenge completed",
			"challenge_id", challenge.ID,
			"athlete_id", event.OwnerID,
			"activity_id", activity.ID,
		)

		v.notifyCompletion(ctx, challenge, activity)
	}

	metrics.ValidationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return nil
}

// satisfies evaluates the completion predicate: every condition must hold.
// Stored distance is cm, activity distance meters; stored pace is cm/s,
// activity average speed m/s.
func satisfies(activity *strava.Activity, challenge *database.Challenge) bool {
	if !activity.HasRoute() || activity.Manual {
		return false
	}
	if activity.Type != "Run" && activity.Type != "Walk" {
		return false
	}
	if activity.Distance < units.CmToMeters(challenge.Distance) {
		return false
	}
	if challenge.Pace != nil && activity.AverageSpeed < units.CmPerSecToMetersPerSec(*challenge.Pace) {
		return false
	}
	// Strictly after issuance; a pre-existing activity can never complete
	// a challenge retroactively
	return activity.StartDate.Unix() > challenge.CreatedAt
}

func (v *Validator) notifyCompletion(ctx context.Context, challenge *database.Challenge, activity *strava.Activity) {
	p, err := participants(v.store, challenge)
	if err != nil {
		v.logger.Error("failed to load participants for notification", "challenge_id", challenge.ID, "error", err)
		return
	}

	completed := notify.CompletedMetrics{
		DistanceMiles: units.MetersToMiles(activity.Distance),
		Pace:          units.MetersPerSecToMinutesPerMile(activity.AverageSpeed),
	}

	if err := v.notifier.ChallengeCompleted(ctx, p, displayTerms(challenge), completed); err != nil {
		v.logger.Error("failed to send completion notification", "challenge_id", challenge.ID, "error", err)
	}
}
