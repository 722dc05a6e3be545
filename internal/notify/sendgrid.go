package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rundapp-engine/internal/database"
	"rundapp-engine/internal/metrics"
)

const defaultMailURL = "https://api.sendgrid.com/v3/mail/send"

const claimURL = "https://rundapp.quest/#/claim"

// GrantStore looks up whether a challengee has connected Strava, so the
// issuance email can include an authorization prompt when needed
type GrantStore interface {
	GetAccessGrantByUser(userID int64) (*database.AccessGrant, error)
}

// Mailer sends challenge notifications through the SendGrid v3 API
type Mailer struct {
	httpClient     *http.Client
	mailURL        string
	apiKey         string
	sender         string
	stravaClientID string
	domain         string
	grants         GrantStore
	logger         *slog.Logger
}

// NewMailer creates a SendGrid-backed notifier
func NewMailer(apiKey, sender, stravaClientID, domain string, grants GrantStore) *Mailer {
	return &Mailer{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		mailURL:        defaultMailURL,
		apiKey:         apiKey,
		sender:         sender,
		stravaClientID: stravaClientID,
		domain:         domain,
		grants:         grants,
		logger:         slog.Default(),
	}
}

// ChallengeIssued notifies both participants of a newly issued challenge.
// The challengee's mail carries a Strava authorization link when they have
// not yet granted access.
func (m *Mailer) ChallengeIssued(ctx context.Context, participants Participants, terms ChallengeTerms) error {
	challenger := displayName(participants.Challenger)
	challengee := displayName(participants.Challengee)

	detail := fmt.Sprintf("%.2f miles at a %d:%02d/mile pace. You'll receive %d wei if you complete the challenge.\n\n",
		terms.DistanceMiles, terms.Pace.Minutes, terms.Pace.Seconds, terms.BountyWei)

	challengeeBody := fmt.Sprintf("%s challenged you to run %s", challenger, detail)

	needsAuth, err := m.challengeeNeedsAuthorization(participants)
	if err != nil {
		m.logger.Error("failed to check challengee authorization", "error", err)
		needsAuth = true
	}
	if needsAuth {
		challengeeBody += m.authorizationPrompt(participants.Challengee.ID)
	}

	challengerBody := fmt.Sprintf("%s has been challenged and notified via email. Challenge details:\nDistance: %.2f miles\nPace: %d:%02d/mile pace\nBounty: %d wei",
		challengee, terms.DistanceMiles, terms.Pace.Minutes, terms.Pace.Seconds, terms.BountyWei)

	if err := m.send(ctx, participants.Challengee.Email, "New RunDapp bounty - you've been challenged.", challengeeBody); err != nil {
		return err
	}
	return m.send(ctx, participants.Challenger.Email, "You issued a challenge.", challengerBody)
}

// ChallengeCompleted notifies both participants that a challenge completed,
// including the original terms and the actual activity metrics
func (m *Mailer) ChallengeCompleted(ctx context.Context, participants Participants, terms ChallengeTerms, completed CompletedMetrics) error {
	challenger := displayName(participants.Challenger)
	challengee := displayName(participants.Challengee)

	detail := fmt.Sprintf(
		"Challenge Details:\n- id: %s\n- distance: %.2f miles\n- pace: %d:%02d/mile\n\nChallenge Completion Details:\n- distance: %.2f miles\n- pace: %d:%02d/mile\n\n",
		terms.ID, terms.DistanceMiles, terms.Pace.Minutes, terms.Pace.Seconds,
		completed.DistanceMiles, completed.Pace.Minutes, completed.Pace.Seconds,
	)

	challengeeBody := fmt.Sprintf("Congratulations! You successfully completed a challenge issued by %s!🎉\n\nYou can now claim your bounty at: %s\n\n%s",
		challenger, claimURL, detail)
	challengerBody := fmt.Sprintf("%s successfully completed your challenge, and can now claim the associated bounty!🎉\n\n%s",
		challengee, detail)

	if err := m.send(ctx, participants.Challengee.Email, "RunDapp challenge completed!", challengeeBody); err != nil {
		return err
	}
	return m.send(ctx, participants.Challenger.Email, "Your issued challenge was completed!", challengerBody)
}

// challengeeNeedsAuthorization reports whether the challengee has no granted
// Strava scope (never authorized, or since revoked)
func (m *Mailer) challengeeNeedsAuthorization(participants Participants) (bool, error) {
	grant, err := m.grants.GetAccessGrantByUser(participants.Challengee.ID)
	if err != nil {
		return false, err
	}
	return grant == nil || grant.Scope == "", nil
}

func (m *Mailer) authorizationPrompt(userID int64) string {
	redirect := fmt.Sprintf("https://%s/vendors/strava/authorize?user_id=%d", m.domain, userID)
	return "In order to complete this challenge, please provide RunDapp access to your Strava account using the following link. " +
		"If you do not already have a Strava account, this same link will prompt you to create one: " +
		"https://www.strava.com/oauth/authorize?client_id=" + m.stravaClientID +
		"&response_type=code&redirect_uri=" + redirect +
		"&approval_prompt=force&scope=read_all,activity:read_all"
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// send delivers one plain-text email via SendGrid
func (m *Mailer) send(ctx context.Context, recipient, subject, body string) error {
	reqBody, err := json.Marshal(mailRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: recipient}}}},
		From:             emailAddress{Email: m.sender},
		Subject:          subject,
		Content:          []mailContent{{Type: "text/plain", Value: body}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.mailURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.NotificationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail send failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	metrics.NotificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	m.logger.Info("notification sent", "recipient", recipient, "subject", subject, "status", strconv.Itoa(resp.StatusCode))
	return nil
}
