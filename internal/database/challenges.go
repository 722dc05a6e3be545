package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Challenge represents a bounty-backed challenge anchored to an on-chain
// record. ID is the canonical on-chain challenge identifier, supplied by the
// issuing transaction, never generated here. Bounty, distance and pace are
// stored verbatim in smallest on-chain units (wei, cm, cm/s).
type Challenge struct {
	ID           string
	ChallengerID int64
	ChallengeeID int64
	Bounty       int64
	Distance     int64
	Pace         *int64
	Complete     bool
	CreatedAt    int64
	UpdatedAt    int64

	// Joined columns
	ChallengeeAddress *string
	PaymentID         int64
	PaymentComplete   bool
}

// ChallengeFilter selects challenges by a conjunction of the set fields
type ChallengeFilter struct {
	ChallengeeUserID  int64
	ChallengerUserID  int64
	ChallengeeAddress string
	ChallengerAddress string
	Complete          *bool
	PaymentComplete   *bool
}

const challengeColumns = `
	c.id, c.challenger, c.challengee, c.bounty, c.distance, c.pace,
	c.complete, c.created_at, c.updated_at,
	u.address, p.id, p.complete
`

const challengeJoin = `
	challenges c
	JOIN payments p ON p.challenge_id = c.id
	JOIN users u ON u.id = c.challengee
`

// CreateChallenge inserts a challenge and its payment row in one transaction
func (db *DB) CreateChallenge(c *Challenge) error {
	now := time.Now().Unix()
	c.CreatedAt = now
	c.UpdatedAt = now

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO challenges (id, challenger, challengee, bounty, distance, pace, complete, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, c.ID, c.ChallengerID, c.ChallengeeID, c.Bounty, c.Distance, c.Pace, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO payments (challenge_id, complete, created_at, updated_at)
		VALUES (?, 0, ?, ?)
	`, c.ID, now, now)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetChallenge retrieves a challenge with its payment state and the
// challengee's address by the on-chain identifier
func (db *DB) GetChallenge(id string) (*Challenge, error) {
	row := db.conn.QueryRow(`
		SELECT `+challengeColumns+` FROM `+challengeJoin+` WHERE c.id = ?
	`, id)

	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// ListChallenges retrieves challenges matching the filter. At least one
// filter field must be set.
func (db *DB) ListChallenges(filter ChallengeFilter) ([]*Challenge, error) {
	var conditions []string
	var args []any

	if filter.ChallengeeUserID != 0 {
		conditions = append(conditions, "c.challengee = ?")
		args = append(args, filter.ChallengeeUserID)
	}
	if filter.ChallengerUserID != 0 {
		conditions = append(conditions, "c.challenger = ?")
		args = append(args, filter.ChallengerUserID)
	}
	if filter.ChallengeeAddress != "" {
		conditions = append(conditions, "u.address = ?")
		args = append(args, filter.ChallengeeAddress)
	}
	if filter.ChallengerAddress != "" {
		conditions = append(conditions, "c.challenger IN (SELECT id FROM users WHERE address = ?)")
		args = append(args, filter.ChallengerAddress)
	}
	if filter.Complete != nil {
		conditions = append(conditions, "c.complete = ?")
		args = append(args, *filter.Complete)
	}
	if filter.PaymentComplete != nil {
		conditions = append(conditions, "p.complete = ?")
		args = append(args, *filter.PaymentComplete)
	}

	if len(conditions) == 0 {
		return nil, fmt.Errorf("challenge filter requires at least one condition")
	}

	rows, err := db.conn.Query(`
		SELECT `+challengeColumns+` FROM `+challengeJoin+`
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY c.created_at ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row scanner) (*Challenge, error) {
	var c Challenge
	err := row.Scan(
		&c.ID, &c.ChallengerID, &c.ChallengeeID, &c.Bounty, &c.Distance, &c.Pace,
		&c.Complete, &c.CreatedAt, &c.UpdatedAt,
		&c.ChallengeeAddress, &c.PaymentID, &c.PaymentComplete,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CompleteChallenge marks a challenge complete. The update is conditional on
// the current state so the false->true transition happens at most once;
// concurrent validations of the same challenge are serialized here. Returns
// whether this call performed the transition.
func (db *DB) CompleteChallenge(id string) (bool, error) {
	result, err := db.conn.Exec(`
		UPDATE challenges SET complete = 1, updated_at = ? WHERE id = ? AND complete = 0
	`, time.Now().Unix(), id)

	if err != nil {
		return false, fmt.Errorf("failed to complete challenge: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// CompletePayment marks a challenge's payment complete
func (db *DB) CompletePayment(challengeID string) error {
	result, err := db.conn.Exec(`
		UPDATE payments SET complete = 1, updated_at = ? WHERE challenge_id = ?
	`, time.Now().Unix(), challengeID)

	if err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}
