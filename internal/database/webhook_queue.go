package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// WebhookQueueItem represents a webhook event awaiting processing
type WebhookQueueItem struct {
	ID       int64
	Data     json.RawMessage
	Attempts int
}

// EnqueueWebhook adds a webhook event to the processing queue
func (db *DB) EnqueueWebhook(data json.RawMessage) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO webhook_queue (data, created_at) VALUES (?, ?)
	`, string(data), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue webhook: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue item id: %w", err)
	}

	return id, nil
}

// ClaimWebhook marks the oldest ready webhook as processing and returns it.
// Returns nil if nothing is ready.
func (db *DB) ClaimWebhook() (*WebhookQueueItem, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var item WebhookQueueItem
	var data []byte
	err = tx.QueryRow(`
		SELECT id, data, attempts FROM webhook_queue
		WHERE processing = 0 AND not_before <= ?
		ORDER BY id ASC LIMIT 1
	`, time.Now().Unix()).Scan(&item.ID, &data, &item.Attempts)
	item.Data = json.RawMessage(data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook queue: %w", err)
	}

	if _, err := tx.Exec(`UPDATE webhook_queue SET processing = 1 WHERE id = ?`, item.ID); err != nil {
		return nil, fmt.Errorf("failed to claim webhook: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &item, nil
}

// DeleteWebhook removes a processed webhook from the queue
func (db *DB) DeleteWebhook(id int64) error {
	_, err := db.conn.Exec(`DELETE FROM webhook_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// ReleaseWebhook returns a failed webhook to the queue with a retry delay
func (db *DB) ReleaseWebhook(id int64, retryAfter time.Duration) error {
	_, err := db.conn.Exec(`
		UPDATE webhook_queue
		SET processing = 0, attempts = attempts + 1, not_before = ?
		WHERE id = ?
	`, time.Now().Add(retryAfter).Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to release webhook: %w", err)
	}
	return nil
}

// GetQueueLength returns the number of items in the webhook queue
func (db *DB) GetQueueLength() (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM webhook_queue`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return count, nil
}
