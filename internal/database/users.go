package database

import (
	"database/sql"
	"fmt"
	"time"
)

// User represents a challenge participant
type User struct {
	ID        int64
	Email     string
	Address   *string
	Name      *string
	CreatedAt int64
	UpdatedAt int64
}

// CreateUser inserts a new user and returns it with its assigned id
func (db *DB) CreateUser(u *User) (*User, error) {
	now := time.Now().Unix()
	u.CreatedAt = now
	u.UpdatedAt = now

	result, err := db.conn.Exec(`
		INSERT INTO users (email, address, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.Email, u.Address, u.Name, u.CreatedAt, u.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID = id

	return u, nil
}

// GetUser retrieves a user by id
func (db *DB) GetUser(id int64) (*User, error) {
	return db.getUser("id = ?", id)
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(email string) (*User, error) {
	return db.getUser("email = ?", email)
}

// GetUserByAddress retrieves a user by Ethereum address
func (db *DB) GetUserByAddress(address string) (*User, error) {
	return db.getUser("address = ?", address)
}

func (db *DB) getUser(where string, arg any) (*User, error) {
	var u User
	err := db.conn.QueryRow(`
		SELECT id, email, address, name, created_at, updated_at
		FROM users WHERE `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.Address, &u.Name, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateUserAddress sets a user's Ethereum address
func (db *DB) UpdateUserAddress(id int64, address string) error {
	result, err := db.conn.Exec(`
		UPDATE users SET address = ?, updated_at = ? WHERE id = ?
	`, address, time.Now().Unix(), id)

	if err != nil {
		return fmt.Errorf("failed to update user address: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}
