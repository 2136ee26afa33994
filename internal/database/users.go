package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"traveler/internal/models"
)

// RegisterUser hashes user.Password and inserts the account. On success user.ID
// is set and user.Password is blanked. Duplicate usernames or emails return
// ErrUsernameTaken or ErrEmailTaken and create no row.
func (db *DB) RegisterUser(ctx context.Context, user *models.User) error {
	hash, err := db.hasher.Hash(user.Password)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password) VALUES (?, ?, ?)`,
		user.Username, user.Email, hash,
	)
	if err != nil {
		if taken, ok := uniqueViolation(err); ok {
			return taken
		}
		return fmt.Errorf("failed to register user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.Password = ""
	return nil
}

func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	return db.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

func (db *DB) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool
	if err := db.GetContext(ctx, &found, query, arg); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return found, nil
}

// LoginUser reports whether username exists and password verifies against its stored hash.
func (db *DB) LoginUser(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := db.GetContext(ctx, &hash, `SELECT password FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load credentials: %w", err)
	}
	return db.hasher.Verify(hash, password), nil
}

// GetUser returns the account with its password blanked, or ErrUserNotFound.
func (db *DB) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user,
		`SELECT id, username, email, '' AS password FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CountUsers returns the number of registered accounts.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
