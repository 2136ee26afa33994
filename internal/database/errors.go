package database

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrMissingOwner    = errors.New("booking user id is required")
)

// uniqueViolation maps a users UNIQUE failure to the matching sentinel.
func uniqueViolation(err error) (error, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil, false
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrUsernameTaken, true
	case strings.Contains(msg, "users.email"):
		return ErrEmailTaken, true
	default:
		return nil, false
	}
}
