package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("login required")
	ErrSessionExpired     = errors.New("session user no longer exists")
	ErrForbidden          = errors.New("booking belongs to another user")
	ErrInvalidStatus      = errors.New("booking status is required")
)
