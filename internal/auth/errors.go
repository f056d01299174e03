package auth

import "errors"

// Authentication failures surfaced to the user. The messages are the exact
// strings rendered by clients, so they stay human-readable.
var (
	ErrInvalidEmail      = errors.New("Please enter a valid email address")
	ErrWeakPassword      = errors.New("Password must be at least 8 characters with uppercase, number, and special character")
	ErrUserAlreadyExists = errors.New("An account with this email already exists")
	ErrUserNotFound      = errors.New("No account found with this email")
	ErrIncorrectPassword = errors.New("Incorrect password")
	ErrSessionPersist    = errors.New("Failed to save authentication token")
)
