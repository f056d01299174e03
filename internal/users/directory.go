package users

import (
	"fmt"
	"time"

	"wellmind/internal/auth"
	"wellmind/internal/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Repository is the pluggable credential store behind the Directory. A
// durable implementation can replace the in-memory one without changing
// the Directory call contracts.
type Repository interface {
	// Save stores a new credential record, failing with
	// auth.ErrUserAlreadyExists when the email is already registered.
	Save(creds StoredCredentials) error

	// FindByEmail returns the record for the email, or auth.ErrUserNotFound.
	FindByEmail(email string) (*StoredCredentials, error)

	// UpdateLastLogin refreshes the user's last login timestamp.
	UpdateLastLogin(email string, at time.Time) error
}

// Directory registers and verifies users against a Repository
type Directory struct {
	repo Repository
	now  func() time.Time
}

// NewDirectory creates a Directory backed by the given repository
func NewDirectory(repo Repository) *Directory {
	return &Directory{
		repo: repo,
		now:  time.Now,
	}
}

// Register validates the email and password, creates a new user with a
// fresh identifier, hashes the password with a fresh salt and stores the
// credential record. Duplicate emails fail with auth.ErrUserAlreadyExists.
func (d *Directory) Register(email, firstName, lastName, password string) (*User, error) {
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("error generating salt: %w", err)
	}

	user := User{
		ID:        uuid.New().String(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: d.now(),
	}

	creds := StoredCredentials{
		User:         user,
		PasswordHash: auth.HashPassword(password, salt),
		Salt:         salt,
	}

	if err := d.repo.Save(creds); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"email": email, "user_id": user.ID}).Info("Registered new user")

	return &user, nil
}

// Verify checks the password for a registered email. An unknown email fails
// with auth.ErrUserNotFound, a hash mismatch with auth.ErrIncorrectPassword.
// On success the user's last login timestamp is refreshed.
func (d *Directory) Verify(email, password string) (*User, error) {
	creds, err := d.repo.FindByEmail(email)
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(password, creds.Salt, creds.PasswordHash) {
		return nil, auth.ErrIncorrectPassword
	}

	now := d.now()
	if err := d.repo.UpdateLastLogin(email, now); err != nil {
		// Login still succeeds; the stale timestamp is not worth failing for
		logger.Log.WithError(err).WithField("email", email).Warn("Failed to update last login timestamp")
	}

	user := creds.User
	user.LastLoginAt = &now
	return &user, nil
}
