package users

import (
	"errors"
	"sync"
	"time"

	"wellmind/internal/auth"
	"wellmind/internal/logger"
)

// MemoryRepository is the in-memory credential registry used as the default
// user store. It enforces email uniqueness and is safe for concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]StoredCredentials
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]StoredCredentials),
	}
}

// Save stores a new credential record, rejecting duplicate emails
func (r *MemoryRepository) Save(creds StoredCredentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[creds.User.Email]; exists {
		return auth.ErrUserAlreadyExists
	}
	r.byEmail[creds.User.Email] = creds
	return nil
}

// FindByEmail returns a copy of the record for the email
func (r *MemoryRepository) FindByEmail(email string) (*StoredCredentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	creds, exists := r.byEmail[email]
	if !exists {
		return nil, auth.ErrUserNotFound
	}
	return &creds, nil
}

// UpdateLastLogin refreshes the stored user's last login timestamp
func (r *MemoryRepository) UpdateLastLogin(email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	creds, exists := r.byEmail[email]
	if !exists {
		return auth.ErrUserNotFound
	}
	creds.User.LastLoginAt = &at
	r.byEmail[email] = creds
	return nil
}

// SeedDemoUser registers the demo account if it doesn't exist yet
func SeedDemoUser(d *Directory) error {
	_, err := d.Register("demo@wellmind.app", "Demo", "User", "Demo123!")
	if errors.Is(err, auth.ErrUserAlreadyExists) {
		logger.Log.Info("Demo user already exists, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Log.Info("Demo user seeded successfully")
	return nil
}
