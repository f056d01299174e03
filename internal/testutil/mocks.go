package testutil

import (
	"context"
	"errors"
	"time"

	"wellmind/internal/keystore"
	"wellmind/internal/service/llm"
	"wellmind/internal/users"
)

// MockRepository is a mock implementation of users.Repository for testing
type MockRepository struct {
	SaveFunc            func(creds users.StoredCredentials) error
	FindByEmailFunc     func(email string) (*users.StoredCredentials, error)
	UpdateLastLoginFunc func(email string, at time.Time) error
}

func (m *MockRepository) Save(creds users.StoredCredentials) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(creds)
	}
	return errors.New("not implemented")
}

func (m *MockRepository) FindByEmail(email string) (*users.StoredCredentials, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(email)
	}
	return nil, errors.New("not implemented")
}

func (m *MockRepository) UpdateLastLogin(email string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(email, at)
	}
	return errors.New("not implemented")
}

// MockGateway is a mock implementation of llm.Gateway for testing
type MockGateway struct {
	FetchResponseFunc func(ctx context.Context, prompt string, history []llm.ConversationMessage) (string, error)
}

func (m *MockGateway) FetchResponse(ctx context.Context, prompt string, history []llm.ConversationMessage) (string, error) {
	if m.FetchResponseFunc != nil {
		return m.FetchResponseFunc(ctx, prompt, history)
	}
	return "", errors.New("not implemented")
}

// MockStore is a mock implementation of keystore.Store for testing.
// Unset functions fall through to an embedded in-memory store so tests only
// override the operations they care about.
type MockStore struct {
	SaveFunc     func(key keystore.Key, value []byte) error
	LoadFunc     func(key keystore.Key) ([]byte, bool)
	DeleteFunc   func(key keystore.Key) error
	ClearAllFunc func() error

	backing *keystore.MemoryStore
}

// NewMockStore creates a MockStore with an in-memory backing store
func NewMockStore() *MockStore {
	return &MockStore{backing: keystore.NewMemoryStore()}
}

func (m *MockStore) Save(key keystore.Key, value []byte) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(key, value)
	}
	return m.backing.Save(key, value)
}

func (m *MockStore) Load(key keystore.Key) ([]byte, bool) {
	if m.LoadFunc != nil {
		return m.LoadFunc(key)
	}
	return m.backing.Load(key)
}

func (m *MockStore) Delete(key keystore.Key) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(key)
	}
	return m.backing.Delete(key)
}

func (m *MockStore) ClearAll() error {
	if m.ClearAllFunc != nil {
		return m.ClearAllFunc()
	}
	return m.backing.ClearAll()
}
