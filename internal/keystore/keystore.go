// Package keystore provides the scoped credential store for the active
// session: four named slots holding the auth token, the serialized user
// record, the user email and the user id. Absence of a value is the
// canonical signed-out state.
package keystore

import "sync"

// Key names the credential slots
type Key string

const (
	KeyAuthToken Key = "auth_token"
	KeyUserEmail Key = "user_email"
	KeyUserID    Key = "user_id"
	KeyUserData  Key = "user_data"
)

// Keys lists every slot, used by ClearAll implementations
var Keys = []Key{KeyAuthToken, KeyUserEmail, KeyUserID, KeyUserData}

// Store is the secure key-value persistence contract. Save overwrites any
// prior value for the same key atomically from the caller's perspective.
type Store interface {
	Save(key Key, value []byte) error
	Load(key Key) ([]byte, bool)
	Delete(key Key) error
	ClearAll() error
}

// MemoryStore keeps slot values in process memory. It is the default store
// and the test double for the file-backed one.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[Key][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[Key][]byte),
	}
}

func (s *MemoryStore) Save(key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	s.values[key] = copied
	return nil
}

func (s *MemoryStore) Load(key Key) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	if !exists {
		return nil, false
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true
}

func (s *MemoryStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *MemoryStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[Key][]byte)
	return nil
}
