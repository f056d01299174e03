package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Ensure FileStore implements the Store interface
var _ Store = (*FileStore)(nil)

// FileStore persists slot values in a single JSON file with owner-only
// permissions. Every write goes to a temporary file followed by a rename,
// so readers never observe a partially written store.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	values[string(key)] = copied
	return s.write(values)
}

func (s *FileStore) Load(key Key) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return nil, false
	}

	value, exists := values[string(key)]
	return value, exists
}

func (s *FileStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	delete(values, string(key))
	return s.write(values)
}

func (s *FileStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(map[string][]byte{})
}

func (s *FileStore) read() (map[string][]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]byte), nil
		}
		return nil, fmt.Errorf("error reading keystore: %w", err)
	}

	values := make(map[string][]byte)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("error decoding keystore: %w", err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string][]byte) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("error encoding keystore: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return fmt.Errorf("error creating keystore temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing keystore: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error setting keystore permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error closing keystore temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error replacing keystore: %w", err)
	}
	return nil
}
