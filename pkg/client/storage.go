package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SelectionStore persists the last-selected tenant id across client restarts.
// Implementations hold exactly one durable value.
type SelectionStore interface {
	Load() (string, error)
	Save(tenantID string) error
}

// FileStore persists the selection as a single plain-text file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path. Parent directories are
// created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load tenant selection: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileStore) Save(tenantID string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("save tenant selection: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(tenantID+"\n"), 0o600); err != nil {
		return fmt.Errorf("save tenant selection: %w", err)
	}
	return nil
}

// MemStore keeps the selection in memory, for tests and throwaway sessions.
type MemStore struct {
	mu  sync.Mutex
	val string
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val, nil
}

func (m *MemStore) Save(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val = tenantID
	return nil
}
