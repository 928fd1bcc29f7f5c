package storage

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps uploaded blobs in memory. Suitable for dev/testing.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, _, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	locator := "/api/uploads/" + uuid.NewString()
	s.mu.Lock()
	s.blobs[locator] = data
	s.mu.Unlock()
	return locator, nil
}

// Len reports how many blobs have been stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Get returns a stored blob by its locator.
func (s *MemoryStore) Get(locator string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[locator]
	return data, ok
}
