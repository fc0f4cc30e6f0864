// Package blobstore persists uploaded invoice documents as opaque byte blobs.
// No format assumptions are made beyond bytes in, bytes out.
package blobstore

import (
	"context"
	"errors"
	"sync"
)

// ErrBlobNotFound indicates no blob exists at the given location.
var ErrBlobNotFound = errors.New("blob not found")

// Store is the narrow blob persistence contract consumed by the pipeline.
// Store writes data under a caller-chosen key and returns an opaque location
// usable with Fetch.
type Store interface {
	Store(ctx context.Context, key string, data []byte) (location string, err error)
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Store saves data under key.
func (s *MemoryStore) Store(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[key] = buf
	return key, nil
}

// Fetch retrieves data by location.
func (s *MemoryStore) Fetch(ctx context.Context, location string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[location]
	if !ok {
		return nil, ErrBlobNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}
