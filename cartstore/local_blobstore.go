package cartstore

import (
	"context"
	"sync"
)

// LocalBlobStore is a simple in-memory blob storage.
// Contents are lost when the process exits.
type LocalBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewLocalBlobStore constructor
func NewLocalBlobStore() *LocalBlobStore {
	return &LocalBlobStore{
		blobs: make(map[string][]byte),
	}
}

// Initialize does nothing in this implementation.
func (l *LocalBlobStore) Initialize(ctx context.Context) error {
	return nil
}

// Get returns a copy of the blob stored under key.
func (l *LocalBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blob, exists := l.blobs[key]
	if !exists {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Set replaces the blob stored under key.
func (l *LocalBlobStore) Set(ctx context.Context, key string, blob []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Ping is a health check that always returns true.
func (l *LocalBlobStore) Ping(ctx context.Context) bool {
	return true
}
