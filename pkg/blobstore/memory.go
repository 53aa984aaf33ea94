package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type memoryBlob struct {
	contentType string
	data        []byte
}

// MemoryStore is an in-process Store. Contents are lost on restart.
type MemoryStore struct {
	blobs map[string]memoryBlob
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]memoryBlob),
	}
}

// Put stores a copy of data under key.
func (s *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) (Object, error) {
	if key == "" {
		return Object{}, fmt.Errorf("blob key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = memoryBlob{contentType: contentType, data: append([]byte(nil), data...)}
	return Object{Ref: key, ContentType: contentType, Size: int64(len(data))}, nil
}

// Get returns a reader over the stored bytes.
func (s *MemoryStore) Get(_ context.Context, ref string) (io.ReadCloser, Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[ref]
	if !ok {
		return nil, Object{}, fmt.Errorf("blob %s: %w", ref, ErrNotFound)
	}
	obj := Object{Ref: ref, ContentType: b.contentType, Size: int64(len(b.data))}
	return io.NopCloser(bytes.NewReader(b.data)), obj, nil
}

// Delete removes ref. Deleting a missing ref is not an error.
func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, ref)
	return nil
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *MemoryStore) Close(context.Context) error { return nil }
