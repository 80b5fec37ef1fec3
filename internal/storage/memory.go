package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object

	// FailUploads makes every Upload return this error when set.
	FailUploads error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]Object)}
}

func (s *MemoryStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	if s.FailUploads != nil {
		return s.FailUploads
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	s.mu.Lock()
	s.objects[key] = Object{ContentType: contentType, Data: buf.Bytes()}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Get returns a stored object.
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	return o, ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
