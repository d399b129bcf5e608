package storage

import (
	"context"
	"io"
	"strings"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API and resolves
// public URLs for uploaded objects.
type Storage struct {
	backend ObjectStorage
	baseURL string
}

// NewStorage constructs a Storage wrapper for the provided backend.
// baseURL is the externally reachable root under which the bucket is
// served, e.g. "https://cdn.driveline.example".
func NewStorage(backend ObjectStorage, baseURL string) *Storage {
	return &Storage{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// URL returns the public URL for an object key.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + s.backend.Bucket() + "/" + key
}

// KeyFromURL recovers the object key from a URL previously produced by URL.
// The boolean is false for URLs this storage did not produce.
func (s *Storage) KeyFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/" + s.backend.Bucket() + "/"
	key, ok := strings.CutPrefix(url, prefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
