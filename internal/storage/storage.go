package storage

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for blank object keys.
	ErrInvalidKey = errors.New("object key is required")
)

//go:embed assets/default_profile.png
var defaultProfileImage []byte

const (
	defaultProfileContentType = "image/png"
	imageCacheControl         = "public, max-age=86400"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := objectKey(key)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := objectKey(key)
	if err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, key)
}

// Exists reports whether key is present in the configured bucket.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	key, err := objectKey(key)
	if err != nil {
		return false, err
	}
	return s.backend.Exists(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// ReadAll loads a whole object into memory.
func (s *Storage) ReadAll(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ImageStore serves the fallback profile picture from object storage.
type ImageStore struct {
	storage *Storage
	key     string
}

// NewImageStore returns an ImageStore reading the default image at key.
func NewImageStore(storage *Storage, key string) *ImageStore {
	return &ImageStore{storage: storage, key: key}
}

// EnsureDefault uploads the bundled default picture unless one is already stored.
func (i *ImageStore) EnsureDefault(ctx context.Context) error {
	exists, err := i.storage.Exists(ctx, i.key)
	if err != nil {
		return fmt.Errorf("check default image: %w", err)
	}
	if exists {
		return nil
	}
	return i.storage.Put(ctx, i.key, bytes.NewReader(defaultProfileImage), int64(len(defaultProfileImage)), defaultProfileContentType)
}

// DefaultImage returns the stored default picture.
func (i *ImageStore) DefaultImage(ctx context.Context) ([]byte, error) {
	data, err := i.storage.ReadAll(ctx, i.key)
	if err != nil {
		return nil, fmt.Errorf("load default image: %w", err)
	}
	return data, nil
}

// objectKey trims surrounding whitespace and leading slashes so every
// backend sees the same key for the same object.
func objectKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	return key, nil
}
