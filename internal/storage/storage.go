package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const s3Scheme = "s3://"

// Backend reads and writes whole documents by key.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Store resolves a location to a backend. Plain paths go to the local
// filesystem, s3://bucket/key locations go to S3.
type Store struct {
	mu    sync.Mutex
	local Backend
	s3    map[string]Backend

	// newS3 is swapped out in tests.
	newS3 func(ctx context.Context, bucket string) (Backend, error)
}

func NewStore() *Store {
	return &Store{
		local: localBackend{},
		s3:    make(map[string]Backend),
		newS3: func(ctx context.Context, bucket string) (Backend, error) {
			return newS3Backend(ctx, bucket)
		},
	}
}

// ReadFile loads the document at location. Sealed content is opened
// transparently.
func (s *Store) ReadFile(ctx context.Context, location string) ([]byte, error) {
	b, key, err := s.backendFor(ctx, location)
	if err != nil {
		return nil, err
	}
	data, err := b.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if IsSealed(data) {
		opened, err := Open(data)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location, err)
		}
		return opened, nil
	}
	return data, nil
}

// WriteFile stores data at location, sealing it when
// JENKINSATOR_DUMP_ENCRYPTION_KEY is set.
func (s *Store) WriteFile(ctx context.Context, location string, data []byte) error {
	b, key, err := s.backendFor(ctx, location)
	if err != nil {
		return err
	}
	sealed, err := Seal(data)
	if err != nil {
		return fmt.Errorf("failed to seal %s: %w", location, err)
	}
	return b.Write(ctx, key, sealed)
}

// IsDir reports whether location should be treated as a directory: it ends
// in a separator or names an existing local directory.
func IsDir(location string) bool {
	if strings.HasSuffix(location, "/") {
		return true
	}
	if IsRemote(location) {
		return false
	}
	info, err := os.Stat(location)
	return err == nil && info.IsDir()
}

// Join appends name to a directory location.
func Join(location, name string) string {
	if IsRemote(location) {
		return strings.TrimSuffix(location, "/") + "/" + name
	}
	return filepath.Join(location, name)
}

// IsRemote reports whether location points at object storage.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

func (s *Store) backendFor(ctx context.Context, location string) (Backend, string, error) {
	if !IsRemote(location) {
		return s.local, location, nil
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, "", fmt.Errorf("invalid s3 location %q: expected s3://bucket/key", location)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.s3[bucket]; ok {
		return b, key, nil
	}
	b, err := s.newS3(ctx, bucket)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize s3 storage for bucket %s: %w", bucket, err)
	}
	s.s3[bucket] = b
	return b, key, nil
}

type localBackend struct{}

func (localBackend) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (localBackend) Write(_ context.Context, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
