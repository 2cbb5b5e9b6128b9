// Package storage persists run artifacts such as screenshots outside the
// process and hands back opaque references to them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound is returned when a requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned when a key is empty, absolute or escapes the store root.
	ErrInvalidKey = errors.New("invalid object key")
)

// BlobStorage stores binary objects under slash separated keys.
type BlobStorage interface {
	// Put stores the reader's content under key.
	Put(ctx context.Context, key, contentType string, r io.Reader) error

	// Open returns a reader for the object at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Reference returns an opaque locator for the object: a filesystem path
	// for local storage and a presigned URL for S3.
	Reference(ctx context.Context, key string) (string, error)
}

// Config selects and configures a BlobStorage backend.
type Config struct {
	Type          string // "local" or "s3"
	BaseDir       string
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PresignExpiry time.Duration
}

// New creates the BlobStorage selected by cfg.Type.
func New(ctx context.Context, cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case "s3":
		s, err := NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		s.prefix = strings.Trim(cfg.S3Prefix, "/")
		if cfg.PresignExpiry > 0 {
			s.presignExpiration = cfg.PresignExpiry
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey normalises key to a relative slash path and rejects traversal.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	k := path.Clean(filepath.ToSlash(key))
	if strings.HasPrefix(k, "/") {
		return "", fmt.Errorf("%w: absolute keys not allowed", ErrInvalidKey)
	}
	if k == "." || k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	return k, nil
}
