// Package storage provides the file sources COA import files are read from:
// S3-compatible object storage and a local directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

var (
	// ErrObjectNotFound is returned when the requested key does not exist. It
	// matches fs.ErrNotExist so callers need not import this package.
	ErrObjectNotFound = fmt.Errorf("storage: object not found: %w", fs.ErrNotExist)
	// ErrInvalidKey is returned for empty keys or keys escaping the storage root
	ErrInvalidKey = errors.New("storage: invalid key")
)

// FileSource reads and writes import files by key
type FileSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}

var (
	_ FileSource = (*S3ObjectStorage)(nil)
	_ FileSource = (*LocalFileStorage)(nil)
)
