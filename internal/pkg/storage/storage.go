package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidPath  = errors.New("invalid file path")
	ErrFileNotFound = errors.New("file not found")
)

type FileStorage interface {
	// Upload writes the file under path and returns the stored key.
	Upload(ctx context.Context, file io.Reader, path string) (string, error)

	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete is idempotent: a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for a stored key.
	URL(path string) string

	Exists(ctx context.Context, path string) (bool, error)
}
