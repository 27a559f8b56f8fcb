// Package imagestore keeps the captured medicine photos referenced by scans.
package imagestore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("image not found")

type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
