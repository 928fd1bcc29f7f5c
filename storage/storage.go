// Package storage abstracts the blob store that holds uploaded issue photos.
package storage

import (
	"context"
	"io"
)

// BlobStore persists an uploaded image and returns a locator the client can
// resolve against the service's public base URL.
type BlobStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}
