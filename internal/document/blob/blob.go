// Package blob abstracts where document payloads are kept. The metadata
// row in postgres references a blob by key; the bytes live either on the
// local filesystem or in a Google Cloud Storage bucket.
package blob

import (
	"context"
	"io"
)

// Store reads and writes document payloads by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
