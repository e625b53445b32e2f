// Package blob provides storage for encrypted image payloads. Payloads are
// opaque to every backend: they are wrapped under the owner's master key
// before they arrive here, so the store can live on untrusted infrastructure.
package blob

import (
	"context"
	"errors"
)

var (
	// ErrBlobNotFound is returned when a key has no stored payload.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrBlobExists is returned when a key is already in use.
	ErrBlobExists = errors.New("blob already exists")
)

// Store is the interface for encrypted payload storage backends.
// Implementations can store payloads in memory, on the filesystem, or in an
// S3-compatible object store.
type Store interface {
	// Put stores a payload under key. Returns ErrBlobExists if the key is
	// already in use.
	Put(ctx context.Context, key string, payload []byte) error

	// Get retrieves a payload by key. Returns ErrBlobNotFound if missing.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a payload by key. No error if the key is absent.
	Delete(ctx context.Context, key string) error

	// Close closes the store connection.
	Close() error
}
