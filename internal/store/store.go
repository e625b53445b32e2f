// Package store persists account records and image records. Everything held
// here is ciphertext or public metadata: wrapped keys, encrypted vectors and
// blob references. Plaintext vectors and images never reach this layer.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUserExists is returned when an email is already registered.
	ErrUserExists = errors.New("user already exists")
)

// User is an account record. PasswordHash is a bcrypt verifier used as a UX
// hint at login; the real credential check is the client's master-key unwrap.
// Salt, WrappedMasterKey and WrappedKeypair are opaque client artifacts.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     []byte
	Salt             []byte
	WrappedMasterKey []byte
	WrappedKeypair   []byte
	CreatedAt        time.Time
}

// ImageRecord links one encrypted vector to one encrypted payload. The vector
// is a CKKS ciphertext queryable by the search handler; BlobKey points into the
// blob store. The two are only ever created together.
type ImageRecord struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	EncryptedVector []byte
	BlobKey         string
	CreatedAt       time.Time
}

// UserStore persists account records.
type UserStore interface {
	// CreateUser inserts a user. Returns ErrUserExists on an email
	// collision.
	CreateUser(ctx context.Context, user User) error

	// GetUserByEmail fetches a user. Returns ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// RecordStore persists image records.
type RecordStore interface {
	// CreateRecord inserts an image record.
	CreateRecord(ctx context.Context, rec ImageRecord) error

	// GetRecord fetches a record scoped to its owner. Returns ErrNotFound
	// when the id does not exist or belongs to another owner; the two
	// cases are indistinguishable to the caller.
	GetRecord(ctx context.Context, id, ownerID uuid.UUID) (ImageRecord, error)

	// ListRecords returns all records owned by ownerID.
	ListRecords(ctx context.Context, ownerID uuid.UUID) ([]ImageRecord, error)

	// DeleteRecord removes a record scoped to its owner.
	DeleteRecord(ctx context.Context, id, ownerID uuid.UUID) error
}

// Store combines both aggregates behind one backend.
type Store interface {
	UserStore
	RecordStore

	// Close releases the backend connection.
	Close() error
}
