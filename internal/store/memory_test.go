package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) User {
	return User{
		ID:               uuid.New(),
		Email:            email,
		PasswordHash:     []byte("hash"),
		Salt:             []byte("salt"),
		WrappedMasterKey: []byte("wmk"),
		WrappedKeypair:   []byte("wkp"),
		CreatedAt:        time.Now(),
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, s.CreateUser(ctx, user))

	// Email collisions are rejected, case-insensitively.
	assert.ErrorIs(t, s.CreateUser(ctx, newUser("A@X.com")), ErrUserExists)

	got, err := s.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.WrappedMasterKey, got.WrappedMasterKey)

	_, err = s.GetUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRecordsScopedToOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()

	rec := ImageRecord{
		ID:              uuid.New(),
		OwnerID:         owner,
		EncryptedVector: []byte{1, 2, 3},
		BlobKey:         owner.String() + "/img.enc",
		CreatedAt:       time.Now(),
	}
	require.NoError(t, s.CreateRecord(ctx, rec))

	got, err := s.GetRecord(ctx, rec.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, rec.BlobKey, got.BlobKey)

	// Another owner must not see the record, and must not be able to tell
	// "not mine" from "does not exist".
	_, err = s.GetRecord(ctx, rec.ID, other)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListRecords(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListRecords(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.DeleteRecord(ctx, rec.ID, other), ErrNotFound)
	require.NoError(t, s.DeleteRecord(ctx, rec.ID, owner))

	_, err = s.GetRecord(ctx, rec.ID, owner)
	assert.ErrorIs(t, err, ErrNotFound)
}
