package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GomathyDhanya/SecureSearch/internal/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewMemoryStore(), NewTokenManager("test-secret", time.Hour))
}

func registration(email string) Registration {
	return Registration{
		Email:            email,
		Password:         "pw1",
		Salt:             []byte("salt-bytes------"),
		WrappedMasterKey: []byte("wrapped-master"),
		WrappedKeypair:   []byte("wrapped-keypair"),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registration("a@x.com")))

	res, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, []byte("wrapped-master"), res.WrappedMasterKey)
	assert.Equal(t, []byte("wrapped-keypair"), res.WrappedKeypair)
	assert.Equal(t, []byte("salt-bytes------"), res.Salt)
}

func TestRegisterCollision(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registration("a@x.com")))
	assert.ErrorIs(t, svc.Register(ctx, registration("a@x.com")), ErrUserExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registration("a@x.com")))

	_, err := svc.Login(ctx, "a@x.com", "pw2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown emails are indistinguishable from wrong passwords.
	_, err = svc.Login(ctx, "nobody@x.com", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	userID := uuid.New()

	token, err := tm.Issue(userID)
	require.NoError(t, err)

	got, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute)
	token, err := tm.Issue(uuid.New())
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
