// Package auth implements the server-side account layer: the bcrypt password
// verifier, bearer token issuance, and custody of the wrapped key artifacts
// the client deposits at registration.
//
// The bcrypt check at login is a usability hint, not the security boundary.
// The credential that matters is the client's ability to unwrap its master key
// from the artifacts returned here; the server cannot perform or fake that.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GomathyDhanya/SecureSearch/internal/store"
)

var (
	// ErrInvalidCredentials is returned when the email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering an email already in use.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Registration carries the artifacts a client deposits at registration.
// All three wrapped fields are opaque ciphertext to the server.
type Registration struct {
	Email            string
	Password         string
	Salt             []byte
	WrappedMasterKey []byte
	WrappedKeypair   []byte
}

// LoginResult is what a successful login returns: a bearer token plus the
// wrapped key material the client needs to reconstruct its session keys.
type LoginResult struct {
	Token            string
	Salt             []byte
	WrappedMasterKey []byte
	WrappedKeypair   []byte
}

// Service handles registration and login over a user store.
type Service struct {
	users  store.UserStore
	tokens *TokenManager
}

// NewService creates an auth service.
func NewService(users store.UserStore, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates an account. The four artifacts (salt, wrapped master key,
// wrapped keypair, password verifier) are stored in one insert, so a partial
// registration can never exist server-side.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := store.User{
		ID:               uuid.New(),
		Email:            reg.Email,
		PasswordHash:     hash,
		Salt:             reg.Salt,
		WrappedMasterKey: reg.WrappedMasterKey,
		WrappedKeypair:   reg.WrappedKeypair,
		CreatedAt:        time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Login verifies the password hint and returns a token plus the wrapped key
// material. An unknown email and a wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:            token,
		Salt:             user.Salt,
		WrappedMasterKey: user.WrappedMasterKey,
		WrappedKeypair:   user.WrappedKeypair,
	}, nil
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	return s.tokens.Verify(token)
}
