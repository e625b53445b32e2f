// Package keyring implements envelope encryption for the client's key
// hierarchy: a password-derived key wraps the master key, and the master key
// wraps the homomorphic keypair and every image payload.
//
// Wrapping uses AES-256-GCM, so an unwrap with the wrong key fails
// authentication instead of returning garbage. That failure is the mechanism by
// which a wrong password is detected; there is no separate password check on
// this path.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the size of wrapping keys in bytes (AES-256).
	KeySize = 32

	// NonceSize is the size of GCM nonces in bytes.
	NonceSize = 12

	// SaltSize is the size of key-derivation salts in bytes.
	SaltSize = 16

	// Argon2Time is the time parameter for Argon2id.
	Argon2Time = 1

	// Argon2Memory is the memory parameter for Argon2id (64 MB).
	Argon2Memory = 64 * 1024

	// Argon2Threads is the parallelism parameter for Argon2id.
	Argon2Threads = 4
)

var (
	// ErrInvalidKey is returned when a wrapping key has the wrong length.
	ErrInvalidKey = errors.New("invalid key: must be 32 bytes")

	// ErrInvalidCiphertext is returned when a wrapped payload is too short
	// to contain a nonce and an authentication tag.
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short")

	// ErrDecryptionFailed is returned when an unwrap fails authentication:
	// wrong key or tampered data. Callers map this to "invalid credentials"
	// on the master-key path and to "corrupted key material" beyond it.
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
)

// DeriveKey derives a 256-bit wrapping key from a password and salt using
// Argon2id. Deterministic: the same (password, salt) always yields the same
// key; any change to either yields an unrelated key.
func DeriveKey(password string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		Argon2Time,
		Argon2Memory,
		Argon2Threads,
		KeySize,
	)
}

// GenerateSalt generates a fresh random salt. Generated once per account at
// registration and stored alongside it; never secret.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateMasterKey generates a cryptographically random 256-bit master key.
// Generated once at registration and never regenerated implicitly.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// Wrap encrypts a payload under a key using AES-256-GCM.
// Returns: nonce (12 bytes) || ciphertext || tag (16 bytes).
func Wrap(payload, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, payload, nil), nil
}

// Unwrap decrypts a payload wrapped by Wrap. Fails with ErrDecryptionFailed
// when the key is wrong; it never returns a plausible-looking wrong payload.
func Unwrap(ciphertext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < NonceSize+aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce := ciphertext[:NonceSize]
	payload, err := aead.Open(nil, nonce, ciphertext[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return payload, nil
}

// Zero overwrites key material in place. Best effort: Go gives no guarantee
// about copies the runtime may have made.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
