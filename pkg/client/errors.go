package client

import "errors"

var (
	// ErrInvalidCredentials is returned when the master key fails to
	// unwrap at login. The server's password check is only a hint; this
	// failure is the authoritative signal of a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrKeypairCorrupted is returned when the master key unwrapped but
	// the keypair envelope did not. That is data corruption, not a bad
	// password, and is reported distinctly.
	ErrKeypairCorrupted = errors.New("keypair envelope corrupted")

	// ErrAccountExists is returned when registering an email already in use.
	ErrAccountExists = errors.New("account already exists")

	// ErrEmbedding is returned when the embedding collaborator fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRemoteUnavailable is returned when the compute boundary is
	// unreachable. Distinct from an empty search result, which is success.
	ErrRemoteUnavailable = errors.New("remote compute boundary unavailable")
)
