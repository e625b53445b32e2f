// Package session holds the client's per-login key material. A Session is
// created by login, read-only afterwards, and safe for concurrent use by
// in-flight uploads and searches. No operation mutates the held keys; rotating
// keys means creating a new session.
package session

import (
	"github.com/GomathyDhanya/SecureSearch/pkg/hecrypt"
	"github.com/GomathyDhanya/SecureSearch/pkg/keyring"
)

// Session is the only channel through which key material reaches protocol
// operations: every orchestrator call takes it explicitly.
type Session struct {
	// Email of the logged-in account.
	Email string

	// Token is the bearer credential for the remote compute boundary.
	Token string

	// MasterKey unwraps every per-image payload and the keypair envelope.
	// Never persisted; lives only for the duration of the session.
	MasterKey []byte

	// Keys is the homomorphic keypair recovered from its envelope.
	Keys *hecrypt.KeyPair
}

// Close zeroizes the session's secret material. The session must not be used
// afterwards.
func (s *Session) Close() {
	keyring.Zero(s.MasterKey)
	if s.Keys != nil {
		s.Keys.Zero()
	}
	s.Token = ""
}
