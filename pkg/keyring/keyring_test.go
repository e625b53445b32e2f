package keyring

import (
	"bytes"
	"errors"
	"testing"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	payload := []byte("the quick brown fox")

	wrapped, err := Wrap(payload, key)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	if len(wrapped) <= len(payload) {
		t.Error("wrapped payload should be longer than plaintext (nonce + tag)")
	}

	unwrapped, err := Unwrap(wrapped, key)
	if err != nil {
		t.Fatalf("unwrap failed: %v", err)
	}
	if !bytes.Equal(payload, unwrapped) {
		t.Errorf("unwrapped payload = %q, want %q", unwrapped, payload)
	}
}

func TestUnwrapWrongKeyFails(t *testing.T) {
	key1, _ := GenerateMasterKey()
	key2, _ := GenerateMasterKey()

	wrapped, err := Wrap([]byte("secret payload"), key1)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	_, err = Unwrap(wrapped, key2)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("unwrap with wrong key: got %v, want ErrDecryptionFailed", err)
	}
}

func TestUnwrapTamperedFails(t *testing.T) {
	key, _ := GenerateMasterKey()

	wrapped, err := Wrap([]byte("payload"), key)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}
	wrapped[len(wrapped)-1] ^= 0xff

	if _, err := Unwrap(wrapped, key); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("unwrap of tampered ciphertext: got %v, want ErrDecryptionFailed", err)
	}
}

func TestUnwrapTruncatedFails(t *testing.T) {
	key, _ := GenerateMasterKey()
	if _, err := Unwrap([]byte{1, 2, 3}, key); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("unwrap of truncated ciphertext: got %v, want ErrInvalidCiphertext", err)
	}
}

func TestWrapRejectsShortKey(t *testing.T) {
	if _, err := Wrap([]byte("p"), []byte("short")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("wrap with short key: got %v, want ErrInvalidKey", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}

	k1 := DeriveKey("correct horse battery staple", salt)
	k2 := DeriveKey("correct horse battery staple", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same password and salt must derive the same key")
	}

	if bytes.Equal(k1, DeriveKey("correct horse battery stapl", salt)) {
		t.Error("different password must derive a different key")
	}

	otherSalt, _ := GenerateSalt()
	if bytes.Equal(k1, DeriveKey("correct horse battery staple", otherSalt)) {
		t.Error("different salt must derive a different key")
	}
}

func TestDeriveKeyWrapChain(t *testing.T) {
	// The full envelope chain: password key wraps master key, master key
	// wraps a payload; the wrong password breaks the chain at the first
	// unwrap.
	salt, _ := GenerateSalt()
	masterKey, _ := GenerateMasterKey()

	pwKey := DeriveKey("pw1", salt)
	wrappedMaster, err := Wrap(masterKey, pwKey)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	_, err = Unwrap(wrappedMaster, DeriveKey("pw2", salt))
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("wrong password should fail the master unwrap, got %v", err)
	}

	recovered, err := Unwrap(wrappedMaster, DeriveKey("pw1", salt))
	if err != nil {
		t.Fatalf("correct password failed to unwrap master key: %v", err)
	}
	if !bytes.Equal(recovered, masterKey) {
		t.Error("recovered master key is not bit-equal to the generated one")
	}
}

func TestZero(t *testing.T) {
	key := []byte{1, 2, 3, 4}
	Zero(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("byte %d not zeroized: %d", i, b)
		}
	}
}
