package hecrypt

import (
	"math"
	"testing"
)

func plainDot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	kp, err := engine.GenerateKeys()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	vec := []float64{0.5, -0.25, 0.75, 0.1}

	ct, err := engine.Encrypt(vec, kp.Public)
	if err != nil {
		t.Fatalf("encryption failed: %v", err)
	}

	decrypted, err := engine.Decrypt(ct, kp.Secret, len(vec))
	if err != nil {
		t.Fatalf("decryption failed: %v", err)
	}

	for i := range vec {
		if math.Abs(decrypted[i]-vec[i]) > 1e-4 {
			t.Errorf("slot %d: got %f, want %f", i, decrypted[i], vec[i])
		}
	}
}

func TestDotProductMatchesPlaintext(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	kp, err := engine.GenerateKeys()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	// Unit vectors, as the search protocol requires.
	a := []float64{0.6, 0.8, 0, 0}
	b := []float64{0.8, 0.6, 0, 0}

	ctA, err := engine.Encrypt(a, kp.Public)
	if err != nil {
		t.Fatalf("failed to encrypt a: %v", err)
	}
	ctB, err := engine.Encrypt(b, kp.Public)
	if err != nil {
		t.Fatalf("failed to encrypt b: %v", err)
	}

	scoreCt, err := engine.DotProduct(ctA, ctB, kp.Relin)
	if err != nil {
		t.Fatalf("dot product failed: %v", err)
	}

	// The scalar is spread across slots; summing the first len(a) slots
	// recovers it.
	slots, err := engine.Decrypt(scoreCt, kp.Secret, len(a))
	if err != nil {
		t.Fatalf("failed to decrypt score: %v", err)
	}

	var got float64
	for _, s := range slots {
		got += s
	}

	want := plainDot(a, b)
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("reconstructed score %f, want %f", got, want)
	}
}

func TestDotProductWorksOnSeparateEngines(t *testing.T) {
	// The server runs its own engine instance built from the shared
	// parameters; it never sees the secret key.
	clientEngine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create client engine: %v", err)
	}
	serverEngine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create server engine: %v", err)
	}

	kp, err := clientEngine.GenerateKeys()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	a := []float64{1, 0, 0}
	b := []float64{1, 0, 0}

	ctA, err := clientEngine.Encrypt(a, kp.Public)
	if err != nil {
		t.Fatalf("failed to encrypt a: %v", err)
	}
	ctB, err := clientEngine.Encrypt(b, kp.Public)
	if err != nil {
		t.Fatalf("failed to encrypt b: %v", err)
	}

	scoreCt, err := serverEngine.DotProduct(ctA, ctB, kp.Relin)
	if err != nil {
		t.Fatalf("server-side dot product failed: %v", err)
	}

	slots, err := clientEngine.Decrypt(scoreCt, kp.Secret, len(a))
	if err != nil {
		t.Fatalf("failed to decrypt score: %v", err)
	}

	var got float64
	for _, s := range slots {
		got += s
	}
	if math.Abs(got-1.0) > 1e-3 {
		t.Errorf("identical unit vectors should score ~1.0, got %f", got)
	}
}

func TestKeyPairMarshalRoundTrip(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	kp, err := engine.GenerateKeys()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	data, err := kp.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored, err := UnmarshalKeyPair(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	// The restored secret key must still decrypt.
	vec := []float64{0.25, 0.5}
	ct, err := engine.Encrypt(vec, restored.Public)
	if err != nil {
		t.Fatalf("encryption with restored public key failed: %v", err)
	}
	decrypted, err := engine.Decrypt(ct, restored.Secret, len(vec))
	if err != nil {
		t.Fatalf("decryption with restored secret key failed: %v", err)
	}
	if math.Abs(decrypted[0]-0.25) > 1e-4 || math.Abs(decrypted[1]-0.5) > 1e-4 {
		t.Errorf("restored keypair round trip produced %v", decrypted)
	}
}
