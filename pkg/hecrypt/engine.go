// Package hecrypt provides homomorphic encryption of feature vectors using the
// Lattigo CKKS scheme. CKKS supports approximate arithmetic on encrypted real
// numbers, which is what lets the server score encrypted embeddings against an
// encrypted query without ever seeing either in plaintext.
//
// All keys and ciphertexts cross package boundaries as opaque serialized blobs;
// callers never touch the ring representation.
package hecrypt

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// Engine performs CKKS operations with a fixed parameter set.
// Client and server must construct it identically: a ciphertext produced by one
// engine is only meaningful to another engine with the same parameters.
//
// An Engine holds no key material. Keys arrive per call as serialized blobs, so
// the same type serves both the client (which holds the secret key) and the
// server (which only ever sees the relinearization key).
type Engine struct {
	params hefloat.Parameters

	// Lattigo encoders and evaluators are not thread-safe.
	mu      sync.Mutex
	encoder *hefloat.Encoder
}

// NewParameters creates the CKKS parameter set shared by client and server.
// LogN=13 gives a ring degree of 8192 (4096 real slots), enough for CLIP-style
// embeddings of up to 4096 dimensions. The modulus chain leaves one level for
// the single multiplication a dot product needs, and LogDefaultScale=45 keeps
// unit-norm coordinates well within precision.
func NewParameters() (hefloat.Parameters, error) {
	params, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
		LogN:            13,
		LogQ:            []int{55, 45, 45},
		LogP:            []int{61},
		LogDefaultScale: 45,
	})
	if err != nil {
		return hefloat.Parameters{}, fmt.Errorf("failed to create CKKS parameters: %w", err)
	}
	return params, nil
}

// NewEngine creates an engine with the shared parameter set.
func NewEngine() (*Engine, error) {
	params, err := NewParameters()
	if err != nil {
		return nil, err
	}
	return &Engine{
		params:  params,
		encoder: hefloat.NewEncoder(params),
	}, nil
}

// MaxSlots returns the number of real slots a ciphertext can carry.
func (e *Engine) MaxSlots() int {
	return e.params.MaxSlots()
}

// GenerateKeys generates a fresh keypair: public key, secret key and
// relinearization key, each serialized. The relinearization key permits
// homomorphic multiplication but not decryption, so it is safe to hand to the
// server.
func (e *Engine) GenerateKeys() (*KeyPair, error) {
	kgen := rlwe.NewKeyGenerator(e.params)
	sk, pk := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)

	pkBytes, err := writeBlob(pk)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize public key: %w", err)
	}
	skBytes, err := writeBlob(sk)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize secret key: %w", err)
	}
	rlkBytes, err := writeBlob(rlk)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize relinearization key: %w", err)
	}

	return &KeyPair{
		Public: pkBytes,
		Secret: skBytes,
		Relin:  rlkBytes,
	}, nil
}

// Encrypt encodes and encrypts a vector under the given public key.
// Coordinates should be unit-normalized before encryption; slots beyond
// len(vector) are zero and contribute nothing to a dot product.
func (e *Engine) Encrypt(vector []float64, publicKey []byte) ([]byte, error) {
	if len(vector) > e.params.MaxSlots() {
		return nil, fmt.Errorf("vector dimension %d exceeds %d slots", len(vector), e.params.MaxSlots())
	}

	pk := rlwe.NewPublicKey(e.params)
	if err := readBlob(pk, publicKey); err != nil {
		return nil, fmt.Errorf("failed to deserialize public key: %w", err)
	}

	padded := make([]float64, e.params.MaxSlots())
	copy(padded, vector)

	e.mu.Lock()
	defer e.mu.Unlock()

	pt := hefloat.NewPlaintext(e.params, e.params.MaxLevel())
	if err := e.encoder.Encode(padded, pt); err != nil {
		return nil, fmt.Errorf("failed to encode vector: %w", err)
	}

	ct, err := rlwe.NewEncryptor(e.params, pk).EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	return writeBlob(ct)
}

// Decrypt decrypts a ciphertext under the given secret key and returns the
// first n slots. For a score ciphertext produced by DotProduct the slots hold
// per-coordinate partial products; the caller sums them to recover the scalar.
func (e *Engine) Decrypt(ciphertext, secretKey []byte, n int) ([]float64, error) {
	sk := rlwe.NewSecretKey(e.params)
	if err := readBlob(sk, secretKey); err != nil {
		return nil, fmt.Errorf("failed to deserialize secret key: %w", err)
	}

	ct := rlwe.NewCiphertext(e.params, 1, e.params.MaxLevel())
	if err := readBlob(ct, ciphertext); err != nil {
		return nil, fmt.Errorf("failed to deserialize ciphertext: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pt := rlwe.NewDecryptor(e.params, sk).DecryptNew(ct)

	decoded := make([]float64, n)
	if err := e.encoder.Decode(pt, decoded); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return decoded, nil
}

// Ciphertext is a deserialized vector ciphertext. It exists so callers can
// hold parsed ciphertexts (and cache them) without seeing the ring
// representation.
type Ciphertext struct {
	ct *rlwe.Ciphertext
}

// ParseVector deserializes a vector ciphertext once, for repeated scoring.
func (e *Engine) ParseVector(data []byte) (*Ciphertext, error) {
	ct := rlwe.NewCiphertext(e.params, 1, e.params.MaxLevel())
	if err := readBlob(ct, data); err != nil {
		return nil, fmt.Errorf("failed to deserialize ciphertext: %w", err)
	}
	return &Ciphertext{ct: ct}, nil
}

// Scorer evaluates blind dot products of one query against many stored
// vectors. The query and relinearization key are deserialized once at
// construction; each Score call costs one multiplication and one rescale.
//
// A Scorer is not safe for concurrent use. Create one per query.
type Scorer struct {
	evaluator *hefloat.Evaluator
	query     *rlwe.Ciphertext
}

// NewScorer prepares a scorer for one query ciphertext. The relinearization
// key permits the multiplication but not decryption, so holding it for the
// duration of a query leaks nothing.
func (e *Engine) NewScorer(queryCiphertext, relinKey []byte) (*Scorer, error) {
	rlk := rlwe.NewRelinearizationKey(e.params)
	if err := readBlob(rlk, relinKey); err != nil {
		return nil, fmt.Errorf("failed to deserialize relinearization key: %w", err)
	}

	query := rlwe.NewCiphertext(e.params, 1, e.params.MaxLevel())
	if err := readBlob(query, queryCiphertext); err != nil {
		return nil, fmt.Errorf("failed to deserialize query ciphertext: %w", err)
	}

	return &Scorer{
		evaluator: hefloat.NewEvaluator(e.params, rlwe.NewMemEvaluationKeySet(rlk)),
		query:     query,
	}, nil
}

// Score multiplies the query slot-wise against a stored vector and rescales
// the result. No slot summation happens here: the returned ciphertext carries
// the partial products spread across slots, and only the secret-key holder can
// sum them after decryption. This is the one operation the server performs on
// user data.
func (s *Scorer) Score(vector *Ciphertext) ([]byte, error) {
	result, err := s.evaluator.MulRelinNew(s.query, vector.ct)
	if err != nil {
		return nil, fmt.Errorf("failed to multiply: %w", err)
	}
	if err := s.evaluator.Rescale(result, result); err != nil {
		return nil, fmt.Errorf("failed to rescale: %w", err)
	}

	return writeBlob(result)
}

// DotProduct multiplies two serialized ciphertexts slot-wise using the
// supplied relinearization key. Convenience form of NewScorer plus Score for
// one-off evaluations.
func (e *Engine) DotProduct(ciphertextA, ciphertextB, relinKey []byte) ([]byte, error) {
	scorer, err := e.NewScorer(ciphertextA, relinKey)
	if err != nil {
		return nil, err
	}
	vec, err := e.ParseVector(ciphertextB)
	if err != nil {
		return nil, err
	}
	return scorer.Score(vec)
}

// Every Lattigo key and ciphertext type implements io.WriterTo and
// io.ReaderFrom; that is the only serialization surface used here.

func writeBlob(v io.WriterTo) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := v.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readBlob(v io.ReaderFrom, data []byte) error {
	_, err := v.ReadFrom(bytes.NewReader(data))
	return err
}
