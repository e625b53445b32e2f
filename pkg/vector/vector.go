// Package vector provides the plaintext vector codec used on both sides of the
// encrypted search protocol: unit normalization before encryption, and the
// byte encoding used when a raw vector crosses a process boundary.
package vector

import (
	"encoding/binary"
	"math"
)

// Normalize scales a vector to unit Euclidean length. Stored embeddings and
// query embeddings must both pass through here, so the homomorphic dot product
// of two encrypted vectors equals their cosine similarity.
//
// A zero vector is returned unchanged: it has no orientation, and keeping it
// as-is avoids a division by zero. It will score near-orthogonal to everything.
func Normalize(vec []float64) []float64 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return vec
	}

	normalized := make([]float64, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}

// ToBytes converts a float64 slice to bytes using little-endian encoding.
func ToBytes(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// FromBytes converts bytes back to a float64 slice.
// Returns nil if the data is not a whole number of float64 values.
func FromBytes(data []byte) []float64 {
	if len(data)%8 != 0 {
		return nil
	}

	vec := make([]float64, len(data)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vec
}
