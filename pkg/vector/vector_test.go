package vector

import (
	"math"
	"testing"
)

func TestNormalizeUnitLength(t *testing.T) {
	vec := []float64{3, 4}
	got := Normalize(vec)

	if math.Abs(got[0]-0.6) > 1e-12 || math.Abs(got[1]-0.8) > 1e-12 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", got)
	}

	// Input must not be mutated.
	if vec[0] != 3 || vec[1] != 4 {
		t.Errorf("Normalize mutated its input: %v", vec)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	vec := []float64{1.5, -2.25, 0.75, 10}

	once := Normalize(vec)
	twice := Normalize(once)

	for i := range once {
		if math.Abs(once[i]-twice[i]) > 1e-12 {
			t.Errorf("slot %d: normalize(normalize(v))=%f, normalize(v)=%f", i, twice[i], once[i])
		}
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	vec := []float64{0, 0, 0}
	got := Normalize(vec)

	for i, v := range got {
		if v != 0 {
			t.Errorf("slot %d: zero vector should pass through unchanged, got %f", i, v)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	vec := []float64{0.1, -0.5, math.Pi, 0}

	got := FromBytes(ToBytes(vec))
	if len(got) != len(vec) {
		t.Fatalf("round trip length %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("slot %d: got %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestFromBytesRejectsTruncated(t *testing.T) {
	if got := FromBytes(make([]byte, 7)); got != nil {
		t.Errorf("truncated input should yield nil, got %v", got)
	}
}
