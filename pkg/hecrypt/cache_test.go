package hecrypt

import (
	"math"
	"testing"
)

func TestCiphertextCacheEviction(t *testing.T) {
	c := NewCiphertextCache(2)

	a, b, d := &Ciphertext{}, &Ciphertext{}, &Ciphertext{}
	c.Put("a", a)
	c.Put("b", b)
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}

	// Third insert evicts the oldest.
	c.Put("d", d)
	if c.Size() != 2 {
		t.Fatalf("size after eviction = %d, want 2", c.Size())
	}
	if c.Get("a") != nil {
		t.Error("oldest entry not evicted")
	}
	if c.Get("b") != b || c.Get("d") != d {
		t.Error("surviving entries lost")
	}
}

func TestCiphertextCacheReplaceAndDelete(t *testing.T) {
	c := NewCiphertextCache(4)

	first, second := &Ciphertext{}, &Ciphertext{}
	c.Put("k", first)
	c.Put("k", second)
	if c.Size() != 1 {
		t.Fatalf("replace grew the cache: size = %d", c.Size())
	}
	if c.Get("k") != second {
		t.Error("replace did not take effect")
	}

	c.Delete("k")
	if c.Get("k") != nil || c.Size() != 0 {
		t.Error("delete left the entry behind")
	}
	c.Delete("missing")

	c.Put("x", first)
	c.Clear()
	if c.Size() != 0 {
		t.Error("clear left entries behind")
	}
}

// A parsed vector must score identically no matter how many queries reuse it.
func TestScorerReusesParsedVector(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	keys, err := engine.GenerateKeys()
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}

	stored := []float64{0.5, 0.5, 0.5, 0.5}
	query := []float64{1, 0, 0, 0}

	storedBytes, err := engine.Encrypt(stored, keys.Public)
	if err != nil {
		t.Fatalf("Encrypt stored: %v", err)
	}
	vec, err := engine.ParseVector(storedBytes)
	if err != nil {
		t.Fatalf("ParseVector: %v", err)
	}

	for run := 0; run < 2; run++ {
		queryBytes, err := engine.Encrypt(query, keys.Public)
		if err != nil {
			t.Fatalf("Encrypt query: %v", err)
		}
		scorer, err := engine.NewScorer(queryBytes, keys.Relin)
		if err != nil {
			t.Fatalf("NewScorer: %v", err)
		}

		scoreCt, err := scorer.Score(vec)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		slots, err := engine.Decrypt(scoreCt, keys.Secret, len(query))
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		var got float64
		for _, s := range slots {
			got += s
		}
		if math.Abs(got-0.5) > 1e-3 {
			t.Errorf("run %d: score %f, want ~0.5", run, got)
		}
	}
}
