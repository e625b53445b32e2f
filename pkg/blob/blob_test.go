package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// storeUnderTest runs the Store contract against any implementation.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	if err := store.Put(ctx, "user-1/img-1.enc", payload); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Duplicate keys are rejected.
	if err := store.Put(ctx, "user-1/img-1.enc", payload); !errors.Is(err, ErrBlobExists) {
		t.Errorf("duplicate put: got %v, want ErrBlobExists", err)
	}

	got, err := store.Get(ctx, "user-1/img-1.enc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("get returned %x, want %x", got, payload)
	}

	if _, err := store.Get(ctx, "user-1/missing.enc"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("get of missing key: got %v, want ErrBlobNotFound", err)
	}

	if err := store.Delete(ctx, "user-1/img-1.enc"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "user-1/img-1.enc"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("get after delete: got %v, want ErrBlobNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "user-1/img-1.enc"); err != nil {
		t.Errorf("delete of absent key: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	storeUnderTest(t, store)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	for _, key := range []string{"../escape.enc", "/abs/path.enc", "a/../../b"} {
		if err := store.Put(context.Background(), key, []byte{1}); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}

func TestMemoryStoreCopiesPayload(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := []byte{1, 2, 3}
	if err := store.Put(ctx, "k", payload); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	payload[0] = 99

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got[0] != 1 {
		t.Error("store must not alias the caller's payload slice")
	}
}
