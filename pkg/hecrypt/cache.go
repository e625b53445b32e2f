package hecrypt

import (
	"sync"
)

// CiphertextCache caches deserialized vector ciphertexts for faster scoring.
// Deserializing a ciphertext from its wire form is expensive relative to the
// map lookup, and the same stored vectors are scored on every query, so the
// server keeps the hot ones parsed.
//
// Entries never go stale: a record's vector ciphertext is immutable for the
// record's lifetime, so eviction is purely a capacity concern.
type CiphertextCache struct {
	entries  map[string]*Ciphertext
	order    []string
	capacity int

	mu sync.RWMutex
}

// NewCiphertextCache creates a cache holding at most capacity entries.
// When full, the oldest entry is evicted first.
func NewCiphertextCache(capacity int) *CiphertextCache {
	if capacity < 1 {
		capacity = 1
	}
	return &CiphertextCache{
		entries:  make(map[string]*Ciphertext),
		capacity: capacity,
	}
}

// Get returns the cached ciphertext for key, or nil if not cached.
func (c *CiphertextCache) Get(key string) *Ciphertext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

// Put stores a ciphertext under key, evicting the oldest entry if full.
func (c *CiphertextCache) Put(key string, ct *Ciphertext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = ct
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = ct
	c.order = append(c.order, key)
}

// Delete removes the entry for key, if present.
func (c *CiphertextCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Size returns the number of cached entries.
func (c *CiphertextCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *CiphertextCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Ciphertext)
	c.order = nil
}
