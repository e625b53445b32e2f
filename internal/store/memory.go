package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and demos. Not persistent.
type MemoryStore struct {
	usersByEmail map[string]User
	records      map[uuid.UUID]ImageRecord
	mu           sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByEmail: make(map[string]User),
		records:      make(map[uuid.UUID]ImageRecord),
	}
}

// CreateUser inserts a user, rejecting duplicate emails.
func (s *MemoryStore) CreateUser(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return ErrUserExists
	}
	s.usersByEmail[email] = user
	return nil
}

// GetUserByEmail fetches a user by email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// CreateRecord inserts an image record.
func (s *MemoryStore) CreateRecord(ctx context.Context, rec ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return nil
}

// GetRecord fetches a record scoped to its owner.
func (s *MemoryStore) GetRecord(ctx context.Context, id, ownerID uuid.UUID) (ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return ImageRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListRecords returns all records owned by ownerID.
func (s *MemoryStore) ListRecords(ctx context.Context, ownerID uuid.UUID) ([]ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ImageRecord
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DeleteRecord removes a record scoped to its owner.
func (s *MemoryStore) DeleteRecord(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
