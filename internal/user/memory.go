package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Used by STORAGE_BACKEND=memory and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(_ context.Context, email, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID

	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}
