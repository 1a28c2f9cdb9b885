package user

import (
	"context"
	"sync"

	domain "babel-bridge/internal/domain/user"
)

// InMemoryRepository is a thread-safe user store for tests and local runs without a database.
type InMemoryRepository struct {
	mu         sync.RWMutex
	byUsername map[string]domain.User
}

// NewInMemoryRepository creates an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byUsername: make(map[string]domain.User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[u.Username]; exists {
		return domain.ErrUsernameTaken
	}
	r.byUsername[u.Username] = u
	return nil
}

func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
